package dispatch

import (
	"context"
	"time"

	"github.com/soar/chatpad/internal/input"
)

// ChatSurface is the chat box commands are injected into.
type ChatSurface interface {
	// Ready reports whether the chat input and send button are available.
	Ready() bool
	// HasErrorIndicator reports whether the host currently shows a
	// rate-limit or rejection notice.
	HasErrorIndicator(ctx context.Context) bool
	// Send pastes text, submits it and leaves the input unfocused.
	Send(ctx context.Context, text string) error
	// Clear erases whatever is left in the chat input.
	Clear(ctx context.Context) error
	// CloseErrorPopup dismisses the host error notice. It returns false when
	// there was no close control to click.
	CloseErrorPopup(ctx context.Context) (bool, error)
}

// Telemetry records accepted commands.
type Telemetry interface {
	RecordCommand(text string, section input.Section)
	Enable()
	Disable()
}

// Feedback receives UI updates.
type Feedback interface {
	SetConnectionState(connected bool)
	SetLastInput(text string)
	SetLastCommandVisible(visible bool)
	SetLastCommand(text string)
	SetTestMode(on bool)
	ToggleVisibility()
}

// Settings exposes the long press / long move thresholds.
type Settings interface {
	LongPressDuration() time.Duration
	LongMoveDuration() time.Duration
}

// NopFeedback ignores every update. Embed it to implement only part of
// Feedback.
type NopFeedback struct{}

func (NopFeedback) SetConnectionState(bool)    {}
func (NopFeedback) SetLastInput(string)        {}
func (NopFeedback) SetLastCommandVisible(bool) {}
func (NopFeedback) SetLastCommand(string)      {}
func (NopFeedback) SetTestMode(bool)           {}
func (NopFeedback) ToggleVisibility()          {}

// Feedbacks fans every update out to all of its members, in order.
type Feedbacks []Feedback

func (fs Feedbacks) SetConnectionState(connected bool) {
	for _, f := range fs {
		f.SetConnectionState(connected)
	}
}

func (fs Feedbacks) SetLastInput(text string) {
	for _, f := range fs {
		f.SetLastInput(text)
	}
}

func (fs Feedbacks) SetLastCommandVisible(visible bool) {
	for _, f := range fs {
		f.SetLastCommandVisible(visible)
	}
}

func (fs Feedbacks) SetLastCommand(text string) {
	for _, f := range fs {
		f.SetLastCommand(text)
	}
}

func (fs Feedbacks) SetTestMode(on bool) {
	for _, f := range fs {
		f.SetTestMode(on)
	}
}

func (fs Feedbacks) ToggleVisibility() {
	for _, f := range fs {
		f.ToggleVisibility()
	}
}
