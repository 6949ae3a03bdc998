package dispatch

import (
	"context"
	"log"
	"strconv"

	"github.com/soar/chatpad/internal/command"
	"github.com/soar/chatpad/internal/input"
)

const inboxSize = 64

// Pipeline is the single consumer of input events. Every event is handled to
// completion before the next one is read, so the Sequencer never sees
// concurrent calls.
type Pipeline struct {
	seq      *Sequencer
	settings Settings
	feedback Feedback
	inbox    chan input.Event
}

func NewPipeline(seq *Sequencer, settings Settings, feedback Feedback) *Pipeline {
	return &Pipeline{
		seq:      seq,
		settings: settings,
		feedback: feedback,
		inbox:    make(chan input.Event, inboxSize),
	}
}

// Submit queues an event from any goroutine. It never blocks; the event is
// dropped if the inbox is full.
func (p *Pipeline) Submit(ev input.Event) {
	select {
	case p.inbox <- ev:
	default:
		log.Printf("Pipeline inbox full, dropping %T", ev)
	}
}

// Run handles events from source and from Submit until ctx is done or source
// is closed. A nil source is allowed.
func (p *Pipeline) Run(ctx context.Context, source <-chan input.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-source:
			if !ok {
				source = nil
				continue
			}
			p.HandleInputEvent(ctx, ev)
		case ev := <-p.inbox:
			p.HandleInputEvent(ctx, ev)
		}
	}
}

// SetTestMode forwards to the Sequencer. Call it only from the goroutine
// running Run, or before Run starts; other goroutines should Submit a
// TestModeSet event instead.
func (p *Pipeline) SetTestMode(on bool) {
	p.seq.SetTestMode(on)
}

// HandleInputEvent processes one event synchronously.
func (p *Pipeline) HandleInputEvent(ctx context.Context, ev input.Event) {
	switch e := ev.(type) {
	case input.Connected:
		log.Printf("Controller connected: %s", e.Name)
		p.feedback.SetConnectionState(true)
		return
	case input.Disconnected:
		log.Println("Controller disconnected")
		p.feedback.SetConnectionState(false)
		p.feedback.SetLastInput("N/A")
		return
	case input.TestModeToggle:
		p.SetTestMode(!p.seq.TestMode())
		return
	case input.TestModeSet:
		if e.On != p.seq.TestMode() {
			p.SetTestMode(e.On)
		}
		return
	case input.VisibilityToggle:
		p.feedback.ToggleVisibility()
		return
	case input.ButtonRelease:
		p.feedback.SetLastInput(e.Button)
	case input.JoystickMove:
		p.feedback.SetLastInput(e.Side.String() + " " + e.Direction)
	case input.KeyPress:
		if d, ok := input.Digit(e.Key); ok {
			p.feedback.SetLastInput(strconv.Itoa(d))
		}
	}

	res := command.Translate(ev, p.thresholds())
	switch res.Action {
	case command.ActionToggleVisibility:
		p.feedback.ToggleVisibility()
	case command.ActionToggleTestMode:
		p.SetTestMode(!p.seq.TestMode())
	case command.ActionSend:
		p.seq.Dispatch(ctx, res.Command, res.Section)
	}
}

func (p *Pipeline) thresholds() command.Thresholds {
	return command.Thresholds{
		LongPress: p.settings.LongPressDuration(),
		LongMove:  p.settings.LongMoveDuration(),
	}
}
