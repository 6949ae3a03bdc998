// Package dispatch sends translated commands to the chat in order, applying
// the startup, chat-ready and test-mode gates, and recovers from host-side
// rate limiting after each send.
package dispatch

import (
	"context"
	"log"
	"time"

	"github.com/soar/chatpad/internal/command"
	"github.com/soar/chatpad/internal/input"
)

const (
	// DefaultRecoveryDelay leaves the host page time to show a rejection.
	DefaultRecoveryDelay = 300 * time.Millisecond
	// DefaultSendTimeout bounds a single chat operation.
	DefaultSendTimeout = 2 * time.Second
)

// Outcome is what Dispatch did with a command.
type Outcome uint8

const (
	OutcomeSent Outcome = iota
	OutcomeDroppedStartup
	OutcomeDroppedNotReady
	OutcomeDroppedTestMode
	OutcomeSendFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeDroppedStartup:
		return "dropped (startup)"
	case OutcomeDroppedNotReady:
		return "dropped (chat not ready)"
	case OutcomeDroppedTestMode:
		return "dropped (test mode)"
	default:
		return "send failed"
	}
}

// Options tune a Sequencer. Zero values fall back to the defaults.
type Options struct {
	RecoveryDelay time.Duration
	SendTimeout   time.Duration
	// AfterFunc schedules the recovery check. Defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func())
}

// Sequencer owns the dispatch state: the startup drop, test mode and the
// case rotation. It is not safe for concurrent use; Pipeline serializes calls.
type Sequencer struct {
	chat      ChatSurface
	telemetry Telemetry
	feedback  Feedback
	recovery  *Recovery

	dropFirst bool
	testMode  bool
	counter   command.Case

	recoveryDelay time.Duration
	sendTimeout   time.Duration
	afterFunc     func(time.Duration, func())
}

func NewSequencer(chat ChatSurface, telemetry Telemetry, feedback Feedback, opts Options) *Sequencer {
	s := &Sequencer{
		chat:          chat,
		telemetry:     telemetry,
		feedback:      feedback,
		recovery:      NewRecovery(chat),
		dropFirst:     true,
		counter:       command.CaseUpper,
		recoveryDelay: opts.RecoveryDelay,
		sendTimeout:   opts.SendTimeout,
		afterFunc:     opts.AfterFunc,
	}
	if s.recoveryDelay <= 0 {
		s.recoveryDelay = DefaultRecoveryDelay
	}
	if s.sendTimeout <= 0 {
		s.sendTimeout = DefaultSendTimeout
	}
	if s.afterFunc == nil {
		s.afterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return s
}

// TestMode reports whether test mode is on.
func (s *Sequencer) TestMode() bool {
	return s.testMode
}

// Case returns the case the next non-numeric command will be sent in.
func (s *Sequencer) Case() command.Case {
	return s.counter
}

// SetTestMode turns test mode on or off. While on, nothing reaches the chat
// or the telemetry.
func (s *Sequencer) SetTestMode(on bool) {
	s.testMode = on
	if on {
		s.telemetry.Disable()
	} else {
		s.telemetry.Enable()
	}
	s.feedback.SetTestMode(on)
	s.feedback.SetLastCommandVisible(!on)
	log.Printf("Test mode: %v", on)
}

// Preview returns cmd as it would be sent next, without side effects.
func (s *Sequencer) Preview(cmd string) string {
	return command.Randomize(cmd, s.counter)
}

// Dispatch sends cmd unless one of the gates drops it. The very first call
// after construction is always dropped.
func (s *Sequencer) Dispatch(ctx context.Context, cmd string, section input.Section) Outcome {
	if s.dropFirst {
		s.dropFirst = false
		log.Printf("[DEBUG] Dropping first command %q", cmd)
		return OutcomeDroppedStartup
	}
	if !s.chat.Ready() {
		log.Printf("[DEBUG] Chat not ready, dropping %q", cmd)
		return OutcomeDroppedNotReady
	}
	if s.testMode {
		return OutcomeDroppedTestMode
	}

	text := command.Randomize(cmd, s.counter)

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	err := s.chat.Send(sendCtx, text)
	cancel()
	if err != nil {
		log.Printf("Failed to send %q: %v", text, err)
		return OutcomeSendFailed
	}

	s.feedback.SetLastCommand(text)
	s.afterFunc(s.recoveryDelay, s.checkRecovery)
	if !command.IsNumeric(cmd) {
		s.counter = s.counter.Next()
	}
	log.Printf("Sent command %q (%s)", text, section)
	s.telemetry.RecordCommand(text, section)
	return OutcomeSent
}

func (s *Sequencer) checkRecovery() {
	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()
	s.recovery.Check(ctx)
}
