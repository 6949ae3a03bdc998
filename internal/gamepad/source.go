package gamepad

import (
	"context"

	"github.com/soar/chatpad/internal/input"
)

// Source feeds snapshots through a Tracker and exposes the resulting events.
type Source struct {
	states  <-chan GamepadState
	tracker *Tracker
	events  chan input.Event
}

func NewSource(states <-chan GamepadState, tracker *Tracker) *Source {
	return &Source{
		states:  states,
		tracker: tracker,
		events:  make(chan input.Event, 64),
	}
}

// Events returns the event stream. It is closed when Run returns.
func (s *Source) Events() <-chan input.Event {
	return s.events
}

// Run converts snapshots until the state channel closes or ctx is done.
// Events are delivered in order; Run blocks rather than drop them.
func (s *Source) Run(ctx context.Context) {
	defer close(s.events)
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-s.states:
			if !ok {
				return
			}
			for _, ev := range s.tracker.Update(st) {
				select {
				case s.events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
