package gamepad

import (
	"math"
	"time"

	"github.com/soar/chatpad/internal/input"
)

// DefaultStickThreshold is how far a stick must travel before it counts as
// pointing somewhere.
const DefaultStickThreshold = 0.5

type stickHold struct {
	direction string
	since     time.Time
}

// Tracker turns a stream of polled snapshots into discrete events: one
// ButtonRelease per press, one JoystickMove per held stick direction, and
// Connected/Disconnected on transitions.
type Tracker struct {
	threshold float64
	connected bool
	pressed   ButtonSet
	since     [buttonCount]time.Time
	sticks    [2]stickHold
}

func NewTracker(stickThreshold float64) *Tracker {
	if stickThreshold <= 0 || stickThreshold >= 1 {
		stickThreshold = DefaultStickThreshold
	}
	return &Tracker{threshold: stickThreshold}
}

// Update consumes the next snapshot and returns the events it completes.
func (t *Tracker) Update(s GamepadState) []input.Event {
	var events []input.Event

	if s.Connected != t.connected {
		t.reset()
		t.connected = s.Connected
		if s.Connected {
			events = append(events, input.Connected{Name: s.Name})
		} else {
			return append(events, input.Disconnected{})
		}
	}
	if !s.Connected {
		return events
	}

	for b := Button(0); b < buttonCount; b++ {
		was, is := t.pressed.Has(b), s.Buttons.Has(b)
		switch {
		case is && !was:
			t.since[b] = s.At
		case was && !is:
			events = append(events, input.ButtonRelease{
				Button:   b.String(),
				Duration: s.At.Sub(t.since[b]),
			})
		}
	}
	t.pressed = s.Buttons

	for i, v := range [2]Vector{s.Left, s.Right} {
		dir := Direction(v, t.threshold)
		hold := &t.sticks[i]
		if dir == hold.direction {
			continue
		}
		if hold.direction != "" {
			events = append(events, input.JoystickMove{
				Side:      input.Side(i),
				Direction: hold.direction,
				Duration:  s.At.Sub(hold.since),
			})
		}
		*hold = stickHold{direction: dir, since: s.At}
	}

	return events
}

func (t *Tracker) reset() {
	t.pressed = 0
	t.sticks = [2]stickHold{}
}

// Direction classifies a stick position by its dominant axis. It returns ""
// while the stick is within threshold of the center.
func Direction(v Vector, threshold float64) string {
	if math.Hypot(v.X, v.Y) < threshold {
		return ""
	}
	if math.Abs(v.X) > math.Abs(v.Y) {
		if v.X > 0 {
			return input.DirectionRight
		}
		return input.DirectionLeft
	}
	if v.Y > 0 {
		return input.DirectionUp
	}
	return input.DirectionDown
}
