// Package command turns input events into chat commands and re-cases them so
// that consecutive identical commands are not swallowed by the host chat.
package command

import (
	"strconv"
	"time"

	"github.com/soar/chatpad/internal/input"
)

// LongPrefix marks the long-press / long-move variant of a command.
const LongPrefix = "+"

// Action tells the caller what to do with a translated event.
type Action uint8

const (
	ActionNone Action = iota
	ActionSend
	ActionToggleVisibility
	ActionToggleTestMode
)

func (a Action) String() string {
	switch a {
	case ActionSend:
		return "send"
	case ActionToggleVisibility:
		return "toggle_visibility"
	case ActionToggleTestMode:
		return "toggle_test_mode"
	default:
		return "none"
	}
}

// Thresholds are the hold durations from which a command becomes its long
// variant. Both bounds are inclusive.
type Thresholds struct {
	LongPress time.Duration
	LongMove  time.Duration
}

// Result is the outcome of translating one event.
type Result struct {
	Action  Action
	Command string
	Section input.Section
}

// Translate maps a single input event to at most one command.
func Translate(ev input.Event, th Thresholds) Result {
	switch e := ev.(type) {
	case input.ButtonRelease:
		switch e.Button {
		case input.ButtonStart:
			return Result{Action: ActionToggleVisibility}
		case input.ButtonSelect:
			return Result{Action: ActionToggleTestMode}
		}
		cmd := e.Button
		if e.Duration >= th.LongPress {
			cmd = LongPrefix + cmd
		}
		return Result{Action: ActionSend, Command: cmd, Section: input.SectionGamepad}

	case input.JoystickMove:
		side := "R"
		if e.Side == input.Left {
			side = "L"
		}
		cmd := "M" + side + e.Direction
		if e.Duration >= th.LongMove {
			cmd = LongPrefix + cmd
		}
		return Result{Action: ActionSend, Command: cmd, Section: input.SectionJoystick}

	case input.KeyPress:
		if e.Key == input.KeyToggleVisibility {
			return Result{Action: ActionToggleVisibility}
		}
		digit, ok := input.Digit(e.Key)
		if !ok {
			return Result{}
		}
		return Result{Action: ActionSend, Command: strconv.Itoa(digit), Section: input.SectionKeyboard}
	}
	return Result{}
}
