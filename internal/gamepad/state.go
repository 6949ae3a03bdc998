package gamepad

import (
	"math"
	"time"
)

// Button is a digital control on the active controller. Triggers and the
// d-pad are reported as buttons too.
type Button uint8

const (
	ButtonA Button = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonLB
	ButtonRB
	ButtonLT
	ButtonRT
	ButtonSelect
	ButtonStart
	ButtonHome
	ButtonL3
	ButtonR3
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
	buttonCount
)

var buttonNames = [buttonCount]string{
	ButtonA:      "A",
	ButtonB:      "B",
	ButtonX:      "X",
	ButtonY:      "Y",
	ButtonLB:     "LB",
	ButtonRB:     "RB",
	ButtonLT:     "LT",
	ButtonRT:     "RT",
	ButtonSelect: "SELECT",
	ButtonStart:  "START",
	ButtonHome:   "HOME",
	ButtonL3:     "L3",
	ButtonR3:     "R3",
	ButtonUp:     "UP",
	ButtonDown:   "DOWN",
	ButtonLeft:   "LEFT",
	ButtonRight:  "RIGHT",
}

// String returns the identifier sent to the chat for b.
func (b Button) String() string {
	if b < buttonCount {
		return buttonNames[b]
	}
	return "?"
}

// ButtonSet is a bitmask of pressed buttons.
type ButtonSet uint32

func (s ButtonSet) Has(b Button) bool {
	return s&(1<<b) != 0
}

func (s ButtonSet) With(b Button) ButtonSet {
	return s | 1<<b
}

// Vector is a stick position, both axes in -1..1 with Y pointing up.
type Vector struct {
	X float64
	Y float64
}

// GamepadState is one polled snapshot of the active controller.
type GamepadState struct {
	Connected      bool
	ControllerType string
	Name           string
	Buttons        ButtonSet
	Left           Vector
	Right          Vector
	// At is when the snapshot was taken. It is not compared by Changed.
	At time.Time
}

const analogThreshold = 0.01

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < analogThreshold
}

func vectorEqual(a, b Vector) bool {
	return floatEqual(a.X, b.X) && floatEqual(a.Y, b.Y)
}

// Changed reports whether new_ differs from old enough to be worth emitting.
func Changed(old, new_ GamepadState) bool {
	return old.Connected != new_.Connected ||
		old.ControllerType != new_.ControllerType ||
		old.Name != new_.Name ||
		old.Buttons != new_.Buttons ||
		!vectorEqual(old.Left, new_.Left) ||
		!vectorEqual(old.Right, new_.Right)
}
