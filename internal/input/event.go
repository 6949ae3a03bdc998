// Package input defines the discrete events that drive the command pipeline.
// Sources (the gamepad tracker, the chat page, the terminal panel, the tray and
// the overlay) all speak these types, and a single consumer handles them in
// the order they were received.
package input

import (
	"fmt"
	"time"
)

// Section tags a command with the kind of input that produced it.
type Section string

const (
	SectionGamepad  Section = "gamepad"
	SectionJoystick Section = "joystick"
	SectionKeyboard Section = "keyboard"
)

// Side identifies an analog stick.
type Side uint8

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Button identifiers with special meaning. Every other button id is sent
// as-is.
const (
	ButtonStart  = "START"
	ButtonSelect = "SELECT"
)

// Stick directions.
const (
	DirectionUp    = "UP"
	DirectionDown  = "DOWN"
	DirectionLeft  = "LEFT"
	DirectionRight = "RIGHT"
)

// Event is any input delivered to the pipeline.
type Event interface {
	event()
}

// Connected reports that a controller became active.
type Connected struct {
	Name string
}

// Disconnected reports that no controller is active anymore.
type Disconnected struct{}

// ButtonRelease is emitted once when a held button is released.
type ButtonRelease struct {
	Button   string
	Duration time.Duration
}

// JoystickMove is emitted once when a stick leaves a direction it was held in.
type JoystickMove struct {
	Side      Side
	Direction string
	Duration  time.Duration
}

// KeyPress is a key released on the chat page or in the terminal panel.
type KeyPress struct {
	Key rune
}

// TestModeToggle flips test mode.
type TestModeToggle struct{}

// TestModeSet forces test mode on or off.
type TestModeSet struct {
	On bool
}

// VisibilityToggle shows or hides the overlay.
type VisibilityToggle struct{}

func (Connected) event()        {}
func (Disconnected) event()     {}
func (ButtonRelease) event()    {}
func (JoystickMove) event()     {}
func (KeyPress) event()         {}
func (TestModeToggle) event()   {}
func (TestModeSet) event()      {}
func (VisibilityToggle) event() {}

func (e ButtonRelease) String() string {
	return fmt.Sprintf("%s (%dms)", e.Button, e.Duration.Milliseconds())
}

func (e JoystickMove) String() string {
	return fmt.Sprintf("%s stick %s (%dms)", e.Side, e.Direction, e.Duration.Milliseconds())
}
