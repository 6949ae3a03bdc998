package gamepad

import (
	"testing"
	"time"
)

func TestChanged(t *testing.T) {
	base := GamepadState{Connected: true, Name: "pad", Left: Vector{X: 0.5}}

	same := base
	same.At = time.Now()
	same.Left.X += 0.005
	if Changed(base, same) {
		t.Error("timestamp and analog jitter counted as a change")
	}

	moved := base
	moved.Left.X = 0.6
	if !Changed(base, moved) {
		t.Error("stick movement not detected")
	}

	pressed := base
	pressed.Buttons = pressed.Buttons.With(ButtonStart)
	if !Changed(base, pressed) {
		t.Error("button press not detected")
	}
}

func TestButtonSet(t *testing.T) {
	s := ButtonSet(0).With(ButtonA).With(ButtonRight)
	if !s.Has(ButtonA) || !s.Has(ButtonRight) || s.Has(ButtonB) {
		t.Fatalf("unexpected set %b", s)
	}
}

func TestButtonNames(t *testing.T) {
	for b := Button(0); b < buttonCount; b++ {
		if b.String() == "" {
			t.Errorf("button %d has no name", b)
		}
	}
	if ButtonStart.String() != "START" || ButtonSelect.String() != "SELECT" {
		t.Error("START/SELECT names must match the input package")
	}
}

func TestNormalize(t *testing.T) {
	if got := NormalizeAxis(-32768); got != -1 {
		t.Errorf("NormalizeAxis(min) = %v", got)
	}
	if got := NormalizeTrigger(-32768, -32768, 32767); got != 0 {
		t.Errorf("NormalizeTrigger(min) = %v", got)
	}
	if got := NormalizeTrigger(32767, -32768, 32767); got != 1 {
		t.Errorf("NormalizeTrigger(max) = %v", got)
	}
	if got := ApplyDeadzone(0.04, 0.05); got != 0 {
		t.Errorf("ApplyDeadzone inside = %v", got)
	}
}

func TestGetMapping(t *testing.T) {
	if m := GetMapping(0x054C, 0x0CE6); m.Name != "playstation" {
		t.Errorf("DualSense mapped to %s", m.Name)
	}
	if m := GetMapping(0x1234, 0x5678); m.Name != "generic" {
		t.Errorf("unknown device mapped to %s", m.Name)
	}
}
