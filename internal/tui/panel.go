// Package tui draws a status panel in the terminal and turns key presses into
// input events.
package tui

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/soar/chatpad/internal/input"
)

var (
	styleTitle = tcell.StyleDefault.Bold(true)
	styleLabel = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleOn    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleOff   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleText  = tcell.StyleDefault
)

type status struct {
	connected          bool
	lastInput          string
	lastCommand        string
	lastCommandVisible bool
	testMode           bool
	visible            bool
}

type line struct {
	label string
	value string
	style tcell.Style
}

// Panel implements the dispatcher feedback on a tcell screen.
type Panel struct {
	screen tcell.Screen
	submit func(input.Event)
	quit   func()

	mu sync.Mutex
	st status
}

// New creates a panel. submit receives digit key presses and test mode
// toggles; quit is called on Esc or Ctrl+C.
func New(screen tcell.Screen, submit func(input.Event), quit func()) *Panel {
	return &Panel{
		screen: screen,
		submit: submit,
		quit:   quit,
		st: status{
			lastInput:          "N/A",
			lastCommandVisible: true,
			visible:            true,
		},
	}
}

func (p *Panel) SetConnectionState(connected bool) {
	p.update(func(s *status) { s.connected = connected })
}

func (p *Panel) SetLastInput(text string) {
	p.update(func(s *status) { s.lastInput = text })
}

func (p *Panel) SetLastCommandVisible(visible bool) {
	p.update(func(s *status) { s.lastCommandVisible = visible })
}

func (p *Panel) SetLastCommand(text string) {
	p.update(func(s *status) { s.lastCommand = text })
}

func (p *Panel) SetTestMode(on bool) {
	p.update(func(s *status) { s.testMode = on })
}

func (p *Panel) ToggleVisibility() {
	p.update(func(s *status) { s.visible = !s.visible })
}

func (p *Panel) update(fn func(*status)) {
	p.mu.Lock()
	fn(&p.st)
	p.mu.Unlock()
	// Redraw happens on the Run goroutine.
	_ = p.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// Run owns the screen until ctx is done or the user quits.
func (p *Panel) Run(ctx context.Context) error {
	if err := p.screen.Init(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	defer p.screen.Fini()
	p.screen.HideCursor()

	go func() {
		<-ctx.Done()
		_ = p.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	p.draw()
	for {
		ev := p.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return nil
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			p.screen.Sync()
			p.draw()
		case *tcell.EventInterrupt:
			p.draw()
		case *tcell.EventKey:
			if !p.handleKey(ev) {
				return nil
			}
		}
	}
}

// handleKey reports false when the panel should close.
func (p *Panel) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		p.quit()
		return false
	case tcell.KeyCtrlT:
		p.submit(input.TestModeToggle{})
	case tcell.KeyRune:
		if ev.Modifiers()&tcell.ModCtrl != 0 {
			switch ev.Rune() {
			case 't', 'T':
				p.submit(input.TestModeToggle{})
			case 'c', 'C':
				p.quit()
				return false
			}
			return true
		}
		if ev.Rune() == input.KeyToggleVisibility {
			p.submit(input.VisibilityToggle{})
			return true
		}
		if _, ok := input.Digit(ev.Rune()); ok {
			p.submit(input.KeyPress{Key: ev.Rune()})
		}
	}
	return true
}

func onOff(b bool, on, off string) (string, tcell.Style) {
	if b {
		return on, styleOn
	}
	return off, styleOff
}

func (p *Panel) lines() []line {
	p.mu.Lock()
	st := p.st
	p.mu.Unlock()

	var out []line
	v, s := onOff(st.connected, "connected", "disconnected")
	out = append(out, line{"Controller", v, s})
	out = append(out, line{"Last input", st.lastInput, styleText})

	cmd := st.lastCommand
	switch {
	case !st.visible:
		cmd = "(overlay hidden)"
	case !st.lastCommandVisible:
		cmd = "(test mode)"
	}
	out = append(out, line{"Last command", cmd, styleText})

	v, s = onOff(st.testMode, "on", "off")
	out = append(out, line{"Test mode", v, s})
	v, s = onOff(st.visible, "shown", "hidden")
	out = append(out, line{"Overlay", v, s})
	return out
}

func (p *Panel) draw() {
	p.screen.Clear()
	putString(p.screen, 1, 0, "chatpad", styleTitle)
	for i, l := range p.lines() {
		y := i + 2
		putString(p.screen, 1, y, l.label+":", styleLabel)
		putString(p.screen, 16, y, l.value, l.style)
	}
	putString(p.screen, 1, 8, "Keys "+input.DigitKeys+" send 1-12, ² overlay, Ctrl+T test mode, Esc quit", styleLabel)
	p.screen.Show()
}

func putString(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
