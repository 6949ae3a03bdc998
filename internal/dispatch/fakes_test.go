package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/soar/chatpad/internal/input"
)

type fakeChat struct {
	mu          sync.Mutex
	ready       bool
	errorShown  bool
	hasClose    bool
	sendErr     error
	clearErr    error
	sent        []string
	clears      int
	closeClicks int
}

func (c *fakeChat) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *fakeChat) HasErrorIndicator(context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorShown
}

func (c *fakeChat) Send(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, text)
	return nil
}

func (c *fakeChat) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
	return c.clearErr
}

func (c *fakeChat) CloseErrorPopup(context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasClose {
		return false, nil
	}
	c.closeClicks++
	c.errorShown = false
	return true, nil
}

func (c *fakeChat) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

type record struct {
	text    string
	section input.Section
}

type fakeTelemetry struct {
	enabled bool
	records []record
}

func (t *fakeTelemetry) RecordCommand(text string, section input.Section) {
	if t.enabled {
		t.records = append(t.records, record{text, section})
	}
}

func (t *fakeTelemetry) Enable()  { t.enabled = true }
func (t *fakeTelemetry) Disable() { t.enabled = false }

type fakeFeedback struct {
	connected          bool
	lastInput          string
	lastCommand        string
	lastCommandVisible bool
	testMode           bool
	visibilityToggles  int
	commandUpdates     int
}

func (f *fakeFeedback) SetConnectionState(c bool)    { f.connected = c }
func (f *fakeFeedback) SetLastInput(s string)        { f.lastInput = s }
func (f *fakeFeedback) SetLastCommandVisible(v bool) { f.lastCommandVisible = v }
func (f *fakeFeedback) SetLastCommand(s string) {
	f.lastCommand = s
	f.commandUpdates++
}
func (f *fakeFeedback) SetTestMode(on bool) { f.testMode = on }
func (f *fakeFeedback) ToggleVisibility()   { f.visibilityToggles++ }

type fakeSettings struct {
	longPress, longMove time.Duration
}

func (s fakeSettings) LongPressDuration() time.Duration { return s.longPress }
func (s fakeSettings) LongMoveDuration() time.Duration  { return s.longMove }

// scheduler captures scheduled recovery checks so tests can run them
// explicitly.
type scheduler struct {
	delays []time.Duration
	funcs  []func()
}

func (s *scheduler) AfterFunc(d time.Duration, f func()) {
	s.delays = append(s.delays, d)
	s.funcs = append(s.funcs, f)
}

func (s *scheduler) runAll() {
	funcs := s.funcs
	s.funcs = nil
	for _, f := range funcs {
		f()
	}
}

var errSend = errors.New("socket closed")

type harness struct {
	chat      *fakeChat
	telemetry *fakeTelemetry
	feedback  *fakeFeedback
	sched     *scheduler
	seq       *Sequencer
}

func newHarness() *harness {
	h := &harness{
		chat:      &fakeChat{ready: true, hasClose: true},
		telemetry: &fakeTelemetry{enabled: true},
		feedback:  &fakeFeedback{},
		sched:     &scheduler{},
	}
	h.seq = NewSequencer(h.chat, h.telemetry, h.feedback, Options{AfterFunc: h.sched.AfterFunc})
	return h
}
