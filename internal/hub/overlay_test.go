package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub()
	go h.Run(ctx)
	return h
}

func recv(t *testing.T, c *Client) WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message")
	}
	return WSMessage{}
}

func TestOverlayInitialState(t *testing.T) {
	h := startHub(t)
	o := NewOverlay(h, 200, 500)
	c := &Client{hub: h, send: make(chan []byte, 8)}
	if !h.Register(c) {
		t.Fatal("hub stopped")
	}

	o.SendInitialState(c)
	msg := recv(t, c)
	if msg.Type != "full" || msg.Data == nil {
		t.Fatalf("got %+v", msg)
	}
	want := State{LastInput: "N/A", LastCommandVisible: true, Visible: true, LongPressMs: 200, LongMoveMs: 500}
	if *msg.Data != want {
		t.Fatalf("state = %+v, want %+v", *msg.Data, want)
	}
}

func TestOverlayInitialStateAfterHubStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	go h.Run(ctx)
	o := NewOverlay(h, 200, 500)
	c := &Client{hub: h, send: make(chan []byte, 8)}
	if !h.Register(c) {
		t.Fatal("hub stopped")
	}

	cancel()
	<-h.done

	// The hub closed the client's queue on exit; this must not send on it.
	o.SendInitialState(c)
	if _, ok := <-c.send; ok {
		t.Fatal("message queued to a client of a stopped hub")
	}
	if h.Send(c, []byte("x")) {
		t.Fatal("Send succeeded after the hub stopped")
	}
}

func TestOverlayBroadcastsDeltas(t *testing.T) {
	h := startHub(t)
	o := NewOverlay(h, 200, 500)
	c := &Client{hub: h, send: make(chan []byte, 8)}
	if !h.Register(c) {
		t.Fatal("hub stopped")
	}

	o.SetLastCommand("A")
	msg := recv(t, c)
	if msg.Type != "delta" || msg.Changes.LastCommand == nil || *msg.Changes.LastCommand != "A" {
		t.Fatalf("got %+v", msg)
	}
	first := msg.Seq

	// No change, no message.
	o.SetLastCommand("A")
	o.SetTestMode(true)
	msg = recv(t, c)
	if msg.Changes.TestMode == nil || !*msg.Changes.TestMode || msg.Changes.LastCommand != nil {
		t.Fatalf("got %+v", msg.Changes)
	}
	if msg.Seq != first+1 {
		t.Fatalf("seq = %d, want %d", msg.Seq, first+1)
	}

	o.ToggleVisibility()
	if msg = recv(t, c); msg.Changes.Visible == nil || *msg.Changes.Visible {
		t.Fatalf("visibility delta = %+v", msg.Changes)
	}
	if s := o.State(); s.Visible || !s.TestMode || s.LastCommand != "A" {
		t.Fatalf("state = %+v", s)
	}
}

func TestOverlayFullSyncAfterDeltas(t *testing.T) {
	h := startHub(t)
	o := NewOverlay(h, 200, 500)
	c := &Client{hub: h, send: make(chan []byte, deltaCountSync+1)}
	h.Register(c)

	for i := range deltaCountSync {
		o.SetLastInput(string(rune('a'+i%26)) + string(rune('0'+i%10)))
	}
	var last WSMessage
	for range deltaCountSync {
		last = recv(t, c)
	}
	if last.Type != "full" {
		t.Fatalf("message %d type = %q, want full", deltaCountSync, last.Type)
	}
}

type fakeControls struct {
	calls chan string
	lp    int
	lm    int
}

func (f *fakeControls) ToggleTestMode()   { f.calls <- MsgToggleTestMode }
func (f *fakeControls) ToggleVisibility() { f.calls <- MsgToggleVisibility }
func (f *fakeControls) SetThresholds(lp, lm int) {
	f.lp, f.lm = lp, lm
	f.calls <- MsgSetThresholds
}

func TestHandleClientMessage(t *testing.T) {
	f := &fakeControls{calls: make(chan string, 4)}
	handleClientMessage(f, ClientMessage{Type: MsgToggleTestMode})
	handleClientMessage(f, ClientMessage{Type: MsgToggleVisibility})
	handleClientMessage(f, ClientMessage{Type: MsgSetThresholds, LongPressMs: 150, LongMoveMs: 800})
	handleClientMessage(f, ClientMessage{Type: "select_player"})

	for _, want := range []string{MsgToggleTestMode, MsgToggleVisibility, MsgSetThresholds} {
		if got := <-f.calls; got != want {
			t.Fatalf("call = %q, want %q", got, want)
		}
	}
	if len(f.calls) != 0 {
		t.Fatal("unknown message reached the controls")
	}
	if f.lp != 150 || f.lm != 800 {
		t.Fatalf("thresholds = %d, %d", f.lp, f.lm)
	}
}
