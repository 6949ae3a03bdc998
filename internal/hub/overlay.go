package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Overlay keeps the overlay state and broadcasts every change to the hub.
// It receives the dispatcher's feedback.
type Overlay struct {
	hub *Hub

	mu         sync.Mutex
	state      State
	seq        int64
	deltaCount int
}

func NewOverlay(h *Hub, longPressMs, longMoveMs int) *Overlay {
	return &Overlay{
		hub: h,
		state: State{
			LastInput:          "N/A",
			LastCommandVisible: true,
			Visible:            true,
			LongPressMs:        longPressMs,
			LongMoveMs:         longMoveMs,
		},
	}
}

// State returns a copy of the current state.
func (o *Overlay) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Overlay) SetConnectionState(connected bool) {
	o.update(func(s *State) { s.Connected = connected })
}

func (o *Overlay) SetLastInput(text string) {
	o.update(func(s *State) { s.LastInput = text })
}

func (o *Overlay) SetLastCommandVisible(visible bool) {
	o.update(func(s *State) { s.LastCommandVisible = visible })
}

func (o *Overlay) SetLastCommand(text string) {
	o.update(func(s *State) { s.LastCommand = text })
}

func (o *Overlay) SetTestMode(on bool) {
	o.update(func(s *State) { s.TestMode = on })
}

func (o *Overlay) ToggleVisibility() {
	o.update(func(s *State) { s.Visible = !s.Visible })
}

// SetThresholds mirrors threshold changes made from any source.
func (o *Overlay) SetThresholds(longPressMs, longMoveMs int) {
	o.update(func(s *State) {
		s.LongPressMs = longPressMs
		s.LongMoveMs = longMoveMs
	})
}

func (o *Overlay) update(fn func(*State)) {
	o.mu.Lock()
	defer o.mu.Unlock()

	old := o.state
	fn(&o.state)
	delta := ComputeDelta(old, o.state)
	if delta.IsEmpty() {
		return
	}

	o.seq++
	o.deltaCount++
	if o.deltaCount >= deltaCountSync {
		o.deltaCount = 0
		o.broadcast(NewFullMessage(o.seq, &o.state))
		return
	}
	o.broadcast(NewDeltaMessage(o.seq, delta))
}

// Run sends a full state every few seconds until ctx is done.
func (o *Overlay) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.mu.Lock()
			o.seq++
			state := o.state
			o.broadcast(NewFullMessage(o.seq, &state))
			o.mu.Unlock()
		}
	}
}

// SendInitialState queues the current full state for a newly connected client.
func (o *Overlay) SendInitialState(c *Client) {
	o.mu.Lock()
	o.seq++
	state := o.state
	data, err := json.Marshal(NewFullMessage(o.seq, &state))
	o.mu.Unlock()
	if err != nil {
		log.Printf("Error marshaling initial state: %v", err)
		return
	}
	if !o.hub.Send(c, data) {
		log.Printf("[DEBUG] Initial state not queued")
	}
}

func (o *Overlay) broadcast(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", msg.Type, err)
		return
	}
	o.hub.Broadcast(data)
}
