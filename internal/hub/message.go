package hub

import "time"

// State is what the overlay page shows.
type State struct {
	Connected          bool   `json:"connected"`
	LastInput          string `json:"lastInput"`
	LastCommand        string `json:"lastCommand"`
	LastCommandVisible bool   `json:"lastCommandVisible"`
	TestMode           bool   `json:"testMode"`
	Visible            bool   `json:"visible"`
	LongPressMs        int    `json:"longPressMs"`
	LongMoveMs         int    `json:"longMoveMs"`
}

// StateDelta carries only the fields that changed.
type StateDelta struct {
	Connected          *bool   `json:"connected,omitempty"`
	LastInput          *string `json:"lastInput,omitempty"`
	LastCommand        *string `json:"lastCommand,omitempty"`
	LastCommandVisible *bool   `json:"lastCommandVisible,omitempty"`
	TestMode           *bool   `json:"testMode,omitempty"`
	Visible            *bool   `json:"visible,omitempty"`
	LongPressMs        *int    `json:"longPressMs,omitempty"`
	LongMoveMs         *int    `json:"longMoveMs,omitempty"`
}

// IsEmpty reports whether nothing changed.
func (d *StateDelta) IsEmpty() bool {
	return *d == StateDelta{}
}

func changed[T comparable](old, cur T) *T {
	if old == cur {
		return nil
	}
	return &cur
}

// ComputeDelta returns the fields of cur that differ from old.
func ComputeDelta(old, cur State) *StateDelta {
	return &StateDelta{
		Connected:          changed(old.Connected, cur.Connected),
		LastInput:          changed(old.LastInput, cur.LastInput),
		LastCommand:        changed(old.LastCommand, cur.LastCommand),
		LastCommandVisible: changed(old.LastCommandVisible, cur.LastCommandVisible),
		TestMode:           changed(old.TestMode, cur.TestMode),
		Visible:            changed(old.Visible, cur.Visible),
		LongPressMs:        changed(old.LongPressMs, cur.LongPressMs),
		LongMoveMs:         changed(old.LongMoveMs, cur.LongMoveMs),
	}
}

// WSMessage is a message sent from the server to an overlay page.
type WSMessage struct {
	Type      string      `json:"type"` // "full" or "delta"
	Seq       int64       `json:"seq"`
	Timestamp int64       `json:"timestamp"` // Unix milliseconds
	Data      *State      `json:"data,omitempty"`
	Changes   *StateDelta `json:"changes,omitempty"`
}

func NewFullMessage(seq int64, state *State) *WSMessage {
	return &WSMessage{
		Type:      "full",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Data:      state,
	}
}

func NewDeltaMessage(seq int64, changes *StateDelta) *WSMessage {
	return &WSMessage{
		Type:      "delta",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Changes:   changes,
	}
}

// Client message types.
const (
	MsgToggleTestMode   = "toggle_test_mode"
	MsgToggleVisibility = "toggle_visibility"
	MsgSetThresholds    = "set_thresholds"
)

// ClientMessage is a message sent from an overlay page to the server.
type ClientMessage struct {
	Type        string `json:"type"`
	LongPressMs int    `json:"longPressMs,omitempty"`
	LongMoveMs  int    `json:"longMoveMs,omitempty"`
}
