package chat

// Request types sent to the injector.
const (
	TypeSend       = "send"
	TypeClear      = "clear"
	TypeClosePopup = "close_popup"
	TypeProbe      = "probe"
)

// Message types received from the injector.
const (
	TypeAck    = "ack"
	TypeStatus = "status"
	TypeKey    = "key"
)

// Request is a command for the injector running in the chat page.
type Request struct {
	Type string `json:"type"`
	ID   uint64 `json:"id"`
	Text string `json:"text,omitempty"`
}

// PageMessage is anything the injector sends back.
type PageMessage struct {
	Type string `json:"type"`
	ID   uint64 `json:"id,omitempty"`

	// ack
	OK    bool `json:"ok,omitempty"`
	Found bool `json:"found,omitempty"`

	// status and probe ack
	Ready bool `json:"ready,omitempty"`
	Error bool `json:"error,omitempty"`

	// key
	Key string `json:"key,omitempty"`
}
