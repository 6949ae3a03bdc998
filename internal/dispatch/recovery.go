package dispatch

import (
	"context"
	"log"
)

// Recovery clears a host-side rate-limit notice so the next command can go
// through. It runs once per dispatched command and never retries.
type Recovery struct {
	chat ChatSurface
}

func NewRecovery(chat ChatSurface) *Recovery {
	return &Recovery{chat: chat}
}

// Check clears the chat input and closes the error popup if the host shows
// an error notice. It reports whether it acted.
func (r *Recovery) Check(ctx context.Context) bool {
	if !r.chat.HasErrorIndicator(ctx) {
		return false
	}

	log.Println("Chat error detected, clearing input")
	// The popup can be up without an input to erase; close it regardless.
	if err := r.chat.Clear(ctx); err != nil {
		log.Printf("Chat recovery: clear failed: %v", err)
	}

	closed, err := r.chat.CloseErrorPopup(ctx)
	if err != nil {
		log.Printf("Chat recovery: close popup failed: %v", err)
		return true
	}
	if !closed {
		log.Println("[DEBUG] Chat recovery: no close control")
	}
	return true
}
