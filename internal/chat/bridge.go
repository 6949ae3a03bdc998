// Package chat drives the host chat box through an injector script running in
// the chat page. The script connects back over a WebSocket; every operation is
// a request answered by an ack carrying the same id.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/lxzan/gws"
)

var (
	ErrNotConnected = errors.New("chat: injector not connected")
	ErrTimeout      = errors.New("chat: injector did not answer")
	ErrRejected     = errors.New("chat: injector rejected request")
)

type writer interface {
	WriteMessage(opcode gws.Opcode, payload []byte) error
}

// Bridge implements the chat surface on top of the injector connection. Only
// one injector is served at a time; a new connection replaces the old one.
type Bridge struct {
	gws.BuiltinEventHandler

	upgrader *gws.Upgrader
	onKey    func(rune)
	nextID   atomic.Uint64

	mu         sync.Mutex
	conn       writer
	ready      bool
	errorShown bool
	pending    map[uint64]chan PageMessage
}

// NewBridge creates a bridge. onKey, if set, receives keys forwarded by the
// page.
func NewBridge(onKey func(rune)) *Bridge {
	b := &Bridge{
		onKey:   onKey,
		pending: make(map[uint64]chan PageMessage),
	}
	b.upgrader = gws.NewUpgrader(b, &gws.ServerOption{
		Recovery: gws.Recovery,
	})
	return b
}

// ServeHTTP upgrades the injector connection.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := b.upgrader.Upgrade(w, r)
	if err != nil {
		log.Printf("Chat bridge upgrade failed: %v", err)
		return
	}
	go socket.ReadLoop()
}

func (b *Bridge) OnOpen(socket *gws.Conn) {
	log.Println("Chat injector connected")
	if old := b.attach(socket); old != nil {
		if c, ok := old.(*gws.Conn); ok {
			c.WriteClose(1000, []byte("replaced"))
		}
	}
}

func (b *Bridge) OnClose(socket *gws.Conn, err error) {
	if b.detach(socket) {
		log.Printf("Chat injector disconnected: %v", err)
	}
}

func (b *Bridge) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	b.handle(message.Bytes())
}

// attach makes w the active injector and returns the one it replaces.
func (b *Bridge) attach(w writer) writer {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.conn
	b.conn = w
	b.ready = false
	b.errorShown = false
	b.failPending()
	return old
}

// detach forgets w if it is still the active injector.
func (b *Bridge) detach(w writer) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != w {
		return false
	}
	b.conn = nil
	b.ready = false
	b.failPending()
	return true
}

// failPending wakes every waiter with a closed channel. Callers hold b.mu.
func (b *Bridge) failPending() {
	for id, ch := range b.pending {
		close(ch)
		delete(b.pending, id)
	}
}

func (b *Bridge) handle(data []byte) {
	var msg PageMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error parsing injector message: %v", err)
		return
	}

	switch msg.Type {
	case TypeAck:
		b.mu.Lock()
		ch, ok := b.pending[msg.ID]
		delete(b.pending, msg.ID)
		b.mu.Unlock()
		if ok {
			ch <- msg
		}

	case TypeStatus:
		b.mu.Lock()
		changed := b.ready != msg.Ready
		b.ready = msg.Ready
		b.errorShown = msg.Error
		b.mu.Unlock()
		if changed {
			log.Printf("Chat ready: %v", msg.Ready)
		}

	case TypeKey:
		r := []rune(msg.Key)
		if len(r) == 1 && b.onKey != nil {
			b.onKey(r[0])
		}

	default:
		log.Printf("[DEBUG] Unknown injector message type %q", msg.Type)
	}
}

func (b *Bridge) call(ctx context.Context, typ, text string) (PageMessage, error) {
	id := b.nextID.Add(1)
	ch := make(chan PageMessage, 1)

	b.mu.Lock()
	conn := b.conn
	if conn == nil {
		b.mu.Unlock()
		return PageMessage{}, ErrNotConnected
	}
	b.pending[id] = ch
	b.mu.Unlock()
	defer b.forget(id)

	data, err := json.Marshal(Request{Type: typ, ID: id, Text: text})
	if err != nil {
		return PageMessage{}, err
	}
	if err := conn.WriteMessage(gws.OpcodeText, data); err != nil {
		return PageMessage{}, fmt.Errorf("chat: write %s: %w", typ, err)
	}

	select {
	case msg, ok := <-ch:
		if !ok {
			return PageMessage{}, ErrNotConnected
		}
		if !msg.OK {
			return msg, fmt.Errorf("%w: %s", ErrRejected, typ)
		}
		return msg, nil
	case <-ctx.Done():
		return PageMessage{}, fmt.Errorf("%w: %s: %v", ErrTimeout, typ, ctx.Err())
	}
}

func (b *Bridge) forget(id uint64) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// Connected reports whether an injector is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// Ready reports whether the injector found the chat input and send button.
func (b *Bridge) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && b.ready
}

// HasErrorIndicator asks the page whether the host error tray is open. If
// the page does not answer, the last reported status is used.
func (b *Bridge) HasErrorIndicator(ctx context.Context) bool {
	msg, err := b.call(ctx, TypeProbe, "")
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		return b.errorShown
	}
	b.ready = msg.Ready
	b.errorShown = msg.Error
	return msg.Error
}

func (b *Bridge) Send(ctx context.Context, text string) error {
	_, err := b.call(ctx, TypeSend, text)
	return err
}

func (b *Bridge) Clear(ctx context.Context) error {
	_, err := b.call(ctx, TypeClear, "")
	return err
}

func (b *Bridge) CloseErrorPopup(ctx context.Context) (bool, error) {
	msg, err := b.call(ctx, TypeClosePopup, "")
	if err != nil {
		return false, err
	}
	return msg.Found, nil
}
