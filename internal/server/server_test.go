package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soar/chatpad/internal/chat"
	"github.com/soar/chatpad/internal/hub"
	"github.com/soar/chatpad/internal/input"
	"github.com/soar/chatpad/internal/telemetry"
)

type controls struct {
	calls chan string
}

func (c controls) ToggleTestMode()        { c.calls <- hub.MsgToggleTestMode }
func (c controls) ToggleVisibility()      { c.calls <- hub.MsgToggleVisibility }
func (c controls) SetThresholds(_, _ int) { c.calls <- hub.MsgSetThresholds }

type fixture struct {
	srv      *httptest.Server
	overlay  *hub.Overlay
	controls controls
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub()
	go h.Run(ctx)

	rec := telemetry.NewRecorder(10)
	rec.RecordCommand("+mlup", input.SectionJoystick)

	f := &fixture{
		overlay:  hub.NewOverlay(h, 200, 500),
		controls: controls{calls: make(chan string, 4)},
	}
	s := New("", Deps{
		Hub:       h,
		Overlay:   f.overlay,
		Controls:  f.controls,
		Bridge:    chat.NewBridge(nil),
		Telemetry: rec,
		FrontendFS: fstest.MapFS{
			"index.html": {Data: []byte("<!doctype html>\n<html>\n  <body>\n    <p id=\"status\">overlay</p>\n  </body>\n</html>\n")},
		},
	})
	f.srv = httptest.NewServer(s.Handler())
	t.Cleanup(f.srv.Close)
	return f
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestServeOverlayPage(t *testing.T) {
	f := newFixture(t)

	resp, body := get(t, f.srv.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "overlay") {
		t.Fatalf("body = %q", body)
	}
	if strings.Contains(body, "\n  ") {
		t.Fatalf("page not minified: %q", body)
	}
}

func TestServeInjector(t *testing.T) {
	f := newFixture(t)

	resp, body := get(t, f.srv.URL+"/injector.user.js")
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, jsMediaType) {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.HasPrefix(body, "// ==UserScript==") {
		t.Fatalf("missing userscript header: %q", body[:min(len(body), 80)])
	}
	want := strings.TrimPrefix(f.srv.URL, "http://") + "/chat"
	if !strings.Contains(body, want) {
		t.Fatalf("injector does not point at %s", want)
	}
	if strings.Contains(body, "__CHATPAD_") {
		t.Fatal("placeholder left in injector")
	}
}

func TestServeTelemetry(t *testing.T) {
	f := newFixture(t)

	resp, body := get(t, f.srv.URL+"/telemetry")
	if resp.Header.Get("Content-Type") != "application/yaml" {
		t.Fatalf("content type = %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(body, "total: 1") || !strings.Contains(body, "+mlup") {
		t.Fatalf("body = %s", body)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) hub.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg hub.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestOverlaySocket(t *testing.T) {
	f := newFixture(t)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msg := readMessage(t, conn)
	if msg.Type != "full" || msg.Data == nil || msg.Data.LongPressMs != 200 {
		t.Fatalf("initial message = %+v", msg)
	}

	data, _ := json.Marshal(hub.ClientMessage{Type: hub.MsgToggleTestMode})
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-f.controls.calls:
		if got != hub.MsgToggleTestMode {
			t.Fatalf("control = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("control message not handled")
	}

	f.overlay.SetLastCommand("B")
	msg = readMessage(t, conn)
	if msg.Type != "delta" || msg.Changes.LastCommand == nil || *msg.Changes.LastCommand != "B" {
		t.Fatalf("delta = %+v", msg)
	}
}

func TestShutdownWhileListening(t *testing.T) {
	s := New("127.0.0.1:0", Deps{Hub: hub.NewHub()})

	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Fatalf("ListenAndServe = %v, want ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ListenAndServe did not return")
	}
}
