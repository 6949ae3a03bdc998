package server

import (
	"bytes"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/tdewolff/minify/v2"

	"github.com/soar/chatpad/internal/chat"
	"github.com/soar/chatpad/internal/hub"
)

const jsMediaType = "application/javascript"

const userscriptHeader = `// ==UserScript==
// @name         chatpad injector
// @match        https://www.twitch.tv/*
// @grant        none
// @run-at       document-idle
// ==/UserScript==
`

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local use
	},
}

func handleWebSocket(h *hub.Hub, o *hub.Overlay, controls hub.Controls) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := hub.NewClient(h, conn)
		if !h.Register(client) {
			conn.Close()
			return
		}

		// Send current state to the new client
		o.SendInitialState(client)

		go client.WritePump()
		go client.ReadPump(controls)
	}
}

// handleInjector serves the userscript pointed at this server's /chat.
func handleInjector(m *minify.M) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src := chat.InjectorScript(bridgeURL(r))
		out, err := m.Bytes(jsMediaType, src)
		if err != nil {
			log.Printf("Injector minify failed, serving source: %v", err)
			out = src
		}
		w.Header().Set("Content-Type", jsMediaType+"; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		io.WriteString(w, userscriptHeader)
		w.Write(out)
	}
}

func bridgeURL(r *http.Request) string {
	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}
	return scheme + "://" + r.Host + "/chat"
}

func handleTelemetry(t YAMLWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := t.WriteYAML(&buf); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(buf.Bytes())
	}
}
