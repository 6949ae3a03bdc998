// Package server exposes the overlay page, the overlay and chat bridge
// sockets, the injector script and the telemetry export over HTTP.
package server

import (
	"context"
	"io"
	"io/fs"
	"log"
	"net/http"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/soar/chatpad/internal/hub"
)

// YAMLWriter is the export side of the telemetry recorder.
type YAMLWriter interface {
	WriteYAML(w io.Writer) error
}

// Deps are the components the server routes to. Bridge serves the
// injector's WebSocket.
type Deps struct {
	Hub        *hub.Hub
	Overlay    *hub.Overlay
	Controls   hub.Controls
	Bridge     http.Handler
	Telemetry  YAMLWriter
	FrontendFS fs.FS
}

type Server struct {
	deps       Deps
	addr       string
	minifier   *minify.M
	httpServer *http.Server
}

func New(addr string, deps Deps) *Server {
	s := &Server{
		deps:     deps,
		addr:     addr,
		minifier: newMinifier(),
	}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Overlay WebSocket
	mux.HandleFunc("/ws", handleWebSocket(s.deps.Hub, s.deps.Overlay, s.deps.Controls))

	// Chat bridge WebSocket and the userscript that connects to it
	if s.deps.Bridge != nil {
		mux.Handle("/chat", s.deps.Bridge)
	}
	mux.HandleFunc("/injector.user.js", handleInjector(s.minifier))

	if s.deps.Telemetry != nil {
		mux.HandleFunc("/telemetry", handleTelemetry(s.deps.Telemetry))
	}

	// Static files (overlay page)
	if s.deps.FrontendFS != nil {
		mux.Handle("/", s.minifier.Middleware(http.FileServer(http.FS(s.deps.FrontendFS))))
	}
	return mux
}

func (s *Server) ListenAndServe() error {
	log.Printf("HTTP server listening on %s", s.addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
