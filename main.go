package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/pflag"

	"github.com/soar/chatpad/internal/chat"
	"github.com/soar/chatpad/internal/config"
	"github.com/soar/chatpad/internal/dispatch"
	"github.com/soar/chatpad/internal/gamepad"
	"github.com/soar/chatpad/internal/hub"
	"github.com/soar/chatpad/internal/input"
	"github.com/soar/chatpad/internal/server"
	"github.com/soar/chatpad/internal/sound"
	"github.com/soar/chatpad/internal/telemetry"
	"github.com/soar/chatpad/internal/tray"
	"github.com/soar/chatpad/internal/tui"
)

// Cross-platform signal handling: use os.Interrupt on all platforms
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// overlayControls routes overlay page requests: toggles go through the
// pipeline, thresholds straight to the settings.
type overlayControls struct {
	submit   func(input.Event)
	settings *config.Settings
}

func (c overlayControls) ToggleTestMode()   { c.submit(input.TestModeToggle{}) }
func (c overlayControls) ToggleVisibility() { c.submit(input.VisibilityToggle{}) }
func (c overlayControls) SetThresholds(longPressMs, longMoveMs int) {
	c.settings.Update(longPressMs, longMoveMs)
}

// overlayURL turns a listen address into a URL a local browser can open.
func overlayURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func main() {
	cfg, v, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	var logOut io.Writer = os.Stderr
	if cfg.TUI {
		// The panel owns the terminal.
		f, err := os.Create(filepath.Join(os.TempDir(), "chatpad.log"))
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	log.SetOutput(logFilter{w: logOut, verbose: cfg.Verbose})
	if used := v.ConfigFileUsed(); used != "" {
		log.Printf("Using config file %s", used)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)

	settings := config.NewSettings(v, cfg)
	if err := settings.Watch(ctx); err != nil {
		log.Printf("Config reload disabled: %v", err)
	}

	recorder := telemetry.NewRecorder(cfg.TelemetrySize)

	// The pipeline is created last; everything that feeds it goes through
	// submit.
	var pipeline *dispatch.Pipeline
	submit := func(ev input.Event) { pipeline.Submit(ev) }

	bridge := chat.NewBridge(func(key rune) { submit(input.KeyPress{Key: key}) })

	h := hub.NewHub()
	go h.Run(ctx)
	longPressMs, longMoveMs := settings.Thresholds()
	overlay := hub.NewOverlay(h, longPressMs, longMoveMs)
	settings.OnChange(overlay.SetThresholds)
	go overlay.Run(ctx)

	feedback := dispatch.Feedbacks{overlay}

	// Channel for shutdown requested from the tray or the terminal panel
	shutdownRequested := make(chan struct{})
	requestShutdown := func() {
		select {
		case <-shutdownRequested:
		default:
			close(shutdownRequested)
		}
	}

	url := overlayURL(cfg.Listen)

	var t *tray.Tray
	if cfg.Tray {
		t = tray.New(url, submit, requestShutdown)
		feedback = append(feedback, t)
	}

	var panel *tui.Panel
	if cfg.TUI {
		screen, err := tcell.NewScreen()
		if err != nil {
			log.Fatalf("Terminal error: %v", err)
		}
		panel = tui.New(screen, submit, requestShutdown)
		feedback = append(feedback, panel)
	}

	if cfg.Sound {
		clicker, err := sound.NewClicker()
		if err != nil {
			log.Printf("Sound disabled: %v", err)
		} else {
			defer clicker.Close()
			feedback = append(feedback, clicker)
		}
	}

	seq := dispatch.NewSequencer(bridge, recorder, feedback, dispatch.Options{
		RecoveryDelay: cfg.RecoveryDelay,
		SendTimeout:   cfg.SendTimeout,
	})
	pipeline = dispatch.NewPipeline(seq, settings, feedback)

	// Gamepad input
	readerDone := make(chan struct{})
	var source <-chan input.Event
	if cfg.Gamepad {
		reader := gamepad.NewReader(cfg.Deadzone)
		src := gamepad.NewSource(reader.Changes(), gamepad.NewTracker(cfg.StickThreshold))
		source = src.Events()
		go src.Run(ctx)
		// Run must be called from its own goroutine; it locks the OS thread
		go func() {
			defer close(readerDone)
			if err := reader.Run(ctx); err != nil {
				log.Printf("Gamepad input disabled: %v", err)
			}
		}()
	} else {
		close(readerDone)
	}

	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		pipeline.Run(ctx, source)
	}()

	srv := server.New(cfg.Listen, server.Deps{
		Hub:        h,
		Overlay:    overlay,
		Controls:   overlayControls{submit: submit, settings: settings},
		Bridge:     bridge,
		Telemetry:  recorder,
		FrontendFS: getFrontendFS(),
	})
	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	log.Printf("chatpad started: overlay %s, injector %s/injector.user.js", url, url)

	if t != nil {
		go t.Run(nil)
	}
	if panel != nil {
		go func() {
			if err := panel.Run(ctx); err != nil {
				log.Printf("Terminal panel error: %v", err)
			}
			requestShutdown()
		}()
	} else {
		log.Println("Press Ctrl+C to exit")
	}

	// Wait for shutdown signal, tray or panel request, or server error
	select {
	case <-sigCh:
		log.Println("Shutting down...")
	case <-shutdownRequested:
		log.Println("Shutdown requested")
	case err := <-serverErrCh:
		log.Printf("HTTP server error: %v", err)
	}
	cancel()

	<-readerDone
	<-pipelineDone

	// Shutdown the HTTP server gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if t != nil {
		t.Quit()
	}

	if cfg.TelemetryOut != "" {
		if err := recorder.SaveFile(cfg.TelemetryOut); err != nil {
			log.Printf("Failed to write telemetry: %v", err)
		} else {
			log.Printf("Telemetry written to %s", cfg.TelemetryOut)
		}
	}

	log.Println("chatpad stopped")
}
