// Package tray shows the system tray icon and menu.
package tray

import (
	"log"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"fyne.io/systray"

	"github.com/soar/chatpad/internal/dispatch"
	"github.com/soar/chatpad/internal/input"
)

const appName = "chatpad"

// ShutdownFunc is called when "Exit" is clicked
type ShutdownFunc func()

// Tray manages the system tray icon and menu. It also follows the dispatcher
// feedback to keep the test mode checkbox and tooltip current.
type Tray struct {
	dispatch.NopFeedback

	url          string
	submit       func(input.Event)
	shutdownFunc ShutdownFunc
	once         sync.Once
	shuttingDown atomic.Bool

	mu           sync.Mutex
	ready        bool
	testMode     bool
	connected    bool
	menuOpen     *systray.MenuItem
	menuInjector *systray.MenuItem
	menuTestMode *systray.MenuItem
	menuExit     *systray.MenuItem
}

// New creates a tray for the overlay at url. Test mode clicks are sent to
// submit.
func New(url string, submit func(input.Event), shutdownFn ShutdownFunc) *Tray {
	return &Tray{
		url:          url,
		submit:       submit,
		shutdownFunc: shutdownFn,
	}
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run(iconData []byte) {
	systray.Run(func() {
		t.onReady(iconData)
	}, func() {
		t.onExit()
	})
}

// Quit removes the tray icon.
func (t *Tray) Quit() {
	if t.shuttingDown.CompareAndSwap(false, true) {
		systray.Quit()
	}
}

func (t *Tray) onReady(iconData []byte) {
	if iconData != nil {
		systray.SetIcon(iconData)
	}
	systray.SetTitle(appName)

	t.mu.Lock()
	t.menuOpen = systray.AddMenuItem("Open overlay", "Open the overlay page")
	t.menuInjector = systray.AddMenuItem("Install injector", "Open the chat injector userscript")
	systray.AddSeparator()
	t.menuTestMode = systray.AddMenuItemCheckbox("Test mode", "Show commands without sending them", t.testMode)
	systray.AddSeparator()
	t.menuExit = systray.AddMenuItem("Exit", "Quit application")
	t.ready = true
	systray.SetTooltip(t.tooltip())
	t.mu.Unlock()

	// Handle menu clicks in separate goroutines to prevent blocking
	go t.handleMenuClicks()

	log.Println("System tray initialized")
}

func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuOpen.ClickedCh:
			if !t.shuttingDown.Load() {
				openBrowser(t.url)
			}
		case <-t.menuInjector.ClickedCh:
			if !t.shuttingDown.Load() {
				openBrowser(t.url + "/injector.user.js")
			}
		case <-t.menuTestMode.ClickedCh:
			// The checkbox follows SetTestMode once the dispatcher applies it.
			t.submit(input.TestModeToggle{})
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				t.once.Do(t.shutdownFunc)
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	log.Println("System tray exiting")
}

func (t *Tray) SetTestMode(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.testMode = on
	if !t.ready {
		return
	}
	if on {
		t.menuTestMode.Check()
	} else {
		t.menuTestMode.Uncheck()
	}
	systray.SetTooltip(t.tooltip())
}

func (t *Tray) SetConnectionState(connected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = connected
	if t.ready {
		systray.SetTooltip(t.tooltip())
	}
}

func (t *Tray) tooltip() string {
	return tooltip(t.url, t.connected, t.testMode)
}

func tooltip(url string, connected, testMode bool) string {
	s := appName + " - " + url
	if !connected {
		s += " (no controller)"
	}
	if testMode {
		s += " [test mode]"
	}
	return s
}

// openCommand returns the program and arguments that open url in the
// default browser.
func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	default:
		return "xdg-open", []string{url}
	}
}

func openBrowser(url string) {
	name, args := openCommand(runtime.GOOS, url)
	if err := exec.Command(name, args...).Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
