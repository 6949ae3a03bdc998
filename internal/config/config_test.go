package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, _, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "localhost:8080" || cfg.LongPressMs != 200 || cfg.LongMoveMs != 500 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RecoveryDelay != 300*time.Millisecond || !cfg.Gamepad {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFlagsClamp(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, _, err := Load([]string{"--long-press", "10", "--long-move=5000", "--recovery-delay", "1s", "--tui"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LongPressMs != MinDurationMs || cfg.LongMoveMs != MaxDurationMs {
		t.Fatalf("thresholds not clamped: %+v", cfg)
	}
	if cfg.RecoveryDelay != time.Second || !cfg.TUI {
		t.Fatalf("flags not applied: %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chatpad.yaml")
	data := "long_press_ms: 120\nlong_move_ms: 700\nsend_timeout: 5s\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, v, err := Load([]string{"--config", path, "--long-move", "650"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LongPressMs != 120 {
		t.Errorf("long press = %d, want 120 from file", cfg.LongPressMs)
	}
	if cfg.LongMoveMs != 650 {
		t.Errorf("long move = %d, want 650 from flag", cfg.LongMoveMs)
	}
	if cfg.SendTimeout != 5*time.Second {
		t.Errorf("send timeout = %v", cfg.SendTimeout)
	}
	if v.ConfigFileUsed() != path {
		t.Errorf("config file used = %q", v.ConfigFileUsed())
	}
}

func TestLoadMissingExplicitConfig(t *testing.T) {
	if _, _, err := Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHATPAD_LONG_PRESS_MS", "333")

	cfg, _, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LongPressMs != 333 {
		t.Fatalf("long press = %d, want 333 from env", cfg.LongPressMs)
	}
}

func TestSettingsUpdate(t *testing.T) {
	s := NewSettings(viper.New(), &Config{LongPressMs: 200, LongMoveMs: 500})

	var calls int
	s.OnChange(func(lp, lm int) { calls++ })

	s.Update(20, 2000)
	if s.LongPressDuration() != 50*time.Millisecond || s.LongMoveDuration() != time.Second {
		t.Fatalf("thresholds = %v, %v", s.LongPressDuration(), s.LongMoveDuration())
	}
	s.Update(50, 1000)
	if calls != 1 {
		t.Fatalf("listener called %d times, want 1", calls)
	}
}

func TestSettingsPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatpad.yaml")
	if err := os.WriteFile(path, []byte("long_press_ms: 200\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, v, err := Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	NewSettings(v, cfg).Update(250, 750)

	reloaded, _, err := Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.LongPressMs != 250 || reloaded.LongMoveMs != 750 {
		t.Fatalf("persisted thresholds = %d, %d", reloaded.LongPressMs, reloaded.LongMoveMs)
	}
}

func TestClampMs(t *testing.T) {
	for in, want := range map[int]int{-1: 50, 50: 50, 400: 400, 1000: 1000, 1001: 1000} {
		if got := ClampMs(in); got != want {
			t.Errorf("ClampMs(%d) = %d, want %d", in, got, want)
		}
	}
}

func loadWithFile(t *testing.T, content string) (*Settings, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chatpad.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, v, err := Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return NewSettings(v, cfg), path
}

func TestSettingsConcurrentUpdatesWhileWatching(t *testing.T) {
	s, path := loadWithFile(t, "long_press_ms: 200\nlong_move_ms: 500\n")

	var torn atomic.Int32
	s.OnChange(func(lp, lm int) {
		if lm-lp != 200 {
			torn.Add(1)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 20 {
				s.Update(100+g*20+j, 300+g*20+j)
				if lp, lm := s.Thresholds(); lm-lp != 200 {
					torn.Add(1)
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 20 {
			s.reload()
		}
	}()
	wg.Wait()

	if n := torn.Load(); n != 0 {
		t.Fatalf("%d threshold pairs mixed values from different updates", n)
	}

	cfg, _, err := Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cfg.LongMoveMs-cfg.LongPressMs != 200 {
		t.Fatalf("persisted pair = %d, %d", cfg.LongPressMs, cfg.LongMoveMs)
	}
}

func TestSettingsWatchPicksUpEdits(t *testing.T) {
	s, path := loadWithFile(t, "long_press_ms: 200\nlong_move_ms: 500\nlisten: localhost:9000\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// A threshold edit from the overlay must not shadow later file edits.
	s.Update(250, 750)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "localhost:9000") {
		t.Fatalf("other keys lost on save:\n%s", data)
	}

	if err := os.WriteFile(path, []byte("long_press_ms: 120\nlong_move_ms: 640\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for {
		if lp, lm := s.Thresholds(); lp == 120 && lm == 640 {
			return
		}
		if time.Now().After(deadline) {
			lp, lm := s.Thresholds()
			t.Fatalf("thresholds = %d, %d after editing the file, want 120, 640", lp, lm)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSettingsWatchWithoutFile(t *testing.T) {
	s := NewSettings(viper.New(), &Config{LongPressMs: 200, LongMoveMs: 500})
	if err := s.Watch(context.Background()); err != nil {
		t.Fatalf("Watch: %v", err)
	}
}
