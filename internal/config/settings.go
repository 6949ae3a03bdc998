package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type thresholds struct {
	longPressMs int
	longMoveMs  int
}

// Settings holds the live thresholds. Reads are lock-free and always see a
// pair written together. Updates and reloads are serialized with every
// access to the backing viper instance, which is not safe for concurrent use.
type Settings struct {
	cur atomic.Pointer[thresholds]

	mu        sync.Mutex // guards v, writes to cur and listeners
	v         *viper.Viper
	listeners []func(longPressMs, longMoveMs int)
}

func NewSettings(v *viper.Viper, cfg *Config) *Settings {
	s := &Settings{v: v}
	s.cur.Store(&thresholds{
		longPressMs: ClampMs(cfg.LongPressMs),
		longMoveMs:  ClampMs(cfg.LongMoveMs),
	})
	return s
}

func (s *Settings) LongPressDuration() time.Duration {
	return time.Duration(s.cur.Load().longPressMs) * time.Millisecond
}

func (s *Settings) LongMoveDuration() time.Duration {
	return time.Duration(s.cur.Load().longMoveMs) * time.Millisecond
}

// Thresholds returns both thresholds in milliseconds.
func (s *Settings) Thresholds() (longPressMs, longMoveMs int) {
	t := s.cur.Load()
	return t.longPressMs, t.longMoveMs
}

// OnChange registers fn to run after every threshold change. fn runs with
// the settings locked and must not call back into Settings.
func (s *Settings) OnChange(fn func(longPressMs, longMoveMs int)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Update clamps and stores new thresholds and persists them when a config
// file is in use.
func (s *Settings) Update(longPressMs, longMoveMs int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lp, lm, changed := s.applyLocked(longPressMs, longMoveMs)
	if !changed || s.v == nil || s.v.ConfigFileUsed() == "" {
		return
	}
	if err := s.persistLocked(lp, lm); err != nil {
		log.Printf("Failed to save settings: %v", err)
	}
}

// persistLocked rewrites the thresholds in the config file, keeping its
// other keys. A separate viper holds only the file contents, so flags and
// env values are not copied into the file and later reloads are not shadowed
// by Set overrides.
func (s *Settings) persistLocked(lp, lm int) error {
	path := s.v.ConfigFileUsed()
	file := viper.New()
	file.SetConfigFile(path)
	if err := file.ReadInConfig(); err != nil {
		return err
	}
	file.Set(KeyLongPressMs, lp)
	file.Set(KeyLongMoveMs, lm)
	if err := file.WriteConfig(); err != nil {
		return err
	}
	return s.v.ReadInConfig()
}

func (s *Settings) applyLocked(longPressMs, longMoveMs int) (lp, lm int, changed bool) {
	next := &thresholds{longPressMs: ClampMs(longPressMs), longMoveMs: ClampMs(longMoveMs)}
	if *s.cur.Load() == *next {
		return next.longPressMs, next.longMoveMs, false
	}
	s.cur.Store(next)
	log.Printf("Thresholds: long press %dms, long move %dms", next.longPressMs, next.longMoveMs)

	for _, fn := range s.listeners {
		fn(next.longPressMs, next.longMoveMs)
	}
	return next.longPressMs, next.longMoveMs, true
}

// reload re-reads the config file and applies its thresholds.
func (s *Settings) reload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.v.ReadInConfig(); err != nil {
		// Editors often truncate before writing; the next event retries.
		log.Printf("[DEBUG] Config reload failed: %v", err)
		return
	}
	s.applyLocked(s.v.GetInt(KeyLongPressMs), s.v.GetInt(KeyLongMoveMs))
}

// Watch reloads the thresholds whenever the config file changes on disk,
// until ctx is done. It does nothing without a config file.
func (s *Settings) Watch(ctx context.Context) error {
	if s.v == nil || s.v.ConfigFileUsed() == "" {
		return nil
	}
	path := filepath.Clean(s.v.ConfigFileUsed())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	// Watch the directory so files replaced by rename are still seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("config: watch %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				log.Printf("[DEBUG] Config file changed: %s", ev.Name)
				s.reload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Config watcher error: %v", err)
			}
		}
	}()
	return nil
}
