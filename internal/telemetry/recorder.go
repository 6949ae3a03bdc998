// Package telemetry keeps a record of the commands that reached the chat.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soar/chatpad/internal/input"
)

const DefaultSize = 500

// Entry is one recorded command.
type Entry struct {
	Time    time.Time     `yaml:"time" json:"time"`
	Command string        `yaml:"command" json:"command"`
	Section input.Section `yaml:"section" json:"section"`
}

// Count is how often a command was sent, case-insensitively.
type Count struct {
	Command string `yaml:"command" json:"command"`
	Count   int    `yaml:"count" json:"count"`
}

// Snapshot is a point-in-time copy of the recorder.
type Snapshot struct {
	Enabled  bool                  `yaml:"enabled" json:"enabled"`
	Total    int                   `yaml:"total" json:"total"`
	Sections map[input.Section]int `yaml:"sections" json:"sections"`
	Commands []Count               `yaml:"commands" json:"commands"`
	Recent   []Entry               `yaml:"recent" json:"recent"`
}

// Recorder stores the most recent commands in a ring and keeps running
// counts per section and per command.
type Recorder struct {
	mu       sync.Mutex
	enabled  bool
	size     int
	ring     []Entry
	next     int
	total    int
	sections map[input.Section]int
	commands map[string]int
	now      func() time.Time
}

func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Recorder{
		enabled:  true,
		size:     size,
		ring:     make([]Entry, 0, size),
		sections: make(map[input.Section]int),
		commands: make(map[string]int),
		now:      time.Now,
	}
}

func (r *Recorder) Enable() {
	r.mu.Lock()
	r.enabled = true
	r.mu.Unlock()
}

func (r *Recorder) Disable() {
	r.mu.Lock()
	r.enabled = false
	r.mu.Unlock()
}

// RecordCommand stores text unless the recorder is disabled.
func (r *Recorder) RecordCommand(text string, section input.Section) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}

	e := Entry{Time: r.now(), Command: text, Section: section}
	if len(r.ring) < r.size {
		r.ring = append(r.ring, e)
	} else {
		r.ring[r.next] = e
	}
	r.next = (r.next + 1) % r.size
	r.total++
	r.sections[section]++
	r.commands[strings.ToUpper(text)]++
}

// Snapshot returns the recent entries, oldest first, and the counters, most
// frequent command first.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Enabled:  r.enabled,
		Total:    r.total,
		Sections: make(map[input.Section]int, len(r.sections)),
		Commands: make([]Count, 0, len(r.commands)),
		Recent:   make([]Entry, 0, len(r.ring)),
	}
	for k, v := range r.sections {
		s.Sections[k] = v
	}
	for k, v := range r.commands {
		s.Commands = append(s.Commands, Count{Command: k, Count: v})
	}
	sort.Slice(s.Commands, func(i, j int) bool {
		if s.Commands[i].Count != s.Commands[j].Count {
			return s.Commands[i].Count > s.Commands[j].Count
		}
		return s.Commands[i].Command < s.Commands[j].Command
	})

	if len(r.ring) < r.size {
		s.Recent = append(s.Recent, r.ring...)
	} else {
		s.Recent = append(s.Recent, r.ring[r.next:]...)
		s.Recent = append(s.Recent, r.ring[:r.next]...)
	}
	return s
}

// WriteYAML encodes the current snapshot as YAML.
func (r *Recorder) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.Snapshot()); err != nil {
		return fmt.Errorf("telemetry: encode: %w", err)
	}
	return enc.Close()
}

// SaveFile writes the YAML snapshot to path.
func (r *Recorder) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if err := r.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
