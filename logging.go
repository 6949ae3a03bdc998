package main

import (
	"bytes"
	"io"
)

var debugTag = []byte("[DEBUG]")

// logFilter drops "[DEBUG]" lines unless verbose is set. The log package
// writes each entry with a single Write call.
type logFilter struct {
	w       io.Writer
	verbose bool
}

func (f logFilter) Write(p []byte) (int, error) {
	if !f.verbose && bytes.Contains(p, debugTag) {
		return len(p), nil
	}
	return f.w.Write(p)
}
