// Package sound plays a short click whenever a command reaches the chat.
package sound

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/soar/chatpad/internal/dispatch"
)

const (
	sampleRate    = beep.SampleRate(44100)
	toneFrequency = 880
	toneDuration  = 50 * time.Millisecond
	toneVolume    = 0.5
)

// Clicker is a dispatcher feedback that only reacts to sent commands.
type Clicker struct {
	dispatch.NopFeedback

	mu   sync.Mutex
	play func(beep.Streamer)
}

// NewClicker opens the default audio device.
func NewClicker() (*Clicker, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("sound: %w", err)
	}
	return &Clicker{play: func(s beep.Streamer) { speaker.Play(s) }}, nil
}

// Tone returns the click: a short sine tone at reduced volume.
func Tone() (beep.Streamer, error) {
	sine, err := generators.SineTone(sampleRate, toneFrequency)
	if err != nil {
		return nil, err
	}
	return &effects.Volume{
		Streamer: beep.Take(sampleRate.N(toneDuration), sine),
		Base:     2,
		Volume:   math.Log2(toneVolume),
	}, nil
}

func (c *Clicker) SetLastCommand(string) {
	tone, err := Tone()
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.play(tone)
}

// Close stops playback and releases the audio device.
func (c *Clicker) Close() {
	speaker.Clear()
	speaker.Close()
}
