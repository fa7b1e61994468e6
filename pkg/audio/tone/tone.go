// ABOUTME: Test tone generator for device previews
// ABOUTME: Generates an endless sine wave as an audio.Source
package tone

import (
	"math"
	"sync"
)

const (
	DefaultFrequency  = 440.0
	DefaultSampleRate = 48000
	DefaultChannels   = 2

	// amplitude relative to full scale
	level = 0.25
)

// Tone generates a sine wave on every channel
type Tone struct {
	frequency   float64
	sampleRate  int
	channels    int
	sampleIndex uint64
	mu          sync.Mutex
}

// New creates a tone generator. Zero values fall back to the defaults.
func New(frequency float64, sampleRate, channels int) *Tone {
	if frequency <= 0 {
		frequency = DefaultFrequency
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	return &Tone{
		frequency:  frequency,
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// Read fills whole frames of samples. A trailing partial frame is left
// untouched and not counted.
func (t *Tone) Read(samples []int32) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	frames := len(samples) / t.channels
	for i := 0; i < frames; i++ {
		ts := float64(t.sampleIndex+uint64(i)) / float64(t.sampleRate)
		v := int32(math.Sin(2*math.Pi*t.frequency*ts) * level * 8388607)
		for c := 0; c < t.channels; c++ {
			samples[i*t.channels+c] = v
		}
	}
	t.sampleIndex += uint64(frames)

	return frames * t.channels, nil
}

func (t *Tone) SampleRate() int { return t.sampleRate }
func (t *Tone) Channels() int   { return t.channels }
func (t *Tone) Close() error    { return nil }
