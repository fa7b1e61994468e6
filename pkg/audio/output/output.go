// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends
package output

import (
	"fmt"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
)

// Output plays PCM samples on a specific output device
type Output interface {
	// Open routes playback to deviceID (empty = system default). Opening
	// again with another device or format replaces the current one.
	Open(deviceID string, format audio.Format) error

	// Write queues samples for playback
	Write(samples []int32) error

	// Close releases output resources
	Close() error

	// SetVolume sets the volume (0-100)
	SetVolume(volume int)

	// SetMuted sets mute state
	SetMuted(muted bool)

	// DeviceID returns the device playback is currently routed to
	DeviceID() string
}

// New creates an output for the named backend
func New(backend string) (Output, error) {
	switch backend {
	case "malgo", "":
		return NewMalgo(), nil
	case "oto":
		return NewOto(), nil
	case "portaudio":
		return NewPortAudio(), nil
	case "static", "discard":
		return NewDiscard(), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s", backend)
	}
}
