// ABOUTME: Enumerator interface and backend factory
// ABOUTME: Common contract for listing audio output devices
package devices

import (
	"context"
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
)

const (
	BackendMalgo     = "malgo"
	BackendPortAudio = "portaudio"
	BackendStatic    = "static"
)

// Enumerator lists the audio output devices currently available
type Enumerator interface {
	// OutputDevices returns playback devices in backend order
	OutputDevices(ctx context.Context) ([]audio.Device, error)

	// Close releases backend resources
	Close() error
}

// New creates an enumerator for the named backend
func New(backend string) (Enumerator, error) {
	switch backend {
	case BackendMalgo, "":
		return NewMalgo(), nil
	case BackendPortAudio:
		return NewPortAudio(), nil
	case BackendStatic:
		return NewStatic(
			audio.Device{ID: "default", Name: "System default", IsDefault: true},
		), nil
	default:
		return nil, fmt.Errorf("unknown device backend: %s", backend)
	}
}

// Static returns a fixed device list that can be swapped at runtime
type Static struct {
	mu      sync.RWMutex
	devices []audio.Device
	err     error
}

// NewStatic creates a static enumerator
func NewStatic(devices ...audio.Device) *Static {
	return &Static{devices: devices}
}

// OutputDevices returns a copy of the configured list
func (s *Static) OutputDevices(ctx context.Context) ([]audio.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	out := make([]audio.Device, len(s.devices))
	copy(out, s.devices)
	return out, nil
}

// Set replaces the device list
func (s *Static) Set(devices ...audio.Device) {
	s.mu.Lock()
	s.devices = devices
	s.err = nil
	s.mu.Unlock()
}

// Fail makes subsequent enumerations return err
func (s *Static) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Close is a no-op
func (s *Static) Close() error {
	return nil
}
