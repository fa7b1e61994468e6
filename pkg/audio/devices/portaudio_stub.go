//go:build !portaudio

// ABOUTME: PortAudio enumeration stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package devices

import (
	"context"
	"fmt"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
)

// PortAudio enumerator (stub)
type PortAudio struct{}

// NewPortAudio creates a PortAudio enumerator
func NewPortAudio() Enumerator {
	return &PortAudio{}
}

// OutputDevices always fails without the portaudio build tag
func (p *PortAudio) OutputDevices(ctx context.Context) ([]audio.Device, error) {
	return nil, fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

// Close is a no-op
func (p *PortAudio) Close() error {
	return nil
}
