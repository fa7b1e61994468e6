// ABOUTME: Output that drops samples
// ABOUTME: Records routing calls for headless runs and tests
package output

import (
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
)

// Discard accepts samples without playing them
type Discard struct {
	mu       sync.Mutex
	deviceID string
	format   audio.Format
	opens    []string
	written  int
	volume   int
	muted    bool
	open     bool
}

// NewDiscard creates a discarding output
func NewDiscard() *Discard {
	return &Discard{volume: 100}
}

// Open records the requested device
func (d *Discard) Open(deviceID string, format audio.Format) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.deviceID = deviceID
	d.format = format
	d.opens = append(d.opens, deviceID)
	d.open = true
	return nil
}

// Write counts samples
func (d *Discard) Write(samples []int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return fmt.Errorf("output not initialized")
	}
	d.written += len(samples)
	return nil
}

// Close marks the output closed
func (d *Discard) Close() error {
	d.mu.Lock()
	d.open = false
	d.mu.Unlock()
	return nil
}

// SetVolume sets the volume (0-100)
func (d *Discard) SetVolume(volume int) {
	d.mu.Lock()
	d.volume = clampVolume(volume)
	d.mu.Unlock()
}

// SetMuted sets mute state
func (d *Discard) SetMuted(muted bool) {
	d.mu.Lock()
	d.muted = muted
	d.mu.Unlock()
}

// Muted reports the mute state
func (d *Discard) Muted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.muted
}

// DeviceID returns the last opened device
func (d *Discard) DeviceID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deviceID
}

// Opens returns every device id Open was called with, in order
func (d *Discard) Opens() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.opens...)
}

// Written returns the number of samples accepted
func (d *Discard) Written() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.written
}
