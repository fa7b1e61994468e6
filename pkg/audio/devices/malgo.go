// ABOUTME: Malgo-based device enumeration
// ABOUTME: Lists miniaudio playback devices and maps their ids to strings
package devices

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"sync"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
	"github.com/gen2brain/malgo"
)

// Malgo enumerates playback devices through miniaudio
type Malgo struct {
	malgoCtx *malgo.AllocatedContext
	mu       sync.Mutex
}

// NewMalgo creates a malgo enumerator. The miniaudio context is created on
// first use.
func NewMalgo() *Malgo {
	return &Malgo{}
}

// OutputDevices lists playback devices
func (m *Malgo) OutputDevices(ctx context.Context) ([]audio.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.malgoCtx == nil {
		mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = mctx
	}

	infos, err := m.malgoCtx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to list playback devices: %w", err)
	}

	devices := make([]audio.Device, 0, len(infos))
	for i := range infos {
		info := &infos[i]
		devices = append(devices, audio.Device{
			ID:        EncodeMalgoID(info.ID),
			Name:      info.Name(),
			IsDefault: info.IsDefault != 0,
		})
	}

	return devices, nil
}

// Close releases the miniaudio context
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.malgoCtx == nil {
		return nil
	}
	if err := m.malgoCtx.Uninit(); err != nil {
		log.Printf("Warning: malgo context uninit error: %v", err)
	}
	m.malgoCtx.Free()
	m.malgoCtx = nil
	return nil
}

// EncodeMalgoID renders a miniaudio device id as hex with trailing zero
// bytes removed. At least one byte is kept so the result is never empty.
func EncodeMalgoID(id malgo.DeviceID) string {
	raw := bytes.TrimRight(id[:], "\x00")
	if len(raw) == 0 {
		raw = id[:1]
	}
	return hex.EncodeToString(raw)
}

// DecodeMalgoID is the inverse of EncodeMalgoID
func DecodeMalgoID(s string) (malgo.DeviceID, error) {
	var id malgo.DeviceID

	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid malgo device id %q: %w", s, err)
	}
	if len(raw) > len(id) {
		return id, fmt.Errorf("invalid malgo device id %q: %d bytes exceeds %d", s, len(raw), len(id))
	}

	copy(id[:], raw)
	return id, nil
}
