//go:build portaudio

// ABOUTME: PortAudio device enumeration
// ABOUTME: Lists PortAudio devices that have output channels
package devices

import (
	"context"
	"fmt"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// PortAudio enumerates output-capable PortAudio devices
type PortAudio struct{}

// NewPortAudio creates a PortAudio enumerator
func NewPortAudio() Enumerator {
	return &PortAudio{}
}

// OutputDevices lists devices with at least one output channel
func (p *PortAudio) OutputDevices(ctx context.Context) ([]audio.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get device list: %w", err)
	}

	var defaultID string
	if def, err := portaudio.DefaultOutputDevice(); err == nil && def != nil {
		defaultID = PortAudioID(def)
	}

	var devices []audio.Device
	for _, info := range infos {
		if info.MaxOutputChannels <= 0 {
			continue
		}
		id := PortAudioID(info)
		devices = append(devices, audio.Device{
			ID:        id,
			Name:      info.Name,
			IsDefault: id == defaultID,
		})
	}

	return devices, nil
}

// Close is a no-op; each enumeration initializes and terminates PortAudio
func (p *PortAudio) Close() error {
	return nil
}

// PortAudioID identifies a device as "<host api>:<device name>"
func PortAudioID(info *portaudio.DeviceInfo) string {
	if info.HostApi == nil {
		return info.Name
	}
	return info.HostApi.Name + ":" + info.Name
}

// FindPortAudio returns the output device with the given id. PortAudio must
// be initialized by the caller.
func FindPortAudio(id string) (*portaudio.DeviceInfo, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get device list: %w", err)
	}
	for _, info := range infos {
		if info.MaxOutputChannels > 0 && PortAudioID(info) == id {
			return info, nil
		}
	}
	return nil, fmt.Errorf("portaudio output device not found: %s", id)
}
