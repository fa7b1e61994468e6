// ABOUTME: Malgo-based audio output routed to a selected playback device
// ABOUTME: Uses miniaudio via malgo with a ring buffer feeding the device callback
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/devices"
	"github.com/gen2brain/malgo"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	deviceID string
	malgoID  malgo.DeviceID
	format   audio.Format
	volume   int
	muted    bool
	ready    bool

	ringBuffer *RingBuffer
	mu         sync.Mutex
}

// NewMalgo creates a new Malgo output
func NewMalgo() Output {
	return &Malgo{
		volume: 100,
	}
}

// Open initializes playback on deviceID with the given format
func (m *Malgo) Open(deviceID string, format audio.Format) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil && m.deviceID == deviceID && m.format == format {
		log.Printf("Audio output already open on %q with same format, reusing device", deviceID)
		return nil
	}

	if m.device != nil {
		log.Printf("Rerouting output %q (%dHz/%dch/%dbit) -> %q (%dHz/%dch/%dbit)",
			m.deviceID, m.format.SampleRate, m.format.Channels, m.format.BitDepth,
			deviceID, format.SampleRate, format.Channels, format.BitDepth)
		m.closeDevice()
	}

	var sampleFormat malgo.FormatType
	switch format.BitDepth {
	case 16:
		sampleFormat = malgo.FormatS16
	case 24:
		sampleFormat = malgo.FormatS24
	case 32:
		sampleFormat = malgo.FormatS32
	default:
		return fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", format.BitDepth)
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	// 500ms of buffered samples
	bufferSamples := (format.SampleRate * format.Channels * 500) / 1000
	m.ringBuffer = NewRingBuffer(bufferSamples)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = sampleFormat
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if deviceID != "" {
		id, err := devices.DecodeMalgoID(deviceID)
		if err != nil {
			return err
		}
		// must stay addressable for the lifetime of InitDevice
		m.malgoID = id
		deviceConfig.Playback.DeviceID = m.malgoID.Pointer()
	}

	channels := format.Channels
	bitDepth := format.BitDepth
	ring := m.ringBuffer
	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			fillOutput(pOutput, ring, int(frameCount)*channels, bitDepth)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device %q: %w", deviceID, err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device %q: %w", deviceID, err)
	}

	m.device = device
	m.deviceID = deviceID
	m.format = format
	m.ready = true

	log.Printf("Audio output initialized on %q: %dHz, %d channels, %d-bit (malgo/%s)",
		deviceID, format.SampleRate, format.Channels, format.BitDepth, formatName(sampleFormat))

	return nil
}

// Write queues audio samples for playback. Samples that do not fit in the
// ring buffer are dropped.
func (m *Malgo) Write(samples []int32) error {
	m.mu.Lock()
	ready := m.ready
	ring := m.ringBuffer
	volume, muted := m.volume, m.muted
	m.mu.Unlock()

	if !ready {
		return fmt.Errorf("output not initialized")
	}

	ring.Write(applyVolume(samples, volume, muted))
	return nil
}

// fillOutput drains the ring buffer into a device buffer of the given depth
func fillOutput(out []byte, ring *RingBuffer, totalSamples, bitDepth int) {
	samples := make([]int32, totalSamples)
	ring.Read(samples)

	switch bitDepth {
	case 16:
		for i, sample := range samples {
			s16 := audio.SampleToInt16(sample)
			out[i*2] = byte(s16)
			out[i*2+1] = byte(s16 >> 8)
		}
	case 24:
		for i, sample := range samples {
			b := audio.SampleTo24Bit(sample)
			copy(out[i*3:i*3+3], b[:])
		}
	case 32:
		for i, sample := range samples {
			s32 := sample << 8
			out[i*4] = byte(s32)
			out[i*4+1] = byte(s32 >> 8)
			out[i*4+2] = byte(s32 >> 16)
			out[i*4+3] = byte(s32 >> 24)
		}
	}
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device == nil {
		return
	}
	if err := m.device.Stop(); err != nil {
		log.Printf("Warning: device stop error: %v", err)
	}
	m.device.Uninit()
	m.device = nil
	m.ready = false
}

// SetVolume sets the volume (0-100)
func (m *Malgo) SetVolume(volume int) {
	m.mu.Lock()
	m.volume = clampVolume(volume)
	m.mu.Unlock()
}

// SetMuted sets mute state
func (m *Malgo) SetMuted(muted bool) {
	m.mu.Lock()
	m.muted = muted
	m.mu.Unlock()
}

// DeviceID returns the device playback is routed to
func (m *Malgo) DeviceID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deviceID
}

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
