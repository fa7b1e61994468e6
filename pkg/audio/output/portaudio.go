//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Opens a stream on the selected PortAudio output device
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/devices"
	"github.com/gordonklaus/portaudio"
)

// PortAudio output implementation
type PortAudio struct {
	stream     *portaudio.Stream
	ringBuffer *RingBuffer
	deviceID   string
	volume     int
	muted      bool
	mu         sync.Mutex
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() Output {
	return &PortAudio{volume: 100}
}

// Open starts a 16-bit stream on deviceID (empty = default output)
func (p *PortAudio) Open(deviceID string, format audio.Format) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		p.closeStream()
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	var info *portaudio.DeviceInfo
	var err error
	if deviceID == "" {
		info, err = portaudio.DefaultOutputDevice()
	} else {
		info, err = devices.FindPortAudio(deviceID)
	}
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to resolve output device %q: %w", deviceID, err)
	}

	ring := NewRingBuffer((format.SampleRate * format.Channels * 500) / 1000)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: format.Channels,
			Latency:  info.DefaultLowOutputLatency,
		},
		SampleRate:      float64(format.SampleRate),
		FramesPerBuffer: portaudio.FramesPerBufferUnspecified,
	}

	stream, err := portaudio.OpenStream(params, func(out []int16) {
		samples := make([]int32, len(out))
		ring.Read(samples)
		for i, s := range samples {
			out[i] = audio.SampleToInt16(s)
		}
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start stream: %w", err)
	}

	p.stream = stream
	p.ringBuffer = ring
	p.deviceID = deviceID

	log.Printf("Audio output initialized on %q: %dHz, %d channels (portaudio)", info.Name, format.SampleRate, format.Channels)
	return nil
}

// Write queues audio samples
func (p *PortAudio) Write(samples []int32) error {
	p.mu.Lock()
	ring := p.ringBuffer
	volume, muted := p.volume, p.muted
	p.mu.Unlock()

	if ring == nil {
		return fmt.Errorf("output not opened")
	}

	ring.Write(applyVolume(samples, volume, muted))
	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeStream()
}

// closeStream stops the stream and terminates PortAudio (must hold p.mu)
func (p *PortAudio) closeStream() error {
	if p.stream == nil {
		return nil
	}
	if err := p.stream.Stop(); err != nil {
		log.Printf("Warning: portaudio stop error: %v", err)
	}
	if err := p.stream.Close(); err != nil {
		log.Printf("Warning: portaudio close error: %v", err)
	}
	p.stream = nil
	p.ringBuffer = nil
	return portaudio.Terminate()
}

// SetVolume sets the volume (0-100)
func (p *PortAudio) SetVolume(volume int) {
	p.mu.Lock()
	p.volume = clampVolume(volume)
	p.mu.Unlock()
}

// SetMuted sets mute state
func (p *PortAudio) SetMuted(muted bool) {
	p.mu.Lock()
	p.muted = muted
	p.mu.Unlock()
}

// DeviceID returns the device playback is routed to
func (p *PortAudio) DeviceID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deviceID
}
