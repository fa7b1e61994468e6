// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays to the system default device only, with software volume
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library. oto cannot address a
// specific device, so every Open lands on the system default.
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	deviceID   string
	format     audio.Format
	volume     int
	muted      bool
	ready      bool
	mu         sync.Mutex
}

// NewOto creates a new Oto output
func NewOto() Output {
	return &Oto{
		volume: 100,
	}
}

// Open initializes the output. deviceID is recorded but not honored.
func (o *Oto) Open(deviceID string, format audio.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if deviceID != "" {
		log.Printf("Warning: oto cannot route to device %q, using system default", deviceID)
	}
	if format.BitDepth != 16 {
		log.Printf("Warning: oto only supports 16-bit output, ignoring requested bitDepth=%d", format.BitDepth)
	}

	// oto allows one context per process
	if o.otoCtx != nil {
		if o.format.SampleRate != format.SampleRate || o.format.Channels != format.Channels {
			log.Printf("Warning: format change (%dHz %dch -> %dHz %dch) not supported by oto, keeping existing context",
				o.format.SampleRate, o.format.Channels, format.SampleRate, format.Channels)
		}
		o.deviceID = deviceID
		if !o.ready {
			o.startPlayer()
		}
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.format = format
	o.deviceID = deviceID
	o.startPlayer()

	log.Printf("Audio output initialized on system default: %dHz, %d channels", format.SampleRate, format.Channels)

	return nil
}

// startPlayer creates the pipe-fed persistent player (must hold o.mu)
func (o *Oto) startPlayer() {
	if err := o.otoCtx.Resume(); err != nil {
		log.Printf("Warning: oto resume error: %v", err)
	}
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true
}

// Write outputs audio samples (blocks until written)
func (o *Oto) Write(samples []int32) error {
	o.mu.Lock()
	ready := o.ready
	w := o.pipeWriter
	volume, muted := o.volume, o.muted
	o.mu.Unlock()

	if !ready {
		return fmt.Errorf("output not initialized")
	}

	volumedSamples := applyVolume(samples, volume, muted)

	buf := make([]byte, len(volumedSamples)*2)
	for i, s := range volumedSamples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(audio.SampleToInt16(s)))
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}

	return nil
}

// Close stops playback. The oto context itself lives for the process.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil && o.ready {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Printf("Warning: oto suspend error: %v", err)
		}
	}
	o.ready = false
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	o.mu.Lock()
	o.volume = clampVolume(volume)
	o.mu.Unlock()
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
}

// DeviceID returns the last requested device id
func (o *Oto) DeviceID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.deviceID
}
