// ABOUTME: Output selection controller
// ABOUTME: Owns the device list and selected id, routes preview audio on change
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/devices"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/output"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/selector"
)

const previewChunk = 20 * time.Millisecond

// Config holds controller configuration
type Config struct {
	// InitialDeviceID is selected at startup, even if not (yet) listed
	InitialDeviceID string
	// SelectDefault picks the system default when nothing is selected
	SelectDefault   bool
	RefreshInterval time.Duration
	Debug           bool
}

// State is a snapshot of the selector inputs
type State struct {
	Devices          []audio.Device
	SelectedDeviceID string
	Muted            bool
	Err              error
}

// Props turns the snapshot into selector props bound to setDevice
func (s State) Props(setDevice func(audio.Device)) selector.Props {
	return selector.Props{
		Devices:          s.Devices,
		SelectedDeviceID: s.SelectedDeviceID,
		SetDevice:        setDevice,
	}
}

// Controller owns the state the output selector renders
type Controller struct {
	config Config
	enum   devices.Enumerator
	out    output.Output
	source audio.Source

	// routeMu serialises recording a selection with routing the output to it
	routeMu sync.Mutex

	mu         sync.RWMutex
	devices    []audio.Device
	selectedID string
	routed     bool
	muted      bool
	lastErr    error

	subsMu  sync.Mutex
	subs    map[int]chan State
	nextSub int
}

// New creates a controller. out and source may be nil when no preview is
// played.
func New(config Config, enum devices.Enumerator, out output.Output, source audio.Source) *Controller {
	return &Controller{
		config:     config,
		enum:       enum,
		out:        out,
		source:     source,
		selectedID: config.InitialDeviceID,
		subs:       make(map[int]chan State),
	}
}

// Refresh re-enumerates output devices and publishes the new state
func (c *Controller) Refresh(ctx context.Context) error {
	list, err := c.enum.OutputDevices(ctx)

	c.mu.Lock()
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		log.Printf("Device enumeration failed: %v", err)
		c.publish()
		return fmt.Errorf("failed to enumerate output devices: %w", err)
	}

	c.devices = list
	c.lastErr = nil
	selected := c.selectedID

	var autoPick *audio.Device
	if selected == "" && c.config.SelectDefault {
		if def, ok := audio.DefaultDevice(list); ok {
			autoPick = &def
		}
	}
	c.mu.Unlock()

	if c.config.Debug {
		log.Printf("[DEBUG] Enumerated %d output devices", len(list))
	}
	if selected != "" {
		if _, ok := selector.Find(list, selected); !ok {
			log.Printf("Selected device %q is not currently listed", selected)
		}
	}

	if autoPick != nil {
		log.Printf("Selecting system default output: %s", autoPick.Name)
		c.SetDevice(*autoPick)
		return nil
	}

	c.publish()
	return nil
}

// SetDevice records d as the selected device and routes preview audio to
// it. It is the selector's change callback.
func (c *Controller) SetDevice(d audio.Device) {
	c.routeMu.Lock()
	defer c.routeMu.Unlock()

	c.mu.Lock()
	previous := c.selectedID
	c.selectedID = d.ID
	c.mu.Unlock()

	log.Printf("Output device selected: %s (%s)", d.Name, d.ID)

	if c.out != nil && c.source != nil {
		format := audio.Format{
			SampleRate: c.source.SampleRate(),
			Channels:   c.source.Channels(),
			BitDepth:   16,
		}
		if err := c.out.Open(d.ID, format); err != nil {
			log.Printf("Failed to route output from %q to %q: %v", previous, d.ID, err)
		} else {
			c.mu.Lock()
			c.routed = true
			c.mu.Unlock()
		}
	}

	c.publish()
}

// ToggleMute flips the preview mute state and returns the new state
func (c *Controller) ToggleMute() bool {
	c.mu.Lock()
	c.muted = !c.muted
	muted := c.muted
	c.mu.Unlock()

	if c.out != nil {
		c.out.SetMuted(muted)
	}
	log.Printf("Preview muted: %v", muted)

	c.publish()
	return muted
}

// Select changes the selection by id through the selector, so only listed
// devices are accepted.
func (c *Controller) Select(id string) bool {
	return c.Props().Change(id)
}

// State returns a snapshot of the current state
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]audio.Device, len(c.devices))
	copy(list, c.devices)
	return State{
		Devices:          list,
		SelectedDeviceID: c.selectedID,
		Muted:            c.muted,
		Err:              c.lastErr,
	}
}

// Props returns selector props wired to SetDevice
func (c *Controller) Props() selector.Props {
	return c.State().Props(c.SetDevice)
}

// Subscribe returns a channel receiving a snapshot after every change and
// a function that cancels the subscription. Slow subscribers miss
// intermediate snapshots.
func (c *Controller) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)

	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, id)
			c.subsMu.Unlock()
			close(ch)
		})
	}
}

// publish sends the current state to every subscriber without blocking
func (c *Controller) publish() {
	state := c.State()

	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	for _, ch := range c.subs {
		select {
		case ch <- state:
		default:
		}
	}
}

// Run refreshes the device list periodically and pumps preview audio
// until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
		log.Printf("Initial refresh failed: %v", err)
	}

	var wg sync.WaitGroup
	if c.out != nil && c.source != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.previewLoop(ctx)
		}()
	}

	if c.config.RefreshInterval > 0 {
		ticker := time.NewTicker(c.config.RefreshInterval)
		defer ticker.Stop()

	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
				c.Refresh(ctx)
			}
		}
	} else {
		<-ctx.Done()
	}

	wg.Wait()
	return nil
}

// previewLoop feeds the source into the output in real-time sized chunks
func (c *Controller) previewLoop(ctx context.Context) {
	frames := c.source.SampleRate() * int(previewChunk/time.Millisecond) / 1000
	buf := make([]int32, frames*c.source.Channels())

	ticker := time.NewTicker(previewChunk)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.RLock()
		routed := c.routed
		c.mu.RUnlock()
		if !routed {
			continue
		}

		n, err := c.source.Read(buf)
		if n > 0 {
			if werr := c.out.Write(buf[:n]); werr != nil && c.config.Debug {
				log.Printf("[DEBUG] Preview write failed: %v", werr)
			}
		}
		if errors.Is(err, io.EOF) {
			log.Printf("Preview source finished")
			return
		}
		if err != nil {
			log.Printf("Preview source error: %v", err)
			return
		}
	}
}

// Close releases the enumerator, output and source
func (c *Controller) Close() error {
	var errs []error
	if c.out != nil {
		errs = append(errs, c.out.Close())
	}
	if c.source != nil {
		errs = append(errs, c.source.Close())
	}
	errs = append(errs, c.enum.Close())
	return errors.Join(errs...)
}
