// ABOUTME: Tests for the output selection controller
// ABOUTME: Tests refresh, selection, routing and subscriptions
package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/devices"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/output"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/tone"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func testDevices() []audio.Device {
	return []audio.Device{
		{ID: "a", Name: "Speakers", IsDefault: true},
		{ID: "b", Name: "Headset"},
	}
}

func TestNewController(t *testing.T) {
	c := New(Config{InitialDeviceID: "b"}, devices.NewStatic(), nil, nil)

	state := c.State()
	if state.SelectedDeviceID != "b" {
		t.Errorf("expected initial selection b, got %q", state.SelectedDeviceID)
	}
	if len(state.Devices) != 0 {
		t.Errorf("expected no devices before refresh, got %v", state.Devices)
	}
	if got := c.Props().Value(); got != "" {
		t.Errorf("expected placeholder before refresh, got %q", got)
	}
}

func TestRefreshPopulatesDevices(t *testing.T) {
	c := New(Config{InitialDeviceID: "b"}, devices.NewStatic(testDevices()...), nil, nil)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff(testDevices(), c.State().Devices); diff != "" {
		t.Errorf("devices mismatch (-want +got):\n%s", diff)
	}
	if got := c.Props().Value(); got != "b" {
		t.Errorf("expected value b, got %q", got)
	}
}

func TestRefreshKeepsUnknownSelection(t *testing.T) {
	c := New(Config{InitialDeviceID: "c"}, devices.NewStatic(testDevices()...), nil, nil)
	c.Refresh(context.Background())

	if c.State().SelectedDeviceID != "c" {
		t.Errorf("selection is owned by the controller and must survive refresh")
	}
	if got := c.Props().Value(); got != "" {
		t.Errorf("expected placeholder for unknown id, got %q", got)
	}
}

func TestRefreshSelectDefault(t *testing.T) {
	out := output.NewDiscard()
	c := New(Config{SelectDefault: true}, devices.NewStatic(testDevices()...), out, tone.New(0, 0, 0))

	c.Refresh(context.Background())

	if c.State().SelectedDeviceID != "a" {
		t.Errorf("expected default device a selected, got %q", c.State().SelectedDeviceID)
	}
	if diff := cmp.Diff([]string{"a"}, out.Opens()); diff != "" {
		t.Errorf("routing mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshWithoutSelectDefaultLeavesPlaceholder(t *testing.T) {
	c := New(Config{}, devices.NewStatic(testDevices()...), nil, nil)
	c.Refresh(context.Background())

	if got := c.Props().Value(); got != "" {
		t.Errorf("expected placeholder, got %q", got)
	}
}

func TestRefreshErrorKeepsPreviousList(t *testing.T) {
	enum := devices.NewStatic(testDevices()...)
	c := New(Config{}, enum, nil, nil)
	c.Refresh(context.Background())

	boom := errors.New("backend gone")
	enum.Fail(boom)

	err := c.Refresh(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped %v, got %v", boom, err)
	}

	state := c.State()
	if !errors.Is(state.Err, boom) {
		t.Errorf("expected state error %v, got %v", boom, state.Err)
	}
	if len(state.Devices) != 2 {
		t.Errorf("expected previous device list to be kept, got %v", state.Devices)
	}
}

func TestSelectRoutesOutput(t *testing.T) {
	out := output.NewDiscard()
	c := New(Config{}, devices.NewStatic(testDevices()...), out, tone.New(440, 44100, 2))
	c.Refresh(context.Background())

	if !c.Select("b") {
		t.Fatal("expected selection of b to succeed")
	}
	if !c.Select("a") {
		t.Fatal("expected selection of a to succeed")
	}

	if c.State().SelectedDeviceID != "a" {
		t.Errorf("expected a selected, got %q", c.State().SelectedDeviceID)
	}
	if diff := cmp.Diff([]string{"b", "a"}, out.Opens()); diff != "" {
		t.Errorf("routing mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectUnknownIsRejected(t *testing.T) {
	out := output.NewDiscard()
	c := New(Config{InitialDeviceID: "b"}, devices.NewStatic(testDevices()...), out, tone.New(0, 0, 0))
	c.Refresh(context.Background())

	for _, id := range []string{"", "zz"} {
		if c.Select(id) {
			t.Errorf("expected selection of %q to be rejected", id)
		}
	}

	if c.State().SelectedDeviceID != "b" {
		t.Errorf("expected selection unchanged, got %q", c.State().SelectedDeviceID)
	}
	if len(out.Opens()) != 0 {
		t.Errorf("expected no routing, got %v", out.Opens())
	}
}

func TestSetDeviceWithoutOutput(t *testing.T) {
	c := New(Config{}, devices.NewStatic(testDevices()...), nil, nil)
	c.SetDevice(audio.Device{ID: "b", Name: "Headset"})

	if c.State().SelectedDeviceID != "b" {
		t.Errorf("expected b selected, got %q", c.State().SelectedDeviceID)
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	c := New(Config{}, devices.NewStatic(testDevices()...), nil, nil)
	updates, cancel := c.Subscribe(4)
	defer cancel()

	c.Refresh(context.Background())
	c.Select("b")

	var last State
	for i := 0; i < 2; i++ {
		select {
		case last = <-updates:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for update %d", i)
		}
	}

	if last.SelectedDeviceID != "b" {
		t.Errorf("expected last update to select b, got %q", last.SelectedDeviceID)
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	c := New(Config{}, devices.NewStatic(), nil, nil)
	updates, cancel := c.Subscribe(1)
	cancel()
	cancel()

	if _, ok := <-updates; ok {
		t.Error("expected channel to be closed")
	}

	// publishing after cancel must not panic
	c.Refresh(context.Background())
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	c := New(Config{}, devices.NewStatic(testDevices()...), nil, nil)
	_, cancel := c.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			c.Refresh(context.Background())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestStateIsSnapshot(t *testing.T) {
	c := New(Config{}, devices.NewStatic(testDevices()...), nil, nil)
	c.Refresh(context.Background())

	state := c.State()
	state.Devices[0].Name = "changed"

	if c.State().Devices[0].Name != "Speakers" {
		t.Error("mutating a snapshot changed controller state")
	}
}

func TestRunPumpsPreviewAfterRouting(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	out := output.NewDiscard()
	c := New(Config{}, devices.NewStatic(testDevices()...), out, tone.New(440, 48000, 2))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(c.State().Devices) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for initial refresh")
		case <-time.After(10 * time.Millisecond):
		}
	}

	time.Sleep(60 * time.Millisecond)
	if out.Written() != 0 {
		t.Errorf("expected no preview before a device is routed, got %d samples", out.Written())
	}

	c.Select("a")
	for out.Written() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for preview samples")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error from Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunPeriodicRefresh(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	enum := devices.NewStatic(testDevices()[:1]...)
	c := New(Config{RefreshInterval: 10 * time.Millisecond}, enum, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	enum.Set(testDevices()...)

	deadline := time.After(2 * time.Second)
	for len(c.State().Devices) != 2 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for refreshed device list")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestClose(t *testing.T) {
	out := output.NewDiscard()
	c := New(Config{}, devices.NewStatic(), out, tone.New(0, 0, 0))
	if err := c.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// slowOutput delays opening one device so concurrent routing can interleave
type slowOutput struct {
	*output.Discard
	slowID  string
	delay   time.Duration
	started chan struct{}
	once    sync.Once
}

func (s *slowOutput) Open(deviceID string, format audio.Format) error {
	if deviceID == s.slowID {
		s.once.Do(func() { close(s.started) })
		time.Sleep(s.delay)
	}
	return s.Discard.Open(deviceID, format)
}

func TestConcurrentSetDeviceRoutesLastSelection(t *testing.T) {
	out := &slowOutput{
		Discard: output.NewDiscard(),
		slowID:  "a",
		delay:   50 * time.Millisecond,
		started: make(chan struct{}),
	}
	c := New(Config{}, devices.NewStatic(testDevices()...), out, tone.New(0, 0, 0))
	c.Refresh(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.SetDevice(testDevices()[0])
	}()
	go func() {
		defer wg.Done()
		<-out.started
		c.SetDevice(testDevices()[1])
	}()
	wg.Wait()

	selected := c.State().SelectedDeviceID
	if selected != out.DeviceID() {
		t.Errorf("selected %q but output routed to %q", selected, out.DeviceID())
	}
	if diff := cmp.Diff([]string{"a", "b"}, out.Opens()); diff != "" {
		t.Errorf("routing order mismatch (-want +got):\n%s", diff)
	}
}

func TestToggleMute(t *testing.T) {
	out := output.NewDiscard()
	c := New(Config{}, devices.NewStatic(testDevices()...), out, tone.New(0, 0, 0))
	updates, cancel := c.Subscribe(2)
	defer cancel()

	if !c.ToggleMute() {
		t.Fatal("expected first toggle to mute")
	}
	if !out.Muted() {
		t.Error("expected output to be muted")
	}

	select {
	case state := <-updates:
		if !state.Muted {
			t.Error("expected published state to be muted")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for mute update")
	}

	if c.ToggleMute() || out.Muted() {
		t.Error("expected second toggle to unmute")
	}
}

func TestToggleMuteWithoutOutput(t *testing.T) {
	c := New(Config{}, devices.NewStatic(), nil, nil)
	if !c.ToggleMute() || !c.State().Muted {
		t.Error("expected mute state to be tracked without an output")
	}
}
