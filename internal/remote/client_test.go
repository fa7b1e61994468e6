// ABOUTME: Tests for the output bridge client
// ABOUTME: Tests handshake, state updates and remote selection against a live bridge
package remote

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Resonate-Protocol/outputselect/internal/app"
	"github.com/Resonate-Protocol/outputselect/internal/bridge"
	"github.com/Resonate-Protocol/outputselect/internal/protocol"
	"github.com/Resonate-Protocol/outputselect/pkg/audio"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/devices"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDevices() []audio.Device {
	return []audio.Device{
		{ID: "a", Name: "Speakers", IsDefault: true},
		{ID: "b", Name: "Headset"},
	}
}

func startBridge(t *testing.T, selected string) (*app.Controller, string) {
	t.Helper()

	ctrl := app.New(app.Config{InitialDeviceID: selected}, devices.NewStatic(testDevices()...), nil, nil)
	ctrl.Refresh(context.Background())

	srv := bridge.New(bridge.Config{Name: "living-room"}, ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)
	<-srv.Ready()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Stop()
		cancel()
		ts.Close()
	})

	return ctrl, strings.TrimPrefix(ts.URL, "http://")
}

func connect(t *testing.T, addr string) *Client {
	t.Helper()
	c := NewClient(Config{ServerAddr: addr, Name: "test-remote"})
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(c.Close)
	return c
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{ServerAddr: "localhost:8928", Name: "remote"})
	require.NotNil(t, client)
	assert.False(t, client.IsConnected())
	assert.Error(t, client.Select("a"), "select must fail while disconnected")
}

func TestConnectReceivesInitialState(t *testing.T) {
	_, addr := startBridge(t, "b")
	c := connect(t, addr)

	require.True(t, c.IsConnected())
	assert.Equal(t, "living-room", c.Hello().Name)
	assert.NotEmpty(t, c.Hello().ClientID)

	want := protocol.State{Devices: testDevices(), SelectedDeviceID: "b", Value: "b"}
	assert.Equal(t, want, c.State())

	wantOpts := []selector.Option{
		{Value: "", Label: selector.PlaceholderLabel, Disabled: true},
		{Value: "a", Label: "* Speakers"},
		{Value: "b", Label: "Headset"},
	}
	assert.Equal(t, wantOpts, c.Options())
}

func TestSelectUpdatesState(t *testing.T) {
	ctrl, addr := startBridge(t, "b")
	c := connect(t, addr)

	require.NoError(t, c.Select("a"))

	select {
	case state := <-c.States:
		assert.Equal(t, "a", state.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state")
	}

	assert.Equal(t, "a", ctrl.State().SelectedDeviceID)
	assert.Equal(t, "a", c.State().Value)
}

func TestSelectUnknownReportsError(t *testing.T) {
	_, addr := startBridge(t, "b")
	c := connect(t, addr)

	c.Select("missing")

	select {
	case perr := <-c.Errors:
		assert.Equal(t, protocol.ErrUnknownDevice, perr.Error)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestAwaitSelectionSkipsOtherStates(t *testing.T) {
	_, addr := startBridge(t, "b")
	c := connect(t, addr)

	// the refresh broadcast still carries the old selection
	require.NoError(t, c.Refresh())
	require.NoError(t, c.Select("a"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	state, err := c.AwaitSelection(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", state.SelectedDeviceID)
	assert.Equal(t, "a", state.Value)
}

func TestAwaitSelectionReportsBridgeError(t *testing.T) {
	_, addr := startBridge(t, "b")
	c := connect(t, addr)

	require.NoError(t, c.Select("missing"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.AwaitSelection(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), protocol.ErrUnknownDevice)
}

func TestAwaitSelectionTimesOut(t *testing.T) {
	_, addr := startBridge(t, "b")
	c := connect(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.AwaitSelection(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRefresh(t *testing.T) {
	_, addr := startBridge(t, "")
	c := connect(t, addr)

	require.NoError(t, c.Refresh())

	select {
	case state := <-c.States:
		assert.Len(t, state.Devices, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refreshed state")
	}
}

func TestConnectFailure(t *testing.T) {
	c := NewClient(Config{ServerAddr: "127.0.0.1:1"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := c.Connect(ctx)
	if err == nil {
		c.Close()
	}
	require.Error(t, err)
	assert.False(t, c.IsConnected())
}

func TestCloseIsIdempotent(t *testing.T) {
	_, addr := startBridge(t, "")
	c := connect(t, addr)

	c.Close()
	c.Close()

	assert.False(t, c.IsConnected())
}
