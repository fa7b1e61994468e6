// ABOUTME: Tests for the output device selector
// ABOUTME: Covers value resolution, option rendering and change dispatch
package selector

import (
	"strings"
	"testing"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
	"github.com/google/go-cmp/cmp"
)

func testDevices() []audio.Device {
	return []audio.Device{
		{ID: "a", Name: "Speakers", IsDefault: true},
		{ID: "b", Name: "Headset", IsDefault: false},
	}
}

func TestResolveDisplayValue(t *testing.T) {
	tests := []struct {
		name     string
		devices  []audio.Device
		selected string
		expected string
	}{
		{"matches second", testDevices(), "b", "b"},
		{"matches default", testDevices(), "a", "a"},
		{"unknown id", testDevices(), "c", ""},
		{"empty id", testDevices(), "", ""},
		{"empty list", nil, "a", ""},
		{"empty list empty id", []audio.Device{}, "", ""},
		{"case sensitive", testDevices(), "A", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDisplayValue(tt.devices, tt.selected)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestResolveDisplayValueOnlyListedOrPlaceholder(t *testing.T) {
	devices := testDevices()
	for _, id := range []string{"", "a", "b", "c", "speakers", " a"} {
		got := ResolveDisplayValue(devices, id)
		if got == PlaceholderValue {
			continue
		}
		if got != id {
			t.Errorf("selected %q rendered as %q", id, got)
		}
		if _, ok := Find(devices, got); !ok {
			t.Errorf("rendered value %q is not a listed device", got)
		}
	}
}

func TestOptionsScenario(t *testing.T) {
	got := Options(testDevices())
	want := []Option{
		{Value: "", Label: "-- select an option --", Disabled: true},
		{Value: "a", Label: "* Speakers"},
		{Value: "b", Label: "Headset"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsEmptyList(t *testing.T) {
	got := Options(nil)
	want := []Option{{Value: PlaceholderValue, Label: PlaceholderLabel, Disabled: true}}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsPreserveOrderAndCount(t *testing.T) {
	devices := []audio.Device{
		{ID: "z", Name: "Zeta"},
		{ID: "m", Name: "Mu", IsDefault: true},
		{ID: "a", Name: "Alpha"},
		{ID: "q", Name: "Quarter"},
	}

	opts := Options(devices)
	selectable := 0
	for i, opt := range opts[1:] {
		if opt.Disabled {
			t.Errorf("option %d unexpectedly disabled", i)
			continue
		}
		selectable++
		if opt.Value != devices[i].ID {
			t.Errorf("option %d: expected value %q, got %q", i, devices[i].ID, opt.Value)
		}
	}

	if selectable != len(devices) {
		t.Errorf("expected %d selectable options, got %d", len(devices), selectable)
	}
	if !opts[0].Disabled || opts[0].Value != PlaceholderValue {
		t.Errorf("expected disabled placeholder first, got %+v", opts[0])
	}
}

func TestLabelDefaultMarker(t *testing.T) {
	tests := []struct {
		name       string
		device     audio.Device
		wantMarker bool
		expected   string
	}{
		{"default", audio.Device{ID: "a", Name: "Speakers", IsDefault: true}, true, "* Speakers"},
		{"not default", audio.Device{ID: "b", Name: "Headset"}, false, "Headset"},
		{"name already starred", audio.Device{ID: "c", Name: "*Star"}, false, "*Star"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Label(tt.device)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
			if strings.HasPrefix(got, DefaultMarker) != tt.wantMarker {
				t.Errorf("marker presence: expected %v for %q", tt.wantMarker, got)
			}
		})
	}
}

func TestPropsValue(t *testing.T) {
	props := Props{Devices: testDevices(), SelectedDeviceID: "b"}
	if got := props.Value(); got != "b" {
		t.Errorf("expected %q, got %q", "b", got)
	}

	props.SelectedDeviceID = "c"
	if got := props.Value(); got != "" {
		t.Errorf("expected placeholder, got %q", got)
	}
}

func TestChangeInvokesCallbackOnce(t *testing.T) {
	var calls []audio.Device
	props := Props{
		Devices:          testDevices(),
		SelectedDeviceID: "b",
		SetDevice:        func(d audio.Device) { calls = append(calls, d) },
	}

	if !props.Change("a") {
		t.Fatal("expected change to be accepted")
	}

	want := []audio.Device{{ID: "a", Name: "Speakers", IsDefault: true}}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("callback calls mismatch (-want +got):\n%s", diff)
	}
}

func TestChangeUnknownValueIsIgnored(t *testing.T) {
	called := false
	props := Props{
		Devices:   testDevices(),
		SetDevice: func(audio.Device) { called = true },
	}

	for _, v := range []string{PlaceholderValue, "c"} {
		if props.Change(v) {
			t.Errorf("expected change to %q to be rejected", v)
		}
	}
	if called {
		t.Error("callback must not fire on lookup miss")
	}
}

func TestChangeWithoutCallback(t *testing.T) {
	props := Props{Devices: testDevices()}
	if !props.Change("b") {
		t.Error("expected change to be accepted without a callback")
	}
}

func TestChangeDoesNotMutateProps(t *testing.T) {
	devices := testDevices()
	props := Props{
		Devices:          devices,
		SelectedDeviceID: "b",
		SetDevice:        func(audio.Device) {},
	}

	props.Change("a")

	if props.SelectedDeviceID != "b" {
		t.Errorf("selected id is owned by the caller, got %q", props.SelectedDeviceID)
	}
	if diff := cmp.Diff(testDevices(), devices); diff != "" {
		t.Errorf("devices mutated (-want +got):\n%s", diff)
	}
}
