// ABOUTME: Dropdown projection of an audio output device list
// ABOUTME: Resolves the displayed value, builds options and dispatches changes
package selector

import (
	"github.com/Resonate-Protocol/outputselect/pkg/audio"
)

const (
	// PlaceholderValue is the value of the always-present disabled option
	PlaceholderValue = ""

	// PlaceholderLabel is shown when no listed device is selected
	PlaceholderLabel = "-- select an option --"

	// DefaultMarker prefixes the label of the system default device
	DefaultMarker = "* "
)

// Option is a single entry of the rendered dropdown
type Option struct {
	Value    string
	Label    string
	Disabled bool
}

// Props are the externally owned inputs of the selector
type Props struct {
	Devices          []audio.Device
	SelectedDeviceID string
	SetDevice        func(audio.Device)
}

// Find returns the device with the given id
func Find(devices []audio.Device, id string) (audio.Device, bool) {
	for _, d := range devices {
		if d.ID == id {
			return d, true
		}
	}
	return audio.Device{}, false
}

// ResolveDisplayValue returns selectedID if a listed device has that id,
// otherwise the placeholder value.
func ResolveDisplayValue(devices []audio.Device, selectedID string) string {
	if _, ok := Find(devices, selectedID); ok {
		return selectedID
	}
	return PlaceholderValue
}

// Label returns the visible text for a device
func Label(d audio.Device) string {
	if d.IsDefault {
		return DefaultMarker + d.Name
	}
	return d.Name
}

// Options returns the placeholder followed by one option per device, in order
func Options(devices []audio.Device) []Option {
	opts := make([]Option, 0, len(devices)+1)
	opts = append(opts, Option{
		Value:    PlaceholderValue,
		Label:    PlaceholderLabel,
		Disabled: true,
	})
	for _, d := range devices {
		opts = append(opts, Option{Value: d.ID, Label: Label(d)})
	}
	return opts
}

// Value is the value the control currently shows
func (p Props) Value() string {
	return ResolveDisplayValue(p.Devices, p.SelectedDeviceID)
}

// Options is shorthand for Options(p.Devices)
func (p Props) Options() []Option {
	return Options(p.Devices)
}

// Change handles a user selection of value. The callback fires once with
// the matching device. A value that matches no device (only the disabled
// placeholder can produce one) is ignored and reported as false.
func (p Props) Change(value string) bool {
	d, ok := Find(p.Devices, value)
	if !ok {
		return false
	}
	if p.SetDevice != nil {
		p.SetDevice(d)
	}
	return true
}
