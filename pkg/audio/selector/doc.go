// ABOUTME: Output device selector package
// ABOUTME: Framework-free logic behind the audio output dropdown
// Package selector implements the audio output dropdown as pure functions
// over its three inputs: the device list, the selected device id and the
// change callback.
//
// The displayed value is re-derived on every render: it is the selected id
// when a listed device carries it, and the empty placeholder value
// otherwise. The placeholder option is always present and always disabled.
//
// Example:
//
//	props := selector.Props{
//	    Devices:          devices,
//	    SelectedDeviceID: current,
//	    SetDevice:        func(d audio.Device) { route(d) },
//	}
//	for _, opt := range selector.Options(props.Devices) {
//	    fmt.Println(opt.Value, opt.Label, opt.Value == props.Value())
//	}
//	props.Change("b")
package selector
