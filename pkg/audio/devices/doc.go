// ABOUTME: Audio output device enumeration package
// ABOUTME: Lists playback devices through malgo, PortAudio or a fixed list
// Package devices enumerates audio output devices.
//
// Backends:
//   - malgo (miniaudio), the default
//   - portaudio, when built with -tags portaudio
//   - static, a fixed list used by tests and headless setups
//
// Example:
//
//	enum, err := devices.New("malgo")
//	list, err := enum.OutputDevices(ctx)
//	for _, d := range list {
//	    fmt.Println(d.ID, d.Name, d.IsDefault)
//	}
package devices
