// ABOUTME: Audio output package for playing audio on a chosen device
// ABOUTME: Provides the Output interface and malgo, oto and PortAudio backends
// Package output provides audio playback routed to a selected output device.
//
// Backends:
//   - Malgo: any playback device by id, empty id means system default
//   - Oto: system default only
//   - PortAudio: any output device by id (build with -tags portaudio)
//   - Discard: drops samples, records what it was asked to open
//
// Example:
//
//	out, err := output.New("malgo")
//	err = out.Open(device.ID, audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 16})
//	err = out.Write(samples)
package output
