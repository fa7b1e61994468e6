// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines the Device record and sample conversion functions
// Package audio provides the types shared by the output selector and its
// audio backends.
//
// This package defines:
//   - Device: an audio output endpoint (id, display name, default flag)
//   - Format: the PCM format an output is opened with
//
// Samples travel through the library as int32 values left-justified in a
// 24-bit range, with helpers to convert to 16-bit, packed 24-bit and float.
//
// Example:
//
//	devices := []audio.Device{
//	    {ID: "a", Name: "Speakers", IsDefault: true},
//	    {ID: "b", Name: "Headset"},
//	}
//	def, ok := audio.DefaultDevice(devices)
package audio
