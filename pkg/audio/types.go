// ABOUTME: Audio type definitions
// ABOUTME: Defines output devices, stream formats and sample conversions
package audio

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Device describes an audio output endpoint
type Device struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

// Format describes the PCM format an output is opened with
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultDevice returns the first device flagged as system default
func DefaultDevice(devices []Device) (Device, bool) {
	for _, d := range devices {
		if d.IsDefault {
			return d, true
		}
	}
	return Device{}, false
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}
