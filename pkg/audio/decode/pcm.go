// ABOUTME: PCM sample unpacking
// ABOUTME: Converts 16-bit little-endian PCM bytes to int32 samples
package decode

import (
	"encoding/binary"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
)

// PCM16LE unpacks 16-bit little-endian samples from data into dst and
// returns how many were written. A trailing odd byte is ignored.
func PCM16LE(data []byte, dst []int32) int {
	n := len(data) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return n
}
