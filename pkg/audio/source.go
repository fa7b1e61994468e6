// ABOUTME: Audio source interface
// ABOUTME: Pull-based PCM source used to preview an output device
package audio

// Source produces interleaved int32 PCM samples
type Source interface {
	// Read fills samples and returns how many were written
	Read(samples []int32) (int, error)

	SampleRate() int
	Channels() int

	// Close releases source resources
	Close() error
}
