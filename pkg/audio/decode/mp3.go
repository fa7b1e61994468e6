// ABOUTME: MP3 preview source
// ABOUTME: Decodes an MP3 stream to int32 samples, optionally looping
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// MP3 is an audio.Source backed by an MP3 stream
type MP3 struct {
	decoder *mp3.Decoder
	closer  io.Closer
	loop    bool
	buf     []byte
}

// OpenMP3 opens an MP3 file as a preview source
func OpenMP3(path string, loop bool) (*MP3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	src, err := NewMP3(f, loop)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

// NewMP3 decodes MP3 data from r. Looping requires r to be seekable.
func NewMP3(r io.Reader, loop bool) (*MP3, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}
	return &MP3{
		decoder: decoder,
		loop:    loop,
	}, nil
}

// Read fills samples with decoded PCM. At end of stream it rewinds when
// looping, otherwise returns io.EOF.
func (s *MP3) Read(samples []int32) (int, error) {
	need := len(samples) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	n, err := io.ReadFull(s.decoder, buf)
	got := PCM16LE(buf[:n], samples)

	if err == nil {
		return got, nil
	}
	if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return got, fmt.Errorf("mp3 decode error: %w", err)
	}
	if !s.loop {
		if got > 0 {
			return got, nil
		}
		return 0, io.EOF
	}
	if _, err := s.decoder.Seek(0, io.SeekStart); err != nil {
		return got, fmt.Errorf("mp3 rewind failed: %w", err)
	}
	return got, nil
}

// SampleRate returns the stream sample rate
func (s *MP3) SampleRate() int {
	return s.decoder.SampleRate()
}

// Channels is always 2 for go-mp3 output
func (s *MP3) Channels() int {
	return 2
}

// Close closes the underlying file, if any
func (s *MP3) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
