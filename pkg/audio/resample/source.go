// ABOUTME: Preview source adapter converting to a fixed sample rate
// ABOUTME: Lets clips of any rate play through an output opened at one rate
package resample

import (
	"errors"
	"io"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
)

// Source wraps an audio.Source and resamples it to a fixed rate
type Source struct {
	src       audio.Source
	rate      int
	resampler *Resampler
	buf       []int32
	eof       bool
}

// NewSource returns src itself when it already runs at rate, otherwise a
// resampling wrapper.
func NewSource(src audio.Source, rate int) audio.Source {
	if src.SampleRate() == rate {
		return src
	}
	return &Source{
		src:       src,
		rate:      rate,
		resampler: New(src.SampleRate(), rate, src.Channels()),
	}
}

// Read fills samples at the target rate. It may return fewer samples than
// requested while the resampler is priming.
func (s *Source) Read(samples []int32) (int, error) {
	ch := s.src.Channels()
	samples = samples[:len(samples)/ch*ch]
	if len(samples) == 0 {
		return 0, nil
	}

	var err error
	n := 0
	if !s.eof {
		// carried frames count towards the request
		need := s.resampler.InputSamplesNeeded(len(samples)) - s.resampler.Pending()*ch
		if need < 0 {
			need = 0
		}
		if cap(s.buf) < need {
			s.buf = make([]int32, need)
		}
		n, err = s.src.Read(s.buf[:need])
		if errors.Is(err, io.EOF) {
			s.eof = true
			err = nil
		}
		if err != nil {
			return 0, err
		}
	}

	out := s.resampler.Resample(s.buf[:n], samples)
	if out == 0 && s.eof {
		return 0, io.EOF
	}
	return out, nil
}

// SampleRate returns the target rate
func (s *Source) SampleRate() int { return s.rate }

// Channels returns the wrapped source's channel count
func (s *Source) Channels() int { return s.src.Channels() }

// Close closes the wrapped source
func (s *Source) Close() error { return s.src.Close() }
