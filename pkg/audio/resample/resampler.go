// ABOUTME: Linear resampler for converting preview audio sample rates
// ABOUTME: Interpolates across chunk boundaries by carrying unconsumed frames
package resample

import "math"

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
	pending    []int32 // interleaved frames not yet fully consumed
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	if channels < 1 {
		channels = 1
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Resample converts interleaved input at inputRate into output at
// outputRate and returns the number of output samples written. Input
// frames that could not be used yet are kept for the next call.
func (r *Resampler) Resample(input []int32, output []int32) int {
	stream := append(r.pending, input...)
	frames := len(stream) / r.channels
	outFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outFrames {
		idx := int(r.position)
		if idx+1 >= frames {
			break
		}

		frac := r.position - float64(idx)
		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(stream[idx*r.channels+ch])
			s2 := float64(stream[(idx+1)*r.channels+ch])
			output[outIdx*r.channels+ch] = int32(math.Round(s1*(1.0-frac) + s2*frac))
		}

		outIdx++
		r.position += r.ratio
	}

	consumed := int(r.position)
	if consumed > frames {
		consumed = frames
	}
	r.position -= float64(consumed)
	r.pending = append(r.pending[:0:0], stream[consumed*r.channels:frames*r.channels]...)

	return outIdx * r.channels
}

// Reset drops carried frames
func (r *Resampler) Reset() {
	r.position = 0
	r.pending = nil
}

// Pending returns the number of carried input frames
func (r *Resampler) Pending() int {
	return len(r.pending) / r.channels
}

// Ratio returns inputRate/outputRate
func (r *Resampler) Ratio() float64 {
	return r.ratio
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames)*r.ratio) + 1
	return inputFrames * r.channels
}
