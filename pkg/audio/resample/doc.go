// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts preview audio between sample rates
// Package resample provides sample rate conversion for preview sources.
//
// Example:
//
//	src = resample.NewSource(clip, 48000)
package resample
