// ABOUTME: Preview clip decoding package
// ABOUTME: Turns MP3 files into audio.Source values for device previews
// Package decode opens audio files as preview sources.
//
// MP3 is decoded with go-mp3, which always yields 16-bit little-endian
// stereo; samples are widened to the library's int32 24-bit range.
//
// Example:
//
//	src, err := decode.OpenMP3("chime.mp3", true)
//	defer src.Close()
//	n, err := src.Read(buf)
package decode
