// SPDX-License-Identifier: EPL-2.0

// Package wav encodes and decodes PCM WAV files.
//
// # Encoding
//
// Encode turns a decoded audio.Buffer into a canonical 16-bit PCM
// RIFF/WAVE file: a fixed 44-byte header followed by interleaved
// little-endian int16 samples. The output length is always
// EncodedSize(channels, frames).
//
//	buf := &audio.Buffer{SampleRate: 16000, Channels: [][]float32{left, right}}
//	data, err := wav.Encode(buf)
//
// Samples are clamped to [-1, 1]. Negative values are scaled by 32768 and
// the rest by 32767, so -1.0 becomes -32768 and 1.0 becomes 32767.
//
// WriteWAV16 streams samples that are already int16 to any io.Writer.
//
// # Decoding
//
// Decoder reads signed integer PCM (16, 24 and 32 bit) through
// github.com/go-audio/wav and returns an audio.Source:
//
//	src, err := wav.Decoder{}.Decode(file)
//
// Float, compressed and extensible format tags are rejected with
// ErrUnsupportedEncoding.
package wav
