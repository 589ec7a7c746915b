// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds fixtures shared by the package tests: synthetic
// sources and hand-built WAV files. It does not import the audio package so
// that package can use it from its own tests.
package audiotest

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// Waveform returns the sample of channel ch at frame index frame.
type Waveform func(frame, ch int) float32

// MockSource generates interleaved samples from a Waveform.
// It satisfies audio.Source.
type MockSource struct {
	sampleRate int
	channels   int
	frames     int
	pos        int
	wave       Waveform
	closed     bool
}

// NewMockSource creates a source producing frames frames per channel.
func NewMockSource(sampleRate, channels, frames int, wave Waveform) *MockSource {
	return &MockSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		wave:       wave,
	}
}

func NewSilentSource(sampleRate, channels, frames int) *MockSource {
	return NewConstantSource(sampleRate, channels, frames, 0)
}

func NewConstantSource(sampleRate, channels, frames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(int, int) float32 { return value })
}

// NewSineSource generates the same sine tone on every channel.
func NewSineSource(sampleRate, channels, frames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed }

// Reset rewinds the source to its first frame.
func (m *MockSource) Reset() { m.pos = 0 }

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.pos >= m.frames {
		return 0, io.EOF
	}

	frames := min(len(dst)/m.channels, m.frames-m.pos)
	for f := range frames {
		for c := range m.channels {
			dst[f*m.channels+c] = m.wave(m.pos+f, c)
		}
	}
	m.pos += frames

	if m.pos >= m.frames {
		return frames * m.channels, io.EOF
	}

	return frames * m.channels, nil
}

// WAV16 builds a canonical 16-bit PCM WAV file from interleaved samples.
func WAV16(sampleRate, channels int, samples []int16) []byte {
	return WAV(sampleRate, channels, 16, samples)
}

// WAV builds a canonical PCM WAV file whose header claims bitsPerSample.
// Samples are always written as 16-bit values; callers testing other depths
// only use the header.
func WAV(sampleRate, channels, bitsPerSample int, samples []int16) []byte {
	buf := new(bytes.Buffer)
	dataSize := uint32(len(samples) * 2)

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*bitsPerSample/8))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels*bitsPerSample/8))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	_ = binary.Write(buf, binary.LittleEndian, samples)

	return buf.Bytes()
}
