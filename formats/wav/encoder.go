// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ik5/emotalk/audio"
	"github.com/ik5/emotalk/utils"
)

const (
	// HeaderSize is the length of the canonical RIFF/fmt/data header.
	HeaderSize = 44

	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
	formatPCM      = 1
	fmtChunkSize   = 16
	// riff size counts everything after the first 8 bytes
	riffOverhead = HeaderSize - 8
)

// EncodedSize is the exact length Encode produces for the given shape.
func EncodedSize(channels, frames int) int {
	return HeaderSize + frames*channels*bytesPerSample
}

// Encode serializes buf as a canonical 16-bit PCM RIFF/WAVE file.
//
// Samples are clamped to [-1, 1] and quantized with utils.Float32ToInt16,
// then interleaved frame by frame: channel 0 first, up to the last channel,
// before moving to the next frame. A buffer with no frames yields a 44-byte
// header with an empty data chunk. buf is never modified.
func Encode(buf *audio.Buffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	channels := buf.NumChannels()
	frames := buf.Frames()

	dataSize, err := checkShape(buf.SampleRate, channels, frames)
	if err != nil {
		return nil, err
	}

	out := make([]byte, EncodedSize(channels, frames))
	putHeader(out, buf.SampleRate, channels, dataSize)

	pos := HeaderSize
	for f := range frames {
		for c := range channels {
			binary.LittleEndian.PutUint16(out[pos:], uint16(utils.Float32ToInt16(buf.Channels[c][f])))
			pos += bytesPerSample
		}
	}

	return out, nil
}

// EncodeSource drains src and encodes it. src is not closed.
func EncodeSource(src audio.Source) ([]byte, error) {
	buf, err := audio.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return Encode(buf)
}

// checkShape verifies every header field fits its width and returns the
// data chunk size.
func checkShape(sampleRate, channels, frames int) (uint32, error) {
	if channels > math.MaxUint16/bytesPerSample {
		return 0, fmt.Errorf("%w: %d", ErrTooManyChannels, channels)
	}

	data := uint64(frames) * uint64(channels) * bytesPerSample
	if data > math.MaxUint32-riffOverhead {
		return 0, fmt.Errorf("%w: %d data bytes", ErrTooLarge, data)
	}

	if uint64(sampleRate)*uint64(channels)*bytesPerSample > math.MaxUint32 {
		return 0, fmt.Errorf("%w: byte rate overflows at %d Hz", ErrTooLarge, sampleRate)
	}

	return uint32(data), nil
}

// putHeader writes the 44-byte header into h.
func putHeader(h []byte, sampleRate, channels int, dataSize uint32) {
	blockAlign := uint16(channels * bytesPerSample)

	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], riffOverhead+dataSize)
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], fmtChunkSize)
	binary.LittleEndian.PutUint16(h[20:22], formatPCM)
	binary.LittleEndian.PutUint16(h[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(sampleRate)*uint32(blockAlign))
	binary.LittleEndian.PutUint16(h[32:34], blockAlign)
	binary.LittleEndian.PutUint16(h[34:36], bitsPerSample)

	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataSize)
}
