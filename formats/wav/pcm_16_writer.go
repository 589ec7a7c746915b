// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ik5/emotalk/audio"
)

// WriteWAV16 writes already-quantized interleaved 16-bit PCM as a WAV
// stream. Samples are flushed in fixed-size chunks so large clips never
// need a second full-size copy in memory.
func WriteWAV16(w io.Writer, sampleRate, channels int, samples []int16) error {
	if sampleRate < 1 {
		return fmt.Errorf("%w: got %d", audio.ErrInvalidSampleRate, sampleRate)
	}
	if channels < 1 || len(samples)%channels != 0 {
		return fmt.Errorf("%w: %d samples over %d channels", ErrPartialFrame, len(samples), channels)
	}

	dataSize, err := checkShape(sampleRate, channels, len(samples)/channels)
	if err != nil {
		return err
	}

	header := make([]byte, HeaderSize)
	putHeader(header, sampleRate, channels, dataSize)
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("%w", err)
	}

	const chunkSize = 8192
	if len(samples) == 0 {
		return nil
	}

	buf := make([]byte, min(len(samples), chunkSize)*bytesPerSample)
	for i := 0; i < len(samples); i += chunkSize {
		chunk := samples[i:min(i+chunkSize, len(samples))]
		out := buf[:len(chunk)*bytesPerSample]

		for j, s := range chunk {
			binary.LittleEndian.PutUint16(out[j*bytesPerSample:], uint16(s))
		}

		if _, err := w.Write(out); err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	return nil
}
