// SPDX-License-Identifier: EPL-2.0

package capture

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/ik5/emotalk/utils"
)

const bitDepth = 16

// writeWAVFile stores interleaved float samples as 16-bit PCM at path,
// quantized the same way as the in-memory encoder.
func writeWAVFile(path string, sampleRate, channels int, samples []float32) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating recording: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing recording: %w", cerr)
		}
	}()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(utils.Float32ToInt16(s))
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding recording: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing recording: %w", err)
	}

	return nil
}
