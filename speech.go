// SPDX-License-Identifier: EPL-2.0

package emotalk

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/emotalk/audio"
	"github.com/ik5/emotalk/formats/wav"
	"github.com/ik5/emotalk/utils"
)

// SpeechRate is the sample rate whisper-style recognizers expect.
const SpeechRate = 16000

// ResampleToMono16 runs src through a resampler and a mono mixer and
// collects the result as 16-bit PCM, quantized like the WAV encoder.
// bufferSize is the read size in samples. src is not closed.
func ResampleToMono16(src audio.Source, targetRate int, bufferSize int) ([]int16, int, error) {
	if targetRate < 1 {
		return nil, 0, fmt.Errorf("%w: %d", audio.ErrInvalidSampleRate, targetRate)
	}
	if bufferSize < 1 {
		bufferSize = src.BufSize()
	}

	mono := audio.NewMonoMixer(audio.NewResampler(src, targetRate))

	// a couple of seconds covers most voice clips without regrowing
	pcm16 := make([]int16, 0, targetRate*2)
	buf := make([]float32, bufferSize)

	for {
		n, err := mono.ReadSamples(buf)
		if n > 0 {
			start := len(pcm16)
			pcm16 = append(pcm16, make([]int16, n)...)
			utils.Float32sToInt16s(pcm16[start:], buf[:n])
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, targetRate, fmt.Errorf("%w", err)
		}
	}

	return pcm16, targetRate, nil
}

// ToSpeechWAV writes src to w as a mono 16-bit WAV at rate Hz, the shape
// the transcription service accepts. A rate below 1 selects SpeechRate.
func ToSpeechWAV(w io.Writer, src audio.Source, rate int) error {
	if rate < 1 {
		rate = SpeechRate
	}

	pcm, rate, err := ResampleToMono16(src, rate, 4096)
	if err != nil {
		return err
	}

	return wav.WriteWAV16(w, rate, 1, pcm)
}
