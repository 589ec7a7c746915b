// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"math"
	"testing"
)

func drain(t *testing.T, src Source, bufSize int) []float32 {
	t.Helper()

	var out []float32
	buf := make([]float32, bufSize)
	for range 1_000_000 {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
	t.Fatal("source never reached EOF")

	return nil
}

func TestResampler_OutputLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		srcRate  int
		dstRate  int
		channels int
		frames   int
	}{
		{name: "44.1k to 16k mono", srcRate: 44100, dstRate: 16000, channels: 1, frames: 44100},
		{name: "48k to 16k stereo", srcRate: 48000, dstRate: 16000, channels: 2, frames: 4800},
		{name: "8k to 16k mono", srcRate: 8000, dstRate: 16000, channels: 1, frames: 8000},
		{name: "22.05k to 44.1k stereo", srcRate: 22050, dstRate: 44100, channels: 2, frames: 2205},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewResampler(newConstSource(tt.srcRate, tt.channels, tt.frames, 0.25), tt.dstRate)
			if r.SampleRate() != tt.dstRate || r.Channels() != tt.channels {
				t.Fatalf("resampler shape = %d Hz / %d ch", r.SampleRate(), r.Channels())
			}

			out := drain(t, r, 1024*tt.channels)
			gotFrames := len(out) / tt.channels
			wantFrames := float64(tt.frames) * float64(tt.dstRate) / float64(tt.srcRate)

			if math.Abs(float64(gotFrames)-wantFrames) > 2 {
				t.Errorf("frames = %d, want about %.0f", gotFrames, wantFrames)
			}

			for i, s := range out {
				if math.Abs(float64(s)-0.25) > 1e-5 {
					t.Fatalf("sample %d = %v, constant input must stay 0.25", i, s)
				}
			}
		})
	}
}

func TestResampler_SameRatePassthrough(t *testing.T) {
	t.Parallel()

	src := newRampSource(16000, 2, 100)
	out := drain(t, NewResampler(src, 16000), 64)

	if len(out) != 200 {
		t.Fatalf("len = %d, want 200", len(out))
	}
	for f := range 100 {
		if out[2*f] != rampValue(f, 0) || out[2*f+1] != rampValue(f, 1) {
			t.Fatalf("frame %d changed in passthrough", f)
		}
	}
}

func TestResampler_UpsampleHitsSourceFrames(t *testing.T) {
	t.Parallel()

	// Doubling the rate puts every even output frame on a source frame.
	out := drain(t, NewResampler(newRampSource(8000, 1, 200), 16000), 128)

	for f := 0; f < 198; f++ {
		if got, want := out[2*f], rampValue(f, 0); math.Abs(float64(got-want)) > 1e-5 {
			t.Fatalf("out[%d] = %v, want %v", 2*f, got, want)
		}
	}
}

func TestResampler_SineStaysBounded(t *testing.T) {
	t.Parallel()

	src := &sineSource{rampSource: rampSource{rate: 48000, channels: 1, frames: 48000}, freq: 440}
	out := drain(t, NewResampler(src, 16000), 4096)

	var peak float64
	for _, s := range out {
		peak = max(peak, math.Abs(float64(s)))
	}
	if peak > 1.05 || peak < 0.5 {
		t.Errorf("peak = %v, want a 440 Hz tone to survive near unit amplitude", peak)
	}
}

func TestResampler_InvalidDstSize(t *testing.T) {
	t.Parallel()

	r := NewResampler(newRampSource(44100, 2, 100), 16000)
	if _, err := r.ReadSamples(make([]float32, 3)); !errors.Is(err, ErrInvalidDstSize) {
		t.Errorf("ReadSamples() error = %v, want ErrInvalidDstSize", err)
	}
}

func TestResampler_EmptySource(t *testing.T) {
	t.Parallel()

	r := NewResampler(newRampSource(44100, 1, 0), 16000)
	n, err := r.ReadSamples(make([]float32, 16))
	if n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() = %d, %v; want 0, EOF", n, err)
	}
}

func TestResampler_SingleFrame(t *testing.T) {
	t.Parallel()

	out := drain(t, NewResampler(newConstSource(8000, 1, 1, 0.75), 16000), 16)
	if len(out) == 0 || out[0] != 0.75 {
		t.Errorf("single frame output = %v, want leading 0.75", out)
	}
}

func TestResampler_Close(t *testing.T) {
	t.Parallel()

	src := newRampSource(8000, 1, 10)
	if err := NewResampler(src, 16000).Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !src.closed {
		t.Error("Close() did not close the source")
	}
}

type sineSource struct {
	rampSource
	freq float64
}

func (s *sineSource) ReadSamples(dst []float32) (int, error) {
	start := s.pos
	n, err := s.rampSource.ReadSamples(dst)
	for i := range n {
		t := float64(start+i) / float64(s.rate)
		dst[i] = float32(math.Sin(2 * math.Pi * s.freq * t))
	}

	return n, err
}
