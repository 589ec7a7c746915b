// SPDX-License-Identifier: EPL-2.0

package emotalk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/ik5/emotalk/audio"
	"github.com/ik5/emotalk/formats/vorbis"
	"github.com/ik5/emotalk/formats/wav"
	"github.com/ik5/emotalk/internal/audiotest"
)

func TestNewRegistry_Lookup(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	tests := []struct {
		name string
		want string
	}{
		{"wav", "wav"},
		{"clip.WAV", "wav"},
		{"audio/x-wav", "wav"},
		{"audio/wav; codecs=1", "wav"},
		{"song.mp3", "mp3"},
		{"audio/mpeg", "mp3"},
		{"voice.oga", "ogg"},
		{"audio/ogg; codecs=vorbis", "ogg"},
		{"take.aif", "aiff"},
		{"audio/x-aiff", "aiff"},
	}

	for _, tt := range tests {
		if _, got, ok := reg.Lookup(tt.name); !ok || got != tt.want {
			t.Errorf("Lookup(%q) = %q, %v, want %q", tt.name, got, ok, tt.want)
		}
	}

	if _, _, ok := reg.Lookup("audio/webm; codecs=opus"); ok {
		t.Error("webm resolved to a decoder")
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	data := audiotest.WAV16(8000, 2, []int16{1, 2, 3, 4})

	tests := []struct {
		name string
		r    io.Reader
		hint string
	}{
		{name: "by name", r: bytes.NewReader(data), hint: "upload.wav"},
		{name: "by mime", r: bytes.NewReader(data), hint: "audio/wav"},
		{name: "sniffed seekable", r: bytes.NewReader(data), hint: ""},
		{name: "sniffed stream", r: io.MultiReader(bytes.NewReader(data)), hint: "blob"},
		{name: "unknown hint falls back", r: bytes.NewReader(data), hint: "audio/webm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, err := Decode(reg, tt.r, tt.hint)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			buf, err := audio.ReadAll(src)
			if err != nil {
				t.Fatal(err)
			}
			if buf.SampleRate != 8000 || buf.NumChannels() != 2 || buf.Frames() != 2 {
				t.Errorf("decoded %d Hz %d ch %d frames", buf.SampleRate, buf.NumChannels(), buf.Frames())
			}
		})
	}
}

func TestDecode_Unknown(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{nil, []byte("\x1aE\xdf\xa3webm-ish bytes")} {
		_, err := Decode(NewRegistry(), bytes.NewReader(data), "audio/webm")
		if !errors.Is(err, audio.ErrUnknownFormat) {
			t.Errorf("Decode() error = %v, want %v", err, audio.ErrUnknownFormat)
		}
	}
}

func TestDecode_WrongHint(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	data := audiotest.WAV16(22050, 1, []int16{5, -5, 7})

	for _, hint := range []string{"clip.ogg", "audio/ogg"} {
		src, err := Decode(reg, bytes.NewReader(data), hint)
		if err != nil {
			t.Fatalf("Decode(%q) error = %v", hint, err)
		}

		buf, err := audio.ReadAll(src)
		if err != nil {
			t.Fatal(err)
		}
		if buf.SampleRate != 22050 || buf.NumChannels() != 1 || buf.Frames() != 3 {
			t.Errorf("Decode(%q) = %d Hz %d ch %d frames", hint, buf.SampleRate, buf.NumChannels(), buf.Frames())
		}
	}
}

func TestDecode_WrongHintNoFallback(t *testing.T) {
	t.Parallel()

	wavData := audiotest.WAV16(8000, 1, []int16{1, 2})

	tests := []struct {
		name string
		r    io.Reader
	}{
		{name: "stream", r: struct{ io.Reader }{bytes.NewReader(wavData)}},
		{name: "garbage", r: bytes.NewReader([]byte("definitely not audio at all"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(NewRegistry(), tt.r, "audio/ogg")
			if !errors.Is(err, vorbis.ErrNotVorbisFile) {
				t.Errorf("Decode() error = %v, want %v", err, vorbis.ErrNotVorbisFile)
			}
		})
	}
}

func TestConvertToWAV(t *testing.T) {
	t.Parallel()

	in := audiotest.WAV16(16000, 2, []int16{16383, -32768, -16384, 0, 32767, 16383})
	src, err := Decode(NewRegistry(), bytes.NewReader(in), "wav")
	if err != nil {
		t.Fatal(err)
	}

	out, err := ConvertToWAV(src)
	if err != nil {
		t.Fatalf("ConvertToWAV() error = %v", err)
	}

	if len(out) != len(in) || !bytes.Equal(out[:wav.HeaderSize], in[:wav.HeaderSize]) {
		t.Fatalf("header changed:\n got %x\nwant %x", out[:min(len(out), wav.HeaderSize)], in[:wav.HeaderSize])
	}

	// truncation may land one step below the original value
	for i := wav.HeaderSize; i < len(in); i += 2 {
		got := int(int16(binary.LittleEndian.Uint16(out[i:])))
		want := int(int16(binary.LittleEndian.Uint16(in[i:])))
		if got-want > 1 || want-got > 1 {
			t.Errorf("sample %d = %d, want %d", (i-wav.HeaderSize)/2, got, want)
		}
	}
}

func TestConvertToWAV_ClosesSource(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(8000, 1, 10)
	if _, err := ConvertToWAV(src); err != nil {
		t.Fatal(err)
	}
	if !src.Closed() {
		t.Error("source left open")
	}
}
