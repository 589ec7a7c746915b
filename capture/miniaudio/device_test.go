// SPDX-License-Identifier: EPL-2.0

package miniaudio

import (
	"encoding/binary"
	"math"
	"testing"
)

func f32le(vals ...float32) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func TestDecodeF32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		n     int
		want  []float32
	}{
		{"all samples", f32le(0, 0.5, -1), 3, []float32{0, 0.5, -1}},
		{"count limits", f32le(0.25, 0.75), 1, []float32{0.25}},
		{"short buffer", f32le(0.25, 0.75), 5, []float32{0.25, 0.75}},
		{"trailing bytes", append(f32le(1), 0x01, 0x02), 2, []float32{1}},
		{"empty", nil, 4, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := decodeF32(nil, tt.input, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d samples, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDeviceDeliversOnlyWhileStarted(t *testing.T) {
	t.Parallel()

	d := &device{name: "test", rate: 16000, channels: 2}
	d.onCapture(nil, f32le(0.1, 0.2), 1)

	var got []float32
	d.onData = func(s []float32) { got = append(got, s...) }
	d.onCapture(nil, f32le(0.1, 0.2, 0.3, 0.4), 2)

	if len(got) != 4 || got[3] != 0.4 {
		t.Errorf("got %v", got)
	}
}

func TestMatchName(t *testing.T) {
	t.Parallel()

	names := []string{"Built-in Microphone", "USB Audio Device", "usb"}

	tests := []struct {
		name string
		want int
	}{
		{"usb", 2},
		{"USB Audio Device", 1},
		{"microphone", 0},
		{"headset", -1},
	}

	for _, tt := range tests {
		if got := matchName(names, tt.name); got != tt.want {
			t.Errorf("matchName(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestStrategiesOrder(t *testing.T) {
	t.Parallel()

	b := &Backend{}

	got := b.Strategies("USB", 44100, 1)
	want := []string{"named device USB", "default device at 44100 Hz", "default device at native rate"}
	if len(got) != len(want) {
		t.Fatalf("got %d strategies, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Errorf("strategy %d = %q, want %q", i, got[i].Name, want[i])
		}
	}

	if n := len(b.Strategies("", 44100, 1)); n != 2 {
		t.Errorf("without a name got %d strategies, want 2", n)
	}
}
