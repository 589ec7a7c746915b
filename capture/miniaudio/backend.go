// SPDX-License-Identifier: EPL-2.0

// Package miniaudio opens microphones through miniaudio (malgo).
package miniaudio

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/ik5/emotalk/capture"
	"github.com/rs/zerolog"
)

// Backend owns a miniaudio context shared by every device it opens.
type Backend struct {
	log zerolog.Logger

	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	closed bool
}

// New initializes the miniaudio context. It fails on hosts without any
// audio backend.
func New(log zerolog.Logger) (*Backend, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		log.Debug().Str("source", "miniaudio").Msg(strings.TrimSpace(msg))
	})
	if err != nil {
		return nil, fmt.Errorf("initializing audio context: %w", err)
	}

	return &Backend{log: log, ctx: ctx}, nil
}

// Devices lists capture devices.
func (b *Backend) Devices() ([]capture.DeviceInfo, error) {
	infos, err := b.captureDevices()
	if err != nil {
		return nil, err
	}

	out := make([]capture.DeviceInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, capture.DeviceInfo{
			ID:      info.ID.String(),
			Name:    info.Name(),
			Default: info.IsDefault != 0,
		})
	}

	return out, nil
}

func (b *Backend) captureDevices() ([]malgo.DeviceInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, capture.ErrClosed
	}

	infos, err := b.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("listing capture devices: %w", err)
	}

	return infos, nil
}

// Strategies returns the ways to open a microphone, most specific first:
// the device called name (skipped when empty), the default device at the
// requested format, then the default device at its native rate.
func (b *Backend) Strategies(name string, sampleRate, channels int) []capture.Strategy {
	var out []capture.Strategy

	if name != "" {
		out = append(out, capture.Strategy{
			Name: "named device " + name,
			Open: func(context.Context) (capture.Device, error) {
				return b.openNamed(name, sampleRate, channels)
			},
		})
	}

	out = append(out,
		capture.Strategy{
			Name: fmt.Sprintf("default device at %d Hz", sampleRate),
			Open: func(context.Context) (capture.Device, error) {
				return b.open(nil, "default", sampleRate, channels)
			},
		},
		capture.Strategy{
			Name: "default device at native rate",
			Open: func(context.Context) (capture.Device, error) {
				return b.open(nil, "default", 0, channels)
			},
		},
	)

	return out
}

func (b *Backend) openNamed(name string, sampleRate, channels int) (capture.Device, error) {
	infos, err := b.captureDevices()
	if err != nil {
		return nil, err
	}

	info, ok := findDevice(infos, name)
	if !ok {
		return nil, fmt.Errorf("no capture device matches %q", name)
	}

	id := info.ID
	return b.open(&id, info.Name(), sampleRate, channels)
}

// findDevice matches name exactly first, then as a case-insensitive
// substring.
func findDevice(infos []malgo.DeviceInfo, name string) (malgo.DeviceInfo, bool) {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}

	i := matchName(names, name)
	if i < 0 {
		return malgo.DeviceInfo{}, false
	}

	return infos[i], true
}

func matchName(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}

	want := strings.ToLower(name)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			return i
		}
	}

	return -1
}

func (b *Backend) open(id *malgo.DeviceID, name string, sampleRate, channels int) (capture.Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, capture.ErrClosed
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = uint32(channels)
	cfg.SampleRate = uint32(sampleRate)
	if id != nil {
		cfg.Capture.DeviceID = id.Pointer()
	}

	if runtime.GOOS == "linux" {
		cfg.Alsa.NoMMap = 1
	}

	d := &device{name: name, channels: channels}
	dev, err := malgo.InitDevice(b.ctx.Context, cfg, malgo.DeviceCallbacks{Data: d.onCapture})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	d.dev = dev
	d.rate = int(dev.SampleRate())

	b.log.Debug().Str("device", name).Int("sample_rate", d.rate).Int("channels", channels).Msg("capture device opened")

	return d, nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	err := b.ctx.Uninit()
	b.ctx.Free()

	return err
}
