// SPDX-License-Identifier: EPL-2.0

package miniaudio

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

type device struct {
	name     string
	rate     int
	channels int
	dev      *malgo.Device

	mu     sync.Mutex
	onData func([]float32)
	buf    []float32
}

func (d *device) Name() string    { return d.name }
func (d *device) SampleRate() int { return d.rate }
func (d *device) Channels() int   { return d.channels }

func (d *device) Start(onData func([]float32)) error {
	d.mu.Lock()
	d.onData = onData
	d.mu.Unlock()

	return d.dev.Start()
}

func (d *device) Stop() error {
	err := d.dev.Stop()

	d.mu.Lock()
	d.onData = nil
	d.mu.Unlock()

	return err
}

func (d *device) Close() error {
	d.dev.Uninit()
	return nil
}

func (d *device) onCapture(_, input []byte, frameCount uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.onData == nil {
		return
	}

	n := int(frameCount) * d.channels
	d.buf = decodeF32(d.buf[:0], input, n)
	d.onData(d.buf)
}

// decodeF32 appends up to n little-endian float32 samples from b to dst.
func decodeF32(dst []float32, b []byte, n int) []float32 {
	if avail := len(b) / 4; n > avail {
		n = avail
	}

	for i := 0; i < n; i++ {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])))
	}

	return dst
}
