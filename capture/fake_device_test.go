// SPDX-License-Identifier: EPL-2.0

package capture

import (
	"context"
	"errors"
	"sync"
)

type fakeDevice struct {
	name     string
	rate     int
	channels int
	feed     []float32
	startErr error

	mu      sync.Mutex
	started bool
	stopped bool
	closed  bool
}

func (d *fakeDevice) Name() string    { return d.name }
func (d *fakeDevice) SampleRate() int { return d.rate }
func (d *fakeDevice) Channels() int   { return d.channels }

func (d *fakeDevice) Start(onData func([]float32)) error {
	if d.startErr != nil {
		return d.startErr
	}

	d.mu.Lock()
	d.started = true
	d.mu.Unlock()

	if len(d.feed) > 0 {
		onData(append([]float32(nil), d.feed...))
	}

	return nil
}

func (d *fakeDevice) Stop() error {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) state() (started, stopped, closed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started, d.stopped, d.closed
}

func openWith(name string, dev *fakeDevice) Strategy {
	return Strategy{
		Name: name,
		Open: func(context.Context) (Device, error) { return dev, nil },
	}
}

func failWith(name string, err error) Strategy {
	return Strategy{
		Name: name,
		Open: func(context.Context) (Device, error) { return nil, err },
	}
}

var errUnplugged = errors.New("device unplugged")
