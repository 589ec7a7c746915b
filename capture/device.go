// SPDX-License-Identifier: EPL-2.0

package capture

import (
	"context"
	"errors"
	"fmt"
)

// Device is an opened input stream delivering interleaved float32 samples.
type Device interface {
	Name() string
	SampleRate() int
	Channels() int
	// Start begins delivering samples to onData, which runs on the
	// backend's audio thread and must not retain the slice.
	Start(onData func(samples []float32)) error
	Stop() error
	Close() error
}

// DeviceInfo describes an available input device.
type DeviceInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// Lister enumerates input devices.
type Lister interface {
	Devices() ([]DeviceInfo, error)
}

// Strategy is one way of opening a device, such as a named device or the
// system default at a fixed rate.
type Strategy struct {
	Name string
	Open func(ctx context.Context) (Device, error)
}

// Acquire tries the strategies in order and returns the first device that
// opens along with the name of the strategy that produced it. When all of
// them fail the error joins ErrNoDevice with every individual failure.
func Acquire(ctx context.Context, strategies ...Strategy) (Device, string, error) {
	errs := []error{ErrNoDevice}

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrNoDevice, err)
		}

		dev, err := s.Open(ctx)
		if err == nil {
			return dev, s.Name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}

	return nil, "", errors.Join(errs...)
}
