// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize    = errors.New("dst size must be multiple of channels")
	ErrInvalidSampleRate = errors.New("sample rate must be at least 1 Hz")
	ErrNoChannels        = errors.New("audio must have at least one channel")
	ErrRaggedChannels    = errors.New("all channels must have the same number of frames")
	ErrUnknownFormat     = errors.New("unknown audio format")
)
