// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile          = errors.New("not a WAV file")
	ErrUnsupportedEncoding = errors.New("only integer PCM WAV is supported")
	ErrPartialFrame        = errors.New("sample count must be a multiple of channels")
	ErrTooManyChannels     = errors.New("channel count does not fit the WAV header")
	ErrTooLarge            = errors.New("audio does not fit in a RIFF container")
)
