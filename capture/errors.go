// SPDX-License-Identifier: EPL-2.0

package capture

import "errors"

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrBusy             = errors.New("previous recording is still being processed")
	ErrNotRecording     = errors.New("not recording")
	ErrNoAudio          = errors.New("no audio data to save")
	ErrNoDevice         = errors.New("no capture device could be opened")
	ErrClosed           = errors.New("recorder is closed")
)
