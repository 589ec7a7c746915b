// SPDX-License-Identifier: EPL-2.0

package transcribe

import (
	"errors"
	"fmt"
)

var ErrEmptyTranscript = errors.New("transcription is empty")

// APIError wraps a failed request to the speech recognition server,
// including the final failure after retries.
type APIError struct {
	Endpoint string
	Err      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transcription api %s: %v", e.Endpoint, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }
