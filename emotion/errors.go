// SPDX-License-Identifier: EPL-2.0

package emotion

import (
	"errors"
	"fmt"
)

var (
	ErrSessionClosed = errors.New("emotion session is closed")
	ErrNoDetector    = errors.New("no emotion detector configured")
)

// DetectorError reports a failed call to the analysis service.
type DetectorError struct {
	Endpoint string
	Err      error
}

func (e *DetectorError) Error() string {
	return fmt.Sprintf("emotion detector %s: %v", e.Endpoint, e.Err)
}

func (e *DetectorError) Unwrap() error { return e.Err }
