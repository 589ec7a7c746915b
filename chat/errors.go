// SPDX-License-Identifier: EPL-2.0

package chat

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyReply = errors.New("language model returned no text")
	ErrEmptyInput = errors.New("message is empty")
)

type APIError struct {
	Endpoint string
	Err      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat api %s: %v", e.Endpoint, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }
