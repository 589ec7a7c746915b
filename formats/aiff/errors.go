// SPDX-License-Identifier: EPL-2.0

package aiff

import "errors"

var (
	ErrNotAiffFile = errors.New("not an AIFF file")
	// ErrUnsupportedBitDepth is returned for depths other than 16, 24 and 32.
	ErrUnsupportedBitDepth = errors.New("unsupported AIFF bit depth")
)
