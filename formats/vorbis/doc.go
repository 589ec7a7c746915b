// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis uploads with
// github.com/jfreymuth/oggvorbis.
//
// The source keeps the stream's own channel layout and sample rate. Samples
// arrive interleaved and already normalized, so no conversion happens on
// the read path.
package vorbis
