// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF uploads (16, 24 or 32 bit integer PCM) using
// github.com/go-audio/aiff.
//
// Samples are normalized with the same asymmetric scale the WAV encoder
// uses. Non-seekable readers are buffered in memory first.
package aiff
