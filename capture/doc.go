// SPDX-License-Identifier: EPL-2.0

// Package capture records microphone audio on the server.
//
// A Recorder moves from Idle to Recording on Start, to Processing while
// Stop writes the WAV file and runs the optional Processor, then back to
// Idle. Devices are opened through an ordered list of strategies; the first
// one that succeeds is used. The miniaudio subpackage provides the real
// backend.
package capture
