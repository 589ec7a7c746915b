// SPDX-License-Identifier: EPL-2.0

// Package emotion keeps track of the emotions detected on the webcam feed.
//
// A Poller asks a Detector for a Reading every few seconds while the
// Session is capturing. The Session holds the latest reading, persists the
// dominant emotions to a JSON file capped at MaxHistory entries, and fans
// readings out to subscribers such as websocket clients.
package emotion
