// SPDX-License-Identifier: EPL-2.0

package server

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ik5/emotalk/capture"
	"github.com/ik5/emotalk/chat"
	"github.com/ik5/emotalk/emotion"
	"github.com/ik5/emotalk/transcribe"
	"github.com/rs/zerolog"
)

type fakeRecorder struct {
	startErr error
	stopRes  capture.Result
	stopErr  error
	status   capture.Status
}

func (f *fakeRecorder) Start(context.Context) error { return f.startErr }

func (f *fakeRecorder) Stop(context.Context) (capture.Result, error) {
	return f.stopRes, f.stopErr
}

func (f *fakeRecorder) Status() capture.Status { return f.status }

type fakeLister struct {
	devices []capture.DeviceInfo
	err     error
}

func (f fakeLister) Devices() ([]capture.DeviceInfo, error) { return f.devices, f.err }

type fakeTranscriber struct {
	text string
	err  error

	mu       sync.Mutex
	filename string
	body     []byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, filename string, r io.Reader) (transcribe.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return transcribe.Result{}, err
	}

	f.mu.Lock()
	f.filename, f.body = filename, data
	f.mu.Unlock()

	if f.err != nil {
		return transcribe.Result{}, f.err
	}

	return transcribe.Result{Text: f.text}, nil
}

func (f *fakeTranscriber) received() (string, []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filename, f.body
}

type fakeChat struct {
	reply string
	rec   chat.Recommendation
	err   error

	mu      sync.Mutex
	current emotion.Reading
	history []emotion.Entry
	text    string
}

func (f *fakeChat) Reply(_ context.Context, text string) (string, error) {
	if text == "" {
		return "", chat.ErrEmptyInput
	}
	return f.reply, f.err
}

func (f *fakeChat) Recommend(_ context.Context, text string, current emotion.Reading, history []emotion.Entry) (chat.Recommendation, error) {
	f.mu.Lock()
	f.text, f.current, f.history = text, current, history
	f.mu.Unlock()

	return f.rec, f.err
}

// blockingTranscriber holds Transcribe until release is closed.
type blockingTranscriber struct {
	text    string
	entered chan struct{}
	release chan struct{}
}

func (b *blockingTranscriber) Transcribe(ctx context.Context, _ string, r io.Reader) (transcribe.Result, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return transcribe.Result{}, err
	}

	close(b.entered)
	select {
	case <-b.release:
	case <-ctx.Done():
		return transcribe.Result{}, ctx.Err()
	}

	return transcribe.Result{Text: b.text}, nil
}

// fakeMic delivers feed as soon as it starts.
type fakeMic struct {
	rate     int
	channels int
	feed     []float32
}

func (m *fakeMic) Name() string    { return "fake mic" }
func (m *fakeMic) SampleRate() int { return m.rate }
func (m *fakeMic) Channels() int   { return m.channels }
func (m *fakeMic) Stop() error     { return nil }
func (m *fakeMic) Close() error    { return nil }

func (m *fakeMic) Start(onData func([]float32)) error {
	onData(append([]float32(nil), m.feed...))
	return nil
}

var testTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestSession(t *testing.T) *emotion.Session {
	t.Helper()

	sess, err := emotion.NewSession(t.TempDir(), emotion.WithClock(func() time.Time { return testTime }))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })

	return sess
}

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()

	if deps.Session == nil {
		deps.Session = newTestSession(t)
	}

	s, err := New(Config{Addr: "127.0.0.1:0"}, deps, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.now = func() time.Time { return testTime }

	return s
}
