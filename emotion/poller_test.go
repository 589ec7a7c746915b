// SPDX-License-Identifier: EPL-2.0

package emotion

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type scriptedDetector struct {
	calls   atomic.Int32
	results []Reading
	errs    []error
}

func (d *scriptedDetector) Detect(context.Context) (Reading, error) {
	i := int(d.calls.Add(1)) - 1
	if i < len(d.errs) && d.errs[i] != nil {
		return Reading{}, d.errs[i]
	}
	if i < len(d.results) {
		return d.results[i], nil
	}

	return reading("neutral"), nil
}

func TestPoller_PollSkipsFailures(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	boom := errors.New("camera busy")
	det := &scriptedDetector{
		results: []Reading{reading("happy"), {}, reading("sad")},
		errs:    []error{nil, boom, nil},
	}
	p := NewPoller(det, s, time.Hour, zerolog.Nop())

	ctx := context.Background()
	if err := p.Poll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.Poll(ctx); !errors.Is(err, boom) {
		t.Errorf("Poll() error = %v, want %v", err, boom)
	}
	if err := p.Poll(ctx); err != nil {
		t.Fatal(err)
	}

	h, err := s.History()
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Emotions) != 2 || h.Emotions[0].Emotion != "happy" || h.Emotions[1].Emotion != "sad" {
		t.Errorf("history = %v, want [happy sad]", h.Emotions)
	}
}

func TestPoller_NoDetector(t *testing.T) {
	t.Parallel()

	p := NewPoller(nil, newTestSession(t), 0, zerolog.Nop())
	if p.interval != DefaultInterval {
		t.Errorf("interval = %s, want %s", p.interval, DefaultInterval)
	}
	if err := p.Poll(context.Background()); !errors.Is(err, ErrNoDetector) {
		t.Errorf("Poll() error = %v, want %v", err, ErrNoDetector)
	}
}

func TestPoller_RunRespectsPause(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	if _, err := s.SetCapturing(false); err != nil {
		t.Fatal(err)
	}

	det := &scriptedDetector{}
	p := NewPoller(det, s, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if n := det.calls.Load(); n != 0 {
		t.Errorf("detector called %d times while paused", n)
	}
}

func TestPoller_RunPollsImmediately(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	det := &scriptedDetector{results: []Reading{reading("surprise")}}
	p := NewPoller(det, s, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for det.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first poll did not happen before the first tick")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := s.Current().Emotion; got != "surprise" {
		t.Errorf("Current() = %q, want surprise", got)
	}
}
