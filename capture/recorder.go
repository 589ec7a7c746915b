// SPDX-License-Identifier: EPL-2.0

package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const filePattern = "audio_recording_*.wav"

// Processor runs on a finished recording, for example to transcribe it,
// and returns text to attach to the Result. The recorder stays in the
// Processing state until it returns, so the file cannot be replaced by a
// new recording while it is read.
type Processor func(ctx context.Context, path string) (string, error)

// Status is a snapshot of the recorder. Duration is in seconds.
type Status struct {
	IsRecording bool    `json:"is_recording"`
	State       State   `json:"state"`
	FilePath    string  `json:"file_path,omitempty"`
	Device      string  `json:"device,omitempty"`
	Duration    float64 `json:"duration"`
}

// Result describes a saved recording.
type Result struct {
	Path       string
	SampleRate int
	Channels   int
	Frames     int
	Duration   time.Duration
	// Text is the processor's output.
	Text string
}

// Recorder captures microphone audio into temporary WAV files, one
// recording at a time.
type Recorder struct {
	dir        string
	strategies []Strategy
	processor  Processor
	log        zerolog.Logger

	mu       sync.Mutex
	state    State
	dev      Device
	devName  string
	path     string
	rate     int
	channels int
	closed   bool
	// length of the last saved recording
	lastDuration time.Duration

	dataMu  sync.Mutex
	samples []float32
}

type Option func(*Recorder)

func WithProcessor(p Processor) Option {
	return func(r *Recorder) { r.processor = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Recorder) { r.log = l }
}

// NewRecorder creates an idle recorder storing files in dir (os.TempDir
// when empty). Each Start opens a device through the strategies in order.
func NewRecorder(dir string, strategies []Strategy, opts ...Option) *Recorder {
	if dir == "" {
		dir = os.TempDir()
	}

	r := &Recorder{
		dir:        dir,
		strategies: strategies,
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}

	return r
}

func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.closed:
		return ErrClosed
	case r.state == Recording:
		return ErrAlreadyRecording
	case r.state == Processing:
		return ErrBusy
	}

	dev, strategy, err := Acquire(ctx, r.strategies...)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(r.dir, filePattern)
	if err != nil {
		_ = dev.Close()
		return fmt.Errorf("creating recording file: %w", err)
	}
	path := f.Name()
	_ = f.Close()

	r.dataMu.Lock()
	r.samples = r.samples[:0]
	r.dataMu.Unlock()

	if err := dev.Start(r.onData); err != nil {
		_ = dev.Close()
		_ = os.Remove(path)
		return fmt.Errorf("starting %s: %w", dev.Name(), err)
	}

	r.removeFile()
	r.lastDuration = 0
	r.dev, r.devName, r.path = dev, dev.Name(), path
	r.rate, r.channels = dev.SampleRate(), dev.Channels()
	r.state = Recording

	r.log.Info().
		Str("device", r.devName).
		Str("strategy", strategy).
		Int("sample_rate", r.rate).
		Int("channels", r.channels).
		Str("file", path).
		Msg("recording started")

	return nil
}

func (r *Recorder) onData(samples []float32) {
	r.dataMu.Lock()
	r.samples = append(r.samples, samples...)
	r.dataMu.Unlock()
}

// Stop ends the recording, writes the WAV file and runs the processor.
// A processor error is returned alongside the saved result.
func (r *Recorder) Stop(ctx context.Context) (Result, error) {
	r.mu.Lock()
	if r.state != Recording {
		r.mu.Unlock()
		return Result{}, ErrNotRecording
	}

	dev := r.dev
	r.dev = nil
	if err := dev.Stop(); err != nil {
		r.log.Warn().Err(err).Str("device", r.devName).Msg("stopping device")
	}
	if err := dev.Close(); err != nil {
		r.log.Warn().Err(err).Str("device", r.devName).Msg("closing device")
	}

	r.dataMu.Lock()
	samples := r.samples
	r.samples = nil
	r.dataMu.Unlock()

	frames := len(samples) / r.channels
	if frames == 0 {
		r.state = Idle
		r.removeFile()
		r.mu.Unlock()
		return Result{}, ErrNoAudio
	}

	res := Result{
		Path:       r.path,
		SampleRate: r.rate,
		Channels:   r.channels,
		Frames:     frames,
		Duration:   time.Duration(frames) * time.Second / time.Duration(r.rate),
	}
	r.state = Processing
	r.mu.Unlock()

	err := writeWAVFile(res.Path, res.SampleRate, res.Channels, samples[:frames*res.Channels])
	if err == nil && r.processor != nil {
		text, perr := r.processor(ctx, res.Path)
		if perr != nil {
			err = fmt.Errorf("processing recording: %w", perr)
		}
		res.Text = text
	}

	r.mu.Lock()
	r.state = Idle
	r.lastDuration = res.Duration
	r.mu.Unlock()

	if err != nil {
		r.log.Error().Err(err).Str("file", res.Path).Msg("recording not completed")
		return res, err
	}

	r.log.Info().Str("file", res.Path).Dur("duration", res.Duration).Msg("recording saved")

	return res, nil
}

func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{
		IsRecording: r.state == Recording,
		State:       r.state,
		FilePath:    r.path,
		Device:      r.devName,
	}

	if r.state == Recording && r.rate > 0 && r.channels > 0 {
		r.dataMu.Lock()
		frames := len(r.samples) / r.channels
		r.dataMu.Unlock()
		st.Duration = float64(frames) / float64(r.rate)
	} else {
		st.Duration = r.lastDuration.Seconds()
	}

	return st
}

// removeFile deletes the last recording. Callers hold mu.
func (r *Recorder) removeFile() {
	if r.path == "" {
		return
	}
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.log.Warn().Err(err).Str("file", r.path).Msg("removing recording")
	}
	r.path = ""
}

// Close stops an active recording without saving it and deletes the last
// recording file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.dev != nil {
		err = errors.Join(r.dev.Stop(), r.dev.Close())
		r.dev = nil
	}
	r.state = Idle
	r.removeFile()

	return err
}
