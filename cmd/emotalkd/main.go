// SPDX-License-Identifier: EPL-2.0

// emotalkd serves the emotion tracking and voice chat backend: it polls the
// camera emotion detector, records the microphone, forwards speech to a
// whisper server and talks to an Ollama model.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/ik5/emotalk/capture"
	"github.com/ik5/emotalk/capture/miniaudio"
	"github.com/ik5/emotalk/chat"
	"github.com/ik5/emotalk/emotion"
	"github.com/ik5/emotalk/internal/config"
	"github.com/ik5/emotalk/internal/discovery"
	"github.com/ik5/emotalk/internal/logger"
	"github.com/ik5/emotalk/server"
	"github.com/ik5/emotalk/transcribe"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stderr))
}

// realMain returns the process exit code so deferred cleanup always runs
// before exiting.
func realMain(args []string, stderr io.Writer) int {
	cfg, err := config.Load(args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	log := logger.New(stderr, cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("emotalkd failed")
		return 1
	}

	log.Info().Msg("emotalkd stopped")

	return 0
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	sess, err := emotion.NewSession(cfg.DataDir, emotion.WithLogger(log.With().Str("component", "session").Logger()))
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn().Err(err).Msg("closing session")
		}
	}()

	var opts []transcribe.Option
	if cfg.WhisperLanguage != "" {
		opts = append(opts, transcribe.WithLanguage(cfg.WhisperLanguage))
	}
	transcriber := transcribe.NewClient(cfg.WhisperURL, cfg.HTTPTimeout, opts...)

	deps := server.Deps{
		Session:     sess,
		Transcriber: transcriber,
		Chat:        chat.NewClient(cfg.OllamaURL, cfg.OllamaModel, cfg.HTTPTimeout, cfg.ChatRate, cfg.ChatBurst),
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.DetectorURL != "" {
		det := emotion.NewHTTPDetector(cfg.DetectorURL, cfg.HTTPTimeout)
		if deps.StreamURL, err = det.StreamURL(); err != nil {
			return fmt.Errorf("detector url: %w", err)
		}

		poller := emotion.NewPoller(det, sess, cfg.PollInterval, log.With().Str("component", "poller").Logger())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := poller.Run(ctx); err != nil {
				log.Error().Err(err).Msg("emotion poller")
			}
		}()
	} else {
		log.Warn().Msg("no detector configured, emotions will stay neutral")
	}

	if cfg.Microphone {
		processor := server.TranscribeRecording(transcriber, nil)
		rec, backend := newRecorder(cfg, processor, log.With().Str("component", "capture").Logger())
		if rec != nil {
			defer backend.Close()
			defer rec.Close()
			deps.Recorder, deps.Devices = rec, backend
		}
	}

	if cfg.Advertise {
		adv, err := newAdvertiser(cfg, log.With().Str("component", "mdns").Logger())
		if err != nil {
			log.Warn().Err(err).Msg("mDNS advertisement disabled")
		} else {
			defer adv.Stop()
		}
	}

	srv, err := server.New(server.Config{Addr: cfg.Addr}, deps, log.With().Str("component", "http").Logger())
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}

// newRecorder returns nil values when no audio backend is usable; the
// API then reports recording as unavailable.
func newRecorder(cfg config.Config, processor capture.Processor, log zerolog.Logger) (*capture.Recorder, *miniaudio.Backend) {
	backend, err := miniaudio.New(log)
	if err != nil {
		log.Warn().Err(err).Msg("microphone recording disabled")
		return nil, nil
	}

	strategies := backend.Strategies(cfg.RecordDevice, cfg.RecordSampleRate, cfg.RecordChannels)
	rec := capture.NewRecorder(cfg.DataDir, strategies, capture.WithLogger(log), capture.WithProcessor(processor))

	return rec, backend
}

func newAdvertiser(cfg config.Config, log zerolog.Logger) (*discovery.Advertiser, error) {
	_, portStr, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("parsing listen address: %w", err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parsing listen port: %w", err)
	}

	adv := discovery.NewAdvertiser(discovery.Config{ServiceName: cfg.ServiceName, Port: port}, log)
	if err := adv.Start(); err != nil {
		return nil, err
	}

	return adv, nil
}
