// SPDX-License-Identifier: EPL-2.0

// Package server exposes the emotion session, microphone recorder,
// transcription and chat clients over HTTP and a websocket stream.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ik5/emotalk"
	"github.com/ik5/emotalk/audio"
	"github.com/ik5/emotalk/capture"
	"github.com/ik5/emotalk/chat"
	"github.com/ik5/emotalk/emotion"
	"github.com/ik5/emotalk/transcribe"
	"github.com/rs/zerolog"
)

const (
	shutdownTimeout = 5 * time.Second
	maxUploadSize   = 32 << 20
)

// Recorder is the microphone recorder as used by the HTTP API.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (capture.Result, error)
	Status() capture.Status
}

type Transcriber interface {
	Transcribe(ctx context.Context, filename string, r io.Reader) (transcribe.Result, error)
}

type Chatter interface {
	Reply(ctx context.Context, text string) (string, error)
	Recommend(ctx context.Context, text string, current emotion.Reading, history []emotion.Entry) (chat.Recommendation, error)
}

// Deps are the components behind the API. Only Session is required; routes
// whose component is nil answer 503.
type Deps struct {
	Session     *emotion.Session
	Recorder    Recorder
	Devices     capture.Lister
	Transcriber Transcriber
	Chat        Chatter
	// Registry decodes uploads; emotalk.NewRegistry when nil.
	Registry *audio.Registry
	// StreamURL is the detector's MJPEG camera stream, proxied at
	// /video_feed when set.
	StreamURL string
}

type Config struct {
	Addr string
}

type Server struct {
	cfg  Config
	deps Deps
	log  zerolog.Logger

	mux      *http.ServeMux
	upgrader websocket.Upgrader
	stream   *url.URL
	now      func() time.Time

	// closed when shutting down so websocket writers return
	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

func New(cfg Config, deps Deps, log zerolog.Logger) (*Server, error) {
	if deps.Session == nil {
		return nil, errors.New("server needs an emotion session")
	}
	if deps.Registry == nil {
		deps.Registry = emotalk.NewRegistry()
	}

	s := &Server{
		cfg:  cfg,
		deps: deps,
		log:  log,
		mux:  http.NewServeMux(),
		now:  time.Now,
		done: make(chan struct{}),
		upgrader: websocket.Upgrader{
			// The frontend may be served from another origin on the LAN.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	if deps.StreamURL != "" {
		u, err := url.Parse(deps.StreamURL)
		if err != nil {
			return nil, fmt.Errorf("parsing stream url: %w", err)
		}
		s.stream = u
	}

	s.routes()

	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /emotion_data", s.handleEmotionData)
	s.mux.HandleFunc("GET /emotions_history", s.handleHistory)
	s.mux.HandleFunc("GET /get_emotions", s.handleGetEmotions)
	s.mux.HandleFunc("POST /toggle_capture", s.handleToggleCapture)
	s.mux.HandleFunc("POST /restart_session", s.handleRestartSession)

	s.mux.HandleFunc("POST /audio/start_recording", s.handleStartRecording)
	s.mux.HandleFunc("POST /audio/stop_recording", s.handleStopRecording)
	s.mux.HandleFunc("GET /audio/status", s.handleRecordingStatus)
	s.mux.HandleFunc("GET /audio/devices", s.handleDevices)
	s.mux.HandleFunc("POST /transcribe_audio", s.handleTranscribe)
	s.mux.HandleFunc("POST /convert", s.handleConvert)

	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("POST /recommend", s.handleRecommend)

	s.mux.HandleFunc("GET /ws/emotions", s.handleWebSocket)
	s.mux.Handle("GET /video_feed", s.videoProxy())
}

// Handler returns the API with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")

	var serveErr error
	select {
	case <-ctx.Done():
		s.log.Info().Msg("http server shutting down")
	case serveErr = <-errChan:
		s.log.Error().Err(serveErr).Msg("http server failed")
	}

	s.doneOnce.Do(func() { close(s.done) })

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("http server shutdown")
	}
	s.wg.Wait()

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}

	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Flush keeps the proxied camera stream flowing.
func (r *statusRecorder) Flush() {
	_ = http.NewResponseController(r.ResponseWriter).Flush()
}

// Hijack is needed for the websocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	r.status = http.StatusSwitchingProtocols
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", s.now().Sub(start)).
			Msg("request")
	})
}
