// SPDX-License-Identifier: EPL-2.0

package emotion

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// MaxHistory is the number of entries kept in the session file.
	MaxHistory = 200

	filePattern = "emotions_session_*.json"
)

type Entry struct {
	Emotion string `json:"emotion"`
}

// History is the persisted form of a session.
type History struct {
	SessionID    string    `json:"session_id"`
	SessionStart time.Time `json:"session_start"`
	Emotions     []Entry   `json:"emotions"`
}

// Session tracks the latest reading, whether capture is active and the
// history of dominant emotions. The history lives in a JSON file under dir
// which is replaced on Restart and removed on Close.
type Session struct {
	dir string
	log zerolog.Logger
	now func() time.Time

	mu        sync.RWMutex
	path      string
	history   History
	current   Reading
	capturing bool
	closed    bool

	subMu  sync.Mutex
	subs   map[uint64]chan Reading
	nextID uint64
}

type Option func(*Session)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession starts a capturing session with its file in dir. An empty dir
// means os.TempDir.
func NewSession(dir string, opts ...Option) (*Session, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	s := &Session{
		dir:       dir,
		log:       zerolog.Nop(),
		now:       time.Now,
		capturing: true,
		subs:      make(map[uint64]chan Reading),
	}
	for _, o := range opts {
		o(s)
	}
	s.current = NeutralReading(s.now())

	if err := s.create(); err != nil {
		return nil, err
	}

	return s, nil
}

// create opens a new session file. Callers hold mu or own s exclusively.
func (s *Session) create() error {
	f, err := os.CreateTemp(s.dir, filePattern)
	if err != nil {
		return fmt.Errorf("creating session file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return fmt.Errorf("creating session file: %w", err)
	}

	s.path = path
	s.history = History{
		SessionID:    uuid.New().String(),
		SessionStart: s.now(),
		Emotions:     []Entry{},
	}

	if err := s.persist(); err != nil {
		return err
	}

	s.log.Info().Str("file", path).Str("session", s.history.SessionID).Msg("session started")

	return nil
}

func (s *Session) persist() error {
	data, err := json.MarshalIndent(s.history, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}

	return nil
}

// Record stores r as the current reading and appends its emotion to the
// history. It does nothing while capture is paused. Subscribers get r even
// when writing the file fails.
func (s *Session) Record(r Reading) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if !s.capturing {
		s.mu.Unlock()
		return nil
	}

	s.current = r
	s.history.Emotions = append(s.history.Emotions, Entry{Emotion: r.Emotion})
	if n := len(s.history.Emotions); n > MaxHistory {
		s.history.Emotions = append([]Entry(nil), s.history.Emotions[n-MaxHistory:]...)
	}
	err := s.persist()
	s.mu.Unlock()

	s.publish(r)

	return err
}

func (s *Session) Current() Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.current
	r.AllEmotions = maps.Clone(r.AllEmotions)

	return r
}

// Scores returns the current per-emotion scores, or an empty map when
// paused or nothing has been detected.
func (s *Session) Scores() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.capturing || len(s.current.AllEmotions) == 0 {
		return map[string]float64{}
	}

	return maps.Clone(s.current.AllEmotions)
}

func (s *Session) Capturing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.capturing
}

// SetCapturing pauses or resumes capture. Resuming after a pause starts a
// fresh session file; restarted reports whether that happened.
func (s *Session) SetCapturing(on bool) (restarted bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrSessionClosed
	}

	wasPaused := !s.capturing
	s.capturing = on
	if !wasPaused || !on {
		return false, nil
	}

	return true, s.restartLocked()
}

// Restart discards the current history file and begins a new one.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	return s.restartLocked()
}

func (s *Session) restartLocked() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn().Err(err).Str("file", s.path).Msg("removing previous session")
	}

	return s.create()
}

// History reads the session file back. A missing file yields an empty
// history starting now.
func (s *Session) History() (History, error) {
	s.mu.RLock()
	path := s.path
	s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return History{SessionStart: s.now(), Emotions: []Entry{}}, nil
	}
	if err != nil {
		return History{}, fmt.Errorf("reading session: %w", err)
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return History{}, fmt.Errorf("decoding session %s: %w", filepath.Base(path), err)
	}

	return h, nil
}

func (s *Session) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.path
}

// FileExists reports whether the history file is on disk.
func (s *Session) FileExists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// Subscribe returns a channel receiving every recorded reading. Readings are
// dropped for a subscriber whose buffer is full. The returned func
// unsubscribes and closes the channel.
func (s *Session) Subscribe(buffer int) (<-chan Reading, func()) {
	ch := make(chan Reading, max(buffer, 1))

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Session) publish(r Reading) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- r:
		default:
		}
	}
}

// Close removes the session file and closes all subscriptions.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	path := s.path
	s.mu.Unlock()

	s.subMu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subMu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	s.log.Info().Str("file", path).Msg("session file removed")

	return nil
}
