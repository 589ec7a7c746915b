// SPDX-License-Identifier: EPL-2.0

package server

import (
	"net/http"
	"path/filepath"
	"time"
)

type healthResponse struct {
	Status      string  `json:"status"`
	Detector    string  `json:"detector"`
	JSONLogging string  `json:"json_logging"`
	SessionFile string  `json:"session_file"`
	Capturing   bool    `json:"capturing"`
	Recording   bool    `json:"recording"`
	Timestamp   float64 `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sess := s.deps.Session

	resp := healthResponse{
		Status:      "OK",
		Detector:    "disabled",
		JSONLogging: "not started",
		SessionFile: filepath.Base(sess.Path()),
		Capturing:   sess.Capturing(),
		Timestamp:   float64(s.now().UnixNano()) / float64(time.Second),
	}
	if s.stream != nil {
		resp.Detector = "OK"
	}
	if sess.FileExists() {
		resp.JSONLogging = "OK"
	}
	if s.deps.Recorder != nil {
		resp.Recording = s.deps.Recorder.Status().IsRecording
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEmotionData(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Session.Current())
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	h, err := s.deps.Session.History()
	if err != nil {
		s.log.Error().Err(err).Msg("reading emotion history")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, h)
}

// handleGetEmotions returns the latest scores, or an empty object while
// paused or before the first detection.
func (s *Server) handleGetEmotions(w http.ResponseWriter, _ *http.Request) {
	scores := s.deps.Session.Scores()
	if !s.deps.Session.Capturing() || len(scores) == 0 {
		s.writeJSON(w, http.StatusOK, struct{}{})
		return
	}

	s.writeJSON(w, http.StatusOK, scores)
}

type toggleRequest struct {
	Capturing *bool `json:"capturing"`
}

type toggleResponse struct {
	Success          bool `json:"success"`
	Capturing        bool `json:"capturing"`
	SessionRestarted bool `json:"session_restarted"`
}

type toggleError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleToggleCapture(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeBody(r, &req); err != nil || req.Capturing == nil {
		s.writeJSON(w, http.StatusBadRequest, toggleError{Error: "Invalid request"})
		return
	}

	restarted, err := s.deps.Session.SetCapturing(*req.Capturing)
	if err != nil {
		s.log.Error().Err(err).Msg("toggling capture")
		s.writeJSON(w, http.StatusInternalServerError, toggleError{Error: err.Error()})
		return
	}

	s.log.Info().Bool("capturing", *req.Capturing).Bool("session_restarted", restarted).Msg("capture toggled")

	s.writeJSON(w, http.StatusOK, toggleResponse{
		Success:          true,
		Capturing:        s.deps.Session.Capturing(),
		SessionRestarted: restarted,
	})
}

type restartResponse struct {
	Success     bool   `json:"success"`
	SessionFile string `json:"session_file"`
}

// handleRestartSession discards the history and starts a new session file
// without changing the capture state.
func (s *Server) handleRestartSession(w http.ResponseWriter, _ *http.Request) {
	if err := s.deps.Session.Restart(); err != nil {
		s.log.Error().Err(err).Msg("restarting session")
		s.writeJSON(w, http.StatusInternalServerError, toggleError{Error: err.Error()})
		return
	}

	s.log.Info().Str("file", s.deps.Session.Path()).Msg("session restarted")

	s.writeJSON(w, http.StatusOK, restartResponse{
		Success:     true,
		SessionFile: filepath.Base(s.deps.Session.Path()),
	})
}
