// SPDX-License-Identifier: EPL-2.0

package server

import (
	"errors"
	"net/http"

	"github.com/ik5/emotalk/chat"
)

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func chatStatus(err error) int {
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrEmptyReply):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Chat == nil {
		s.writeError(w, http.StatusServiceUnavailable, "chat is not configured")
		return
	}

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	reply, err := s.deps.Chat.Reply(r.Context(), req.Text)
	if err != nil {
		s.log.Warn().Err(err).Msg("chat reply")
		s.writeError(w, chatStatus(err), err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// handleRecommend combines what the person said with the current reading
// and the session history. The body is optional.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if s.deps.Chat == nil {
		s.writeError(w, http.StatusServiceUnavailable, "chat is not configured")
		return
	}

	var req chatRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}
	}

	history, err := s.deps.Session.History()
	if err != nil {
		s.log.Warn().Err(err).Msg("reading history for recommendation")
	}

	rec, err := s.deps.Chat.Recommend(r.Context(), req.Text, s.deps.Session.Current(), history.Emotions)
	if err != nil {
		s.log.Warn().Err(err).Msg("recommendation")
		s.writeError(w, chatStatus(err), err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}
