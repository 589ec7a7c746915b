// SPDX-License-Identifier: EPL-2.0

package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ik5/emotalk"
	"github.com/ik5/emotalk/audio"
	"github.com/ik5/emotalk/capture"
	"github.com/ik5/emotalk/transcribe"
)

const uploadField = "audio"

type stopResponse struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	FilePath string  `json:"file_path"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text,omitempty"`
}

func recorderStatus(err error) int {
	switch {
	case errors.Is(err, capture.ErrAlreadyRecording),
		errors.Is(err, capture.ErrNotRecording),
		errors.Is(err, capture.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, capture.ErrNoAudio):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	if s.deps.Recorder == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, result{Message: "recording is not available"})
		return
	}

	if err := s.deps.Recorder.Start(r.Context()); err != nil {
		s.log.Warn().Err(err).Msg("starting recording")
		s.writeJSON(w, recorderStatus(err), result{Message: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, result{Success: true, Message: "recording started"})
}

// handleStopRecording saves the recording. When the recorder has a
// processor the response carries its text; a failed processing step still
// reports the saved file.
func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	if s.deps.Recorder == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, result{Message: "recording is not available"})
		return
	}

	res, err := s.deps.Recorder.Stop(r.Context())
	if err != nil && res.Path == "" {
		s.log.Warn().Err(err).Msg("stopping recording")
		s.writeJSON(w, recorderStatus(err), result{Message: err.Error()})
		return
	}

	resp := stopResponse{
		Success:  true,
		Message:  "recording saved",
		FilePath: res.Path,
		Duration: res.Duration.Seconds(),
		Text:     res.Text,
	}
	if err != nil {
		s.log.Warn().Err(err).Str("file", res.Path).Msg("processing recording")
		resp.Message = err.Error()
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// TranscribeRecording returns a recorder processor that sends the saved
// file to t as 16 kHz mono WAV. Silence yields empty text, not an error.
func TranscribeRecording(t Transcriber, reg *audio.Registry) capture.Processor {
	if reg == nil {
		reg = emotalk.NewRegistry()
	}

	return func(ctx context.Context, path string) (string, error) {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()

		var buf bytes.Buffer
		if err := speechWAV(reg, &buf, f, "wav"); err != nil {
			return "", err
		}

		out, err := t.Transcribe(ctx, "audio.wav", &buf)
		if errors.Is(err, transcribe.ErrEmptyTranscript) {
			return "", nil
		}
		if err != nil {
			return "", err
		}

		return out.Text, nil
	}
}

func (s *Server) handleRecordingStatus(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Recorder == nil {
		s.writeJSON(w, http.StatusOK, capture.Status{})
		return
	}

	s.writeJSON(w, http.StatusOK, s.deps.Recorder.Status())
}

func (s *Server) handleDevices(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Devices == nil {
		s.writeJSON(w, http.StatusOK, []capture.DeviceInfo{})
		return
	}

	devices, err := s.deps.Devices.Devices()
	if err != nil {
		s.log.Error().Err(err).Msg("listing capture devices")
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if devices == nil {
		devices = []capture.DeviceInfo{}
	}

	s.writeJSON(w, http.StatusOK, devices)
}

// upload is an audio file sent as the multipart field "audio".
type upload struct {
	name string
	hint string
	data []byte
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	f, fh, err := r.FormFile(uploadField)
	if err != nil {
		return upload{}, fmt.Errorf("missing %q file: %w", uploadField, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return upload{}, fmt.Errorf("reading upload: %w", err)
	}

	return upload{name: fh.Filename, hint: s.formatHint(fh), data: data}, nil
}

// formatHint prefers the part's content type and falls back to the file
// name. Decode sniffs the data when neither is known.
func (s *Server) formatHint(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		if _, _, ok := s.deps.Registry.Lookup(ct); ok {
			return ct
		}
	}

	return fh.Filename
}

func speechWAV(reg *audio.Registry, w io.Writer, r io.Reader, hint string) error {
	src, err := emotalk.Decode(reg, r, hint)
	if err != nil {
		return err
	}
	defer src.Close()

	return emotalk.ToSpeechWAV(w, src, emotalk.SpeechRate)
}

// handleTranscribe normalizes the upload to 16 kHz mono WAV before sending
// it on. Formats that cannot be decoded here, such as browser WebM, are
// forwarded unchanged.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.deps.Transcriber == nil {
		s.writeError(w, http.StatusServiceUnavailable, "transcription is not configured")
		return
	}

	up, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name, body := "audio.wav", io.Reader(nil)
	var buf bytes.Buffer
	if err := speechWAV(s.deps.Registry, &buf, bytes.NewReader(up.data), up.hint); err != nil {
		s.log.Debug().Err(err).Str("file", up.name).Msg("forwarding upload without conversion")
		name, body = up.name, bytes.NewReader(up.data)
	} else {
		body = &buf
	}

	res, err := s.deps.Transcriber.Transcribe(r.Context(), name, body)
	switch {
	case errors.Is(err, transcribe.ErrEmptyTranscript):
		s.writeError(w, http.StatusUnprocessableEntity, "no speech recognized")
	case err != nil:
		s.log.Error().Err(err).Msg("transcribing upload")
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.writeJSON(w, http.StatusOK, res)
	}
}

// handleConvert returns the upload as canonical 16-bit PCM WAV at its own
// rate and channel count.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	src, err := emotalk.Decode(s.deps.Registry, bytes.NewReader(up.data), up.hint)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, audio.ErrUnknownFormat) {
			status = http.StatusUnsupportedMediaType
		}
		s.writeError(w, status, err.Error())
		return
	}

	data, err := emotalk.ConvertToWAV(src)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	name := up.name
	if name == "" {
		name = "audio"
	}
	name = name[:len(name)-len(filepath.Ext(name))] + ".wav"

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(name)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.Warn().Err(err).Msg("writing converted audio")
	}
}
