// SPDX-License-Identifier: EPL-2.0

package transcribe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func whisperServer(t *testing.T, reply string, check func(r *http.Request)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestClient_Transcribe(t *testing.T) {
	t.Parallel()

	var gotFile, gotName, gotFormat, gotLang string
	srv := whisperServer(t, `{"text": "  hola, ¿cómo estás?\n"}`, func(r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		gotFile, gotName = string(data), hdr.Filename
		gotFormat = r.FormValue("response_format")
		gotLang = r.FormValue("language")
	})

	c := NewClient(srv.URL, 5*time.Second, WithLanguage("es"))
	res, err := c.Transcribe(context.Background(), "/tmp/uploads/clip.wav", strings.NewReader("RIFF fake audio"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if res.Text != "hola, ¿cómo estás?" {
		t.Errorf("Text = %q", res.Text)
	}
	if gotFile != "RIFF fake audio" || gotName != "clip.wav" {
		t.Errorf("uploaded %q as %q", gotFile, gotName)
	}
	if gotFormat != "json" || gotLang != "es" {
		t.Errorf("fields response_format=%q language=%q", gotFormat, gotLang)
	}
}

func TestClient_EmptyTranscript(t *testing.T) {
	t.Parallel()

	srv := whisperServer(t, `{"text": "   "}`, nil)

	_, err := NewClient(srv.URL, 5*time.Second).Transcribe(context.Background(), "", strings.NewReader("x"))
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("Transcribe() error = %v, want %v", err, ErrEmptyTranscript)
	}
}

type fakeDoer struct {
	resp []byte
	err  error
	req  *http.Request
}

func (f *fakeDoer) DoRequest(req *http.Request) ([]byte, error) {
	f.req = req
	return f.resp, f.err
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("server returned 503")
	tests := []struct {
		name string
		doer *fakeDoer
	}{
		{name: "request failed", doer: &fakeDoer{err: boom}},
		{name: "not json", doer: &fakeDoer{resp: []byte("<h1>oops</h1>")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := &Client{base: "http://whisper:8081", http: tt.doer}
			_, err := c.Transcribe(context.Background(), "a.wav", strings.NewReader("x"))

			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Endpoint != "/inference" {
				t.Fatalf("Transcribe() error = %v, want *APIError", err)
			}
			if tt.doer.err != nil && !errors.Is(err, boom) {
				t.Errorf("cause lost: %v", err)
			}
			if got := tt.doer.req.URL.String(); got != "http://whisper:8081/inference" {
				t.Errorf("URL = %q", got)
			}
			if ct := tt.doer.req.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/form-data; boundary=") {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}
