// SPDX-License-Identifier: EPL-2.0

// Package transcribe sends recorded speech to a whisper.cpp compatible
// server and returns the recognized text.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

const endpoint = "/inference"

type doer interface {
	DoRequest(req *http.Request) ([]byte, error)
}

type Client struct {
	base     string
	http     doer
	language string
}

type Option func(*Client)

// WithLanguage asks the server to decode in a fixed language ("es", "en")
// instead of auto-detecting it.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		base: baseURL,
		http: httpkit.New(timeout),
	}
	for _, o := range opts {
		o(c)
	}

	return c
}

type Result struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio read from r as the multipart field "file".
// filename only names the part; the server detects the format itself.
func (c *Client) Transcribe(ctx context.Context, filename string, r io.Reader) (Result, error) {
	u, err := url.JoinPath(c.base, endpoint)
	if err != nil {
		return Result{}, &APIError{Endpoint: endpoint, Err: err}
	}

	body, contentType, err := c.form(filename, r)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return Result{}, &APIError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.DoRequest(req)
	if err != nil {
		return Result{}, &APIError{Endpoint: endpoint, Err: err}
	}

	var res Result
	if err := json.Unmarshal(resp, &res); err != nil {
		return Result{}, &APIError{Endpoint: endpoint, Err: fmt.Errorf("decoding response: %w", err)}
	}

	res.Text = strings.TrimSpace(res.Text)
	if res.Text == "" {
		return Result{}, ErrEmptyTranscript
	}

	return res, nil
}

func (c *Client) form(filename string, r io.Reader) ([]byte, string, error) {
	if filename == "" {
		filename = "audio.wav"
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, "", fmt.Errorf("copying audio: %w", err)
	}

	fields := map[string]string{"response_format": "json"}
	if c.language != "" {
		fields["language"] = c.language
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("writing %s: %w", k, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}

	return body.Bytes(), w.FormDataContentType(), nil
}
