// SPDX-License-Identifier: EPL-2.0

// Package chat talks to a local Ollama instance for the voice assistant's
// replies and for emotion-aware recommendations.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"golang.org/x/time/rate"
)

const generateEndpoint = "/api/generate"

const replySystemPrompt = `You are a friendly voice assistant. The user's words come from speech
recognition and may contain small transcription mistakes. Answer briefly and
naturally, in the same language the user speaks.`

type doer interface {
	DoRequest(req *http.Request) ([]byte, error)
}

type Client struct {
	base    string
	model   string
	http    doer
	limiter *rate.Limiter
}

// NewClient creates a client allowing perSecond requests with bursts of
// burst. Calls wait for a token or for their context to end.
func NewClient(baseURL, model string, timeout time.Duration, perSecond float64, burst int) *Client {
	return &Client{
		base:    baseURL,
		model:   model,
		http:    httpkit.New(timeout),
		limiter: rate.NewLimiter(rate.Limit(perSecond), max(burst, 1)),
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Reply returns the model's answer to text.
func (c *Client) Reply(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	return c.generate(ctx, generateRequest{
		Model:  c.model,
		Prompt: text,
		System: replySystemPrompt,
	})
}

func (c *Client) generate(ctx context.Context, payload generateRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limit: %w", err)
	}

	u, err := url.JoinPath(c.base, generateEndpoint)
	if err != nil {
		return "", &APIError{Endpoint: generateEndpoint, Err: err}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", &APIError{Endpoint: generateEndpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.DoRequest(req)
	if err != nil {
		return "", &APIError{Endpoint: generateEndpoint, Err: err}
	}

	var out generateResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return "", &APIError{Endpoint: generateEndpoint, Err: fmt.Errorf("decoding response: %w", err)}
	}

	reply := strings.TrimSpace(out.Response)
	if reply == "" {
		return "", ErrEmptyReply
	}

	return reply, nil
}
