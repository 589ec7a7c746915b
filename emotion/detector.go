// SPDX-License-Identifier: EPL-2.0

package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// Detector produces a reading from whatever the camera currently shows.
type Detector interface {
	Detect(ctx context.Context) (Reading, error)
}

type fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// HTTPDetector asks an external analysis service for the emotion scores
// of the current camera frame via GET {base}/analyze.
type HTTPDetector struct {
	base   string
	client fetcher
	now    func() time.Time
}

func NewHTTPDetector(baseURL string, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{
		base:   baseURL,
		client: httpkit.New(timeout),
		now:    time.Now,
	}
}

// StreamURL is the service's MJPEG camera stream.
func (d *HTTPDetector) StreamURL() (string, error) {
	return url.JoinPath(d.base, "video_feed")
}

func (d *HTTPDetector) Detect(ctx context.Context) (Reading, error) {
	const endpoint = "/analyze"

	u, err := url.JoinPath(d.base, endpoint)
	if err != nil {
		return Reading{}, &DetectorError{Endpoint: endpoint, Err: err}
	}

	body, err := d.client.FetchBytes(ctx, u)
	if err != nil {
		return Reading{}, &DetectorError{Endpoint: endpoint, Err: err}
	}

	scores, err := parseScores(body)
	if err != nil {
		return Reading{}, &DetectorError{Endpoint: endpoint, Err: err}
	}

	return NewReading(scores, d.now()), nil
}

// faceResult is one analyzed face. Services name the score map either
// "emotion" or "all_emotions".
type faceResult struct {
	Emotion     map[string]float64 `json:"emotion"`
	AllEmotions map[string]float64 `json:"all_emotions"`
}

func (f faceResult) scores() map[string]float64 {
	if len(f.Emotion) > 0 {
		return f.Emotion
	}

	return f.AllEmotions
}

// parseScores accepts a single face object or a list of faces, in which
// case the first face is used. No faces means no scores.
func parseScores(body []byte) (map[string]float64, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	if body[0] == '[' {
		var faces []faceResult
		if err := json.Unmarshal(body, &faces); err != nil {
			return nil, fmt.Errorf("decoding analysis: %w", err)
		}
		if len(faces) == 0 {
			return nil, nil
		}

		return faces[0].scores(), nil
	}

	var face faceResult
	if err := json.Unmarshal(body, &face); err != nil {
		return nil, fmt.Errorf("decoding analysis: %w", err)
	}

	return face.scores(), nil
}
