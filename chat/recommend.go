// SPDX-License-Identifier: EPL-2.0

package chat

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ik5/emotalk/emotion"
)

const recommendSystemPrompt = `You support a person during a conversation. You receive what they said,
the emotion currently detected on their face and how often each emotion was
seen during the session.

Respond ONLY with valid JSON matching this schema:
{
  "emotion": "<the emotion you believe dominates>",
  "summary": "<one sentence about how the person seems to feel>",
  "suggestions": ["<short actionable suggestion>", "..."]
}

Give between one and three suggestions, in the language the person speaks.`

type Recommendation struct {
	Emotion     string   `json:"emotion"`
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions"`
}

// Recommend asks the model for suggestions that take the detected emotions
// into account. text may be empty when only the emotions are known.
func (c *Client) Recommend(ctx context.Context, text string, current emotion.Reading, history []emotion.Entry) (Recommendation, error) {
	raw, err := c.generate(ctx, generateRequest{
		Model:  c.model,
		Prompt: recommendPrompt(text, current, history),
		System: recommendSystemPrompt,
		Format: "json",
	})
	if err != nil {
		return Recommendation{}, err
	}

	var rec Recommendation
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Recommendation{}, &APIError{Endpoint: generateEndpoint, Err: fmt.Errorf("model output is not a recommendation: %w", err)}
	}
	if rec.Emotion == "" {
		rec.Emotion = current.Emotion
	}
	if rec.Summary == "" && len(rec.Suggestions) == 0 {
		return Recommendation{}, ErrEmptyReply
	}

	return rec, nil
}

func recommendPrompt(text string, current emotion.Reading, history []emotion.Entry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current emotion: %s (confidence %.1f)\n", current.Emotion, current.Confidence)

	counts := make(map[string]int)
	for _, e := range history {
		counts[e.Emotion]++
	}
	if len(counts) > 0 {
		names := slices.SortedFunc(maps.Keys(counts), func(a, b string) int {
			if c := cmp.Compare(counts[b], counts[a]); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})

		b.WriteString("Session emotions:")
		for _, n := range names {
			fmt.Fprintf(&b, " %s=%d", n, counts[n])
		}
		b.WriteString("\n")
	}

	if text = strings.TrimSpace(text); text != "" {
		fmt.Fprintf(&b, "The person said: %q\n", text)
	}

	return b.String()
}
