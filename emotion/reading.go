// SPDX-License-Identifier: EPL-2.0

package emotion

import (
	"maps"
	"slices"
	"time"
)

// Neutral is reported when nothing was detected.
const Neutral = "neutral"

// Reading is one analysis result. Timestamp is in Unix seconds.
type Reading struct {
	Emotion     string             `json:"emotion"`
	Confidence  float64            `json:"confidence"`
	AllEmotions map[string]float64 `json:"all_emotions"`
	Timestamp   float64            `json:"timestamp"`
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func NeutralReading(at time.Time) Reading {
	return Reading{
		Emotion:     Neutral,
		AllEmotions: map[string]float64{},
		Timestamp:   unixSeconds(at),
	}
}

// NewReading builds a reading from per-emotion scores taken at at.
// Empty scores give a neutral reading.
func NewReading(scores map[string]float64, at time.Time) Reading {
	if len(scores) == 0 {
		return NeutralReading(at)
	}

	name, score := Dominant(scores)

	return Reading{
		Emotion:     name,
		Confidence:  score,
		AllEmotions: maps.Clone(scores),
		Timestamp:   unixSeconds(at),
	}
}

// Dominant returns the highest scoring emotion. Ties go to the name that
// sorts first. Empty input yields Neutral with zero confidence.
func Dominant(scores map[string]float64) (string, float64) {
	if len(scores) == 0 {
		return Neutral, 0
	}

	names := slices.Sorted(maps.Keys(scores))
	best := names[0]
	for _, n := range names[1:] {
		if scores[n] > scores[best] {
			best = n
		}
	}

	return best, scores[best]
}
