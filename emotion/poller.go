// SPDX-License-Identifier: EPL-2.0

package emotion

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is the time between two analyses.
const DefaultInterval = 3 * time.Second

// Poller runs the detector on a fixed interval while the session is
// capturing and records every result. Failed detections are logged and
// skipped so the history only holds real readings.
type Poller struct {
	det      Detector
	sess     *Session
	interval time.Duration
	log      zerolog.Logger
}

func NewPoller(det Detector, sess *Session, interval time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Poller{det: det, sess: sess, interval: interval, log: log}
}

// Run polls until ctx is done. The first analysis happens immediately.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if p.sess.Capturing() {
			_ = p.Poll(ctx)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll performs one detection and records it.
func (p *Poller) Poll(ctx context.Context) error {
	if p.det == nil {
		return ErrNoDetector
	}

	r, err := p.det.Detect(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn().Err(err).Msg("emotion detection failed")
		}
		return err
	}

	if err := p.sess.Record(r); err != nil {
		p.log.Error().Err(err).Msg("recording emotion")
		return err
	}

	p.log.Debug().Str("emotion", r.Emotion).Float64("confidence", r.Confidence).Msg("emotion recorded")

	return nil
}
