// Package notify delivers a finished run to the user: an e-mail outbox file,
// SMTP and Telegram.
package notify

import (
	"context"
	"errors"
	"time"

	"jobmonitor/internal/logger"
	"jobmonitor/internal/pipeline"
)

// Notifier delivers one run result somewhere.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, res pipeline.RunResult, now time.Time) error
}

// All runs every notifier, logs each failure and returns them joined. One
// channel failing never stops the others.
func All(ctx context.Context, ns []Notifier, res pipeline.RunResult, now time.Time) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, res, now); err != nil {
			logger.C(ctx).Error().Err(err).Str("notifier", n.Name()).Msg("notify failed")
			errs = append(errs, err)
			continue
		}
		logger.C(ctx).Debug().Str("notifier", n.Name()).Int("listings", len(res.Listings)).Msg("notified")
	}
	return errors.Join(errs...)
}
