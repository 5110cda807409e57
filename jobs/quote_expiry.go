package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// QuoteExpirer is the slice of the quote service the sweep needs.
type QuoteExpirer interface {
	ExpireOverdue(ctx context.Context, asOf time.Time) (int, error)
}

// QuoteExpiryJob runs the nightly expiry sweep.
type QuoteExpiryJob struct {
	expirer QuoteExpirer
	logger  *slog.Logger
}

// NewQuoteExpiryJob constructs the job.
func NewQuoteExpiryJob(expirer QuoteExpirer, logger *slog.Logger) *QuoteExpiryJob {
	return &QuoteExpiryJob{expirer: expirer, logger: logger}
}

// Handle processes TaskTypeQuoteExpiry tasks.
func (j *QuoteExpiryJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload QuoteExpiryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	asOf := payload.ScheduledFor
	if asOf.IsZero() {
		asOf = time.Now()
	}

	expired, err := j.expirer.ExpireOverdue(ctx, asOf)
	if err != nil {
		if j.logger != nil {
			j.logger.Error("quote expiry sweep failed", slog.Any("error", err))
		}
		return err
	}
	if j.logger != nil && expired > 0 {
		j.logger.Info("quote expiry sweep", slog.Int("expired", expired))
	}
	return nil
}
