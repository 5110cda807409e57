package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeQuoteExpiry marks sent quotes past their expiry date.
	TaskTypeQuoteExpiry = "quote:expire"
	// TaskTypeQuoteEmail hands a quote to the email delivery collaborator.
	TaskTypeQuoteEmail = "quote:email"
)

// QuoteExpiryPayload carries scheduling metadata for the expiry sweep.
type QuoteExpiryPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewQuoteExpiryTask constructs the expiry sweep task.
func NewQuoteExpiryTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(QuoteExpiryPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeQuoteExpiry, body, asynq.Queue(QueueDefault)), nil
}

// QuoteEmailPayload identifies the quote to deliver.
type QuoteEmailPayload struct {
	QuoteID int64 `json:"quote_id"`
}

// NewQuoteEmailTask constructs a delivery task with a fresh task id so
// re-sending the same quote is a distinct job.
func NewQuoteEmailTask(payload QuoteEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeQuoteEmail, body, asynq.Queue(QueueDefault), asynq.TaskID(uuid.NewString())), nil
}

// HandleQuoteEmailTask processes TaskTypeQuoteEmail tasks. Rendering
// and SMTP delivery live with the external collaborator; this seam
// only acknowledges the request.
func HandleQuoteEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload QuoteEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	fmt.Printf("[jobs] dispatch quote email quote_id=%d\n", payload.QuoteID)
	return nil
}
