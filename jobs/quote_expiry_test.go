package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	asOf    time.Time
	expired int
	err     error
}

func (f *fakeExpirer) ExpireOverdue(_ context.Context, asOf time.Time) (int, error) {
	f.asOf = asOf
	return f.expired, f.err
}

func TestQuoteExpiryJobHandle(t *testing.T) {
	scheduled := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	task, err := NewQuoteExpiryTask(scheduled)
	require.NoError(t, err)

	expirer := &fakeExpirer{expired: 3}
	job := NewQuoteExpiryJob(expirer, nil)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.True(t, expirer.asOf.Equal(scheduled))
}

func TestQuoteExpiryJobPropagatesError(t *testing.T) {
	task, err := NewQuoteExpiryTask(time.Now())
	require.NoError(t, err)

	expirer := &fakeExpirer{err: errors.New("db down")}
	job := NewQuoteExpiryJob(expirer, nil)

	require.Error(t, job.Handle(context.Background(), task))
}

func TestQuoteExpiryJobSkipsGarbagePayload(t *testing.T) {
	job := NewQuoteExpiryJob(&fakeExpirer{}, nil)
	task := asynq.NewTask(TaskTypeQuoteExpiry, []byte("{not json"))

	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestQuoteEmailTaskPayloadRoundTrip(t *testing.T) {
	task, err := NewQuoteEmailTask(QuoteEmailPayload{QuoteID: 42})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeQuoteEmail, task.Type())

	var payload QuoteEmailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(42), payload.QuoteID)
}
