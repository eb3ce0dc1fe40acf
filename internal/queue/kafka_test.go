package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"session-todos/internal/models"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisherKeysByOwner(t *testing.T) {
	rec := &recordingWriter{}
	p := &Publisher{w: rec}

	evt := &models.TodoEvent{
		Action:     models.ActionCreated,
		OwnerID:    "42",
		TodoID:     7,
		Title:      "buy milk",
		Affected:   1,
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), evt))
	require.Len(t, rec.msgs, 1)
	assert.Equal(t, "42", string(rec.msgs[0].Key))

	var got models.TodoEvent
	require.NoError(t, json.Unmarshal(rec.msgs[0].Value, &got))
	assert.Equal(t, *evt, got)

	require.NoError(t, p.Close())
	assert.True(t, rec.closed)
}

func TestPublisherWithoutBrokersIsNoop(t *testing.T) {
	p := NewPublisher(context.Background(), nil, "todo-events")
	assert.NoError(t, p.Publish(context.Background(), &models.TodoEvent{Action: models.ActionDeleted}))
	assert.NoError(t, p.Close())

	var nilPub *Publisher
	assert.NoError(t, nilPub.Publish(context.Background(), &models.TodoEvent{}))
}
