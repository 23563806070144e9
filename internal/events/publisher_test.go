package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatermillEventPublisher_Publish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 10}, watermill.NopLogger{})
	messages, err := pubSub.Subscribe(ctx, "quiz-attempt-events")
	require.NoError(t, err)

	publisher := NewWatermillEventPublisher(pubSub, "quiz-attempt-events", testLogger())
	defer publisher.Close()

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	event := NewAttemptEvent(EventAttemptStarted, at, AttemptStartedData{
		AttemptID:     42,
		QuizID:        7,
		StudentID:     "student-1",
		AttemptNumber: 1,
		StartedAt:     at,
	})
	require.NoError(t, publisher.Publish(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, "attempt.started", msg.Metadata.Get("event_type"))
		assert.Equal(t, SourceName, msg.Metadata.Get("source"))
		assert.Equal(t, "2025-03-01T10:00:00Z", msg.Metadata.Get("timestamp"))

		var decoded struct {
			Type EventType `json:"type"`
			Data struct {
				AttemptID uint   `json:"attempt_id"`
				StudentID string `json:"student_id"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, EventAttemptStarted, decoded.Type)
		assert.Equal(t, uint(42), decoded.Data.AttemptID)
		assert.Equal(t, "student-1", decoded.Data.StudentID)
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}

func TestNewAttemptEvent_UniqueIDs(t *testing.T) {
	at := time.Now()
	first := NewAttemptEvent(EventAttemptGraded, at, nil)
	second := NewAttemptEvent(EventAttemptGraded, at, nil)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, EventVersion, first.Version)
}

func TestMockEventPublisher(t *testing.T) {
	publisher := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	require.NoError(t, publisher.Publish(ctx, NewAttemptEvent(EventAttemptStarted, time.Now(), nil)))
	require.NoError(t, publisher.Publish(ctx, NewAttemptEvent(EventAttemptSubmitted, time.Now(), nil)))

	assert.Len(t, publisher.GetPublishedEvents(), 2)
	assert.Len(t, publisher.EventsOfType(EventAttemptSubmitted), 1)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}
