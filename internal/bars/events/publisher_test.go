package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"barhop/pkg/kafka"
	"barhop/pkg/logger"
	"barhop/pkg/middleware"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu       sync.Mutex
	messages []kafkago.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func headers(msg kafkago.Message) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestKafkaPublisher_PublishVisitorToggled(t *testing.T) {
	w := &recordingWriter{}
	pub := NewKafkaPublisher(kafka.NewProducerWithWriter(w, "bars.visitors"), "bars", logger.NewNop())

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	event := VisitorToggled{
		BarID:         "65f0c0ffee0000000000abcd",
		ExternalID:    "gary-danko",
		UserID:        "u1",
		CheckedIn:     true,
		VisitorsCount: 1,
		BarCreated:    true,
		OccurredAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, pub.PublishVisitorToggled(ctx, event))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "gary-danko", string(msg.Key))
	assert.JSONEq(t, `{
		"barId":"65f0c0ffee0000000000abcd",
		"externalId":"gary-danko",
		"userId":"u1",
		"checkedIn":true,
		"visitorsCount":1,
		"barCreated":true,
		"occurredAt":"2024-01-02T03:04:05Z"
	}`, string(msg.Value))

	h := headers(msg)
	assert.Equal(t, EventVisitorToggled, h[kafka.HeaderEventType])
	assert.Equal(t, SchemaVersion, h[kafka.HeaderSchemaVersion])
	assert.Equal(t, "bars", h[kafka.HeaderSource])
	assert.Equal(t, "req-1", h[kafka.HeaderCorrelationID])
	assert.NotEmpty(t, h[kafka.HeaderEventID])

	require.NoError(t, pub.Close())
}

func TestNopPublisher(t *testing.T) {
	pub := NewNopPublisher()
	assert.NoError(t, pub.PublishVisitorToggled(context.Background(), VisitorToggled{}))
	assert.NoError(t, pub.Close())
}
