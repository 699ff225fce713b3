package events

import (
	"barhop/pkg/kafka"
	"barhop/pkg/logger"
	"barhop/pkg/middleware"
	"context"
	"time"
)

const (
	EventVisitorToggled = "bar.visitor.toggled"
	SchemaVersion       = "1"
)

// VisitorToggled is emitted after a check-in toggle lands in the store.
type VisitorToggled struct {
	BarID         string    `json:"barId"`
	ExternalID    string    `json:"externalId"`
	UserID        string    `json:"userId"`
	CheckedIn     bool      `json:"checkedIn"`
	VisitorsCount int       `json:"visitorsCount"`
	BarCreated    bool      `json:"barCreated"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type Publisher interface {
	PublishVisitorToggled(ctx context.Context, event VisitorToggled) error
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

// NewKafkaPublisher publishes events keyed by the bar's external id so all toggles
// for one bar land on the same partition in order.
func NewKafkaPublisher(producer *kafka.Producer, source string, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (p *kafkaPublisher) PublishVisitorToggled(ctx context.Context, event VisitorToggled) error {
	msg := kafka.NewMessage().
		WithKey(event.ExternalID).
		WithValue(event).
		WithEventType(EventVisitorToggled).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(middleware.GetRequestID(ctx)).
		Build()

	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	p.log.Info("Closing event publisher", "topic", p.producer.Topic())
	return p.producer.Close()
}

type nopPublisher struct{}

// NewNopPublisher returns a publisher that drops every event.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishVisitorToggled(context.Context, VisitorToggled) error { return nil }

func (nopPublisher) Close() error { return nil }
