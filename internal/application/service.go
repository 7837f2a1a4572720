package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/roomdesk/service-booking/internal/events/schema"
	"github.com/roomdesk/service-booking/internal/platform/kafka"
)

// Publisher sends a CloudEvent to a topic. *kafka.Producer satisfies it.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

// PublishEvent does nothing.
func (NopPublisher) PublishEvent(context.Context, string, kafka.CloudEvent) error { return nil }

// Transactor runs a unit of work atomically against the backing store.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Clock tells the services what time it is and which day "today" is at the hotel.
type Clock struct {
	now      func() time.Time
	location *time.Location
}

// NewClock builds a Clock. A nil now uses time.Now; a nil location uses UTC.
func NewClock(now func() time.Time, location *time.Location) Clock {
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	return Clock{now: now, location: location}
}

// Now returns the current instant in UTC.
func (c Clock) Now() time.Time {
	return c.now().UTC()
}

// Today returns the hotel's current calendar day as UTC midnight.
func (c Clock) Today() time.Time {
	t := c.now().In(c.location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// eventPublisher wraps a Publisher; publish failures are logged and never fail the use case.
type eventPublisher struct {
	producer Publisher
	logger   *zap.Logger
}

func (p eventPublisher) publish(ctx context.Context, eventType, subject string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(schema.Source, eventType, data)
	if err != nil {
		p.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = subject

	if err := p.producer.PublishEvent(ctx, schema.TopicBookingEvents, cloudEvent); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", schema.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
