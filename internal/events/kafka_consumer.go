package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/events/schema"
	"github.com/roomdesk/service-booking/internal/platform/domain"
	"github.com/roomdesk/service-booking/internal/platform/kafka"
)

// PaymentRecorder applies a cumulative paid amount to a booking.
type PaymentRecorder interface {
	UpdatePayment(ctx context.Context, bookingID uuid.UUID, req application.UpdatePaymentRequest) (*application.BookingDTO, error)
}

// PaymentEventConsumer listens to payment events and keeps booking paid amounts in step.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	payments PaymentRecorder
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	payments PaymentRecorder,
	logger *zap.Logger,
) *PaymentEventConsumer {
	return &PaymentEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, schema.TopicPaymentEvents, logger),
		payments: payments,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // malformed messages are not retried
	}

	switch cloudEvent.Type {
	case schema.PaymentRecorded:
		return c.handlePaymentRecorded(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentRecorded(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt schema.PaymentRecordedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentRecordedEvent data", zap.Error(err))
		return nil
	}
	if evt.BookingID == uuid.Nil {
		c.logger.Error("payment event without booking ID", zap.String("payment_id", evt.PaymentID.String()))
		return nil
	}

	c.logger.Info("processing payment recorded event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_id", evt.PaymentID.String()),
		zap.Int64("paid_amount_cents", evt.PaidAmountCents),
	)

	dto, err := c.payments.UpdatePayment(ctx, evt.BookingID, application.UpdatePaymentRequest{
		PaidAmountCents: evt.PaidAmountCents,
	})
	if err != nil {
		// A rejected amount or unknown booking will not improve on redelivery.
		if domain.IsValidation(err) || domain.IsNotFound(err) || domain.IsInvalidState(err) {
			c.logger.Warn("payment event rejected",
				zap.String("booking_id", evt.BookingID.String()),
				zap.String("payment_id", evt.PaymentID.String()),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to apply payment to booking",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("booking payment applied",
		zap.String("booking_id", evt.BookingID.String()),
		zap.Int64("balance_cents", dto.BalanceCents),
	)
	return nil
}
