package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/events/schema"
	"github.com/roomdesk/service-booking/internal/platform/domain"
	"github.com/roomdesk/service-booking/internal/platform/kafka"
)

type mockPaymentRecorder struct {
	mock.Mock
}

func (m *mockPaymentRecorder) UpdatePayment(ctx context.Context, bookingID uuid.UUID, req application.UpdatePaymentRequest) (*application.BookingDTO, error) {
	args := m.Called(ctx, bookingID, req)
	dto, _ := args.Get(0).(*application.BookingDTO)
	return dto, args.Error(1)
}

func paymentMessage(t *testing.T, eventType string, data interface{}) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent("service-payment", eventType, data)
	require.NoError(t, err)
	raw, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Topic: schema.TopicPaymentEvents, Value: raw}
}

func newTestConsumer(recorder PaymentRecorder) *PaymentEventConsumer {
	return &PaymentEventConsumer{payments: recorder, logger: zap.NewNop()}
}

func TestHandleMessage_PaymentRecorded(t *testing.T) {
	recorder := &mockPaymentRecorder{}
	bookingID := uuid.New()
	recorder.On("UpdatePayment", mock.Anything, bookingID, application.UpdatePaymentRequest{PaidAmountCents: 15000}).
		Return(&application.BookingDTO{ID: bookingID, BalanceCents: 5000}, nil)

	msg := paymentMessage(t, schema.PaymentRecorded, schema.PaymentRecordedEvent{
		PaymentID:       uuid.New(),
		BookingID:       bookingID,
		PaidAmountCents: 15000,
		OccurredAt:      time.Now().UTC(),
	})

	err := newTestConsumer(recorder).handleMessage(context.Background(), msg)
	require.NoError(t, err)
	recorder.AssertExpectations(t)
}

func TestHandleMessage_RejectedPaymentIsDropped(t *testing.T) {
	recorder := &mockPaymentRecorder{}
	recorder.On("UpdatePayment", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.NewValidationError("paid amount cannot exceed total amount"))

	msg := paymentMessage(t, schema.PaymentRecorded, schema.PaymentRecordedEvent{
		BookingID:       uuid.New(),
		PaidAmountCents: 1,
	})

	assert.NoError(t, newTestConsumer(recorder).handleMessage(context.Background(), msg))
	recorder.AssertNumberOfCalls(t, "UpdatePayment", 1)
}

func TestHandleMessage_InfrastructureErrorIsReturned(t *testing.T) {
	recorder := &mockPaymentRecorder{}
	recorder.On("UpdatePayment", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("database is down"))

	msg := paymentMessage(t, schema.PaymentRecorded, schema.PaymentRecordedEvent{
		BookingID:       uuid.New(),
		PaidAmountCents: 1,
	})

	assert.Error(t, newTestConsumer(recorder).handleMessage(context.Background(), msg))
}

func TestHandleMessage_Ignored(t *testing.T) {
	tests := []struct {
		name string
		msg  kafkago.Message
	}{
		{name: "not json", msg: kafkago.Message{Value: []byte("{not json")}},
		{name: "missing type", msg: kafkago.Message{Value: []byte(`{"id":"1"}`)}},
		{name: "other event type", msg: paymentMessage(t, "payment.refunded", map[string]string{"x": "y"})},
		{name: "bad payload", msg: paymentMessage(t, schema.PaymentRecorded, "not an object")},
		{name: "no booking", msg: paymentMessage(t, schema.PaymentRecorded, schema.PaymentRecordedEvent{PaidAmountCents: 10})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &mockPaymentRecorder{}
			assert.NoError(t, newTestConsumer(recorder).handleMessage(context.Background(), tt.msg))
			recorder.AssertNotCalled(t, "UpdatePayment", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
