// Package schema holds the topics, CloudEvent types and payloads the booking
// service publishes and consumes.
package schema

import (
	"time"

	"github.com/google/uuid"
)

// Source is the CloudEvent source for everything this service publishes.
const Source = "service-booking"

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Booking event types.
const (
	BookingCreated        = "booking.created"
	BookingCheckedIn      = "booking.checked_in"
	BookingCheckedOut     = "booking.checked_out"
	BookingCancelled      = "booking.cancelled"
	BookingExtended       = "booking.extended"
	BookingPaymentUpdated = "booking.payment_updated"
	BookingDeleted        = "booking.deleted"

	CancellationRequested = "cancellation.requested"
	CancellationApproved  = "cancellation.approved"
	CancellationRejected  = "cancellation.rejected"
)

// Payment event types.
const (
	PaymentRecorded = "payment.recorded"
)

// BookingCreatedEvent is published when a booking is made.
type BookingCreatedEvent struct {
	BookingID        uuid.UUID   `json:"booking_id"`
	BookingNumber    string      `json:"booking_number"`
	RoomID           string      `json:"room_id"`
	GuestIDs         []uuid.UUID `json:"guest_ids"`
	BookingDate      string      `json:"booking_date"`
	DurationDays     int         `json:"duration_days"`
	TotalAmountCents int64       `json:"total_amount_cents"`
	PaidAmountCents  int64       `json:"paid_amount_cents"`
	OccurredAt       time.Time   `json:"occurred_at"`
}

// BookingStatusChangedEvent is published on check-in, check-out, cancellation and deletion.
type BookingStatusChangedEvent struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	BookingNumber string     `json:"booking_number"`
	RoomID        string     `json:"room_id"`
	Status        string     `json:"status"`
	ChangedBy     *uuid.UUID `json:"changed_by,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// BookingExtendedEvent is published when a stay grows.
type BookingExtendedEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	BookingNumber    string    `json:"booking_number"`
	RoomID           string    `json:"room_id"`
	ExtraDays        int       `json:"extra_days"`
	DurationDays     int       `json:"duration_days"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// BookingPaymentUpdatedEvent is published when the paid amount changes.
type BookingPaymentUpdatedEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	BookingNumber    string    `json:"booking_number"`
	PaidAmountCents  int64     `json:"paid_amount_cents"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// CancellationEvent is published when a cancellation request is raised or resolved.
type CancellationEvent struct {
	RequestID  uuid.UUID  `json:"request_id"`
	BookingID  uuid.UUID  `json:"booking_id"`
	Status     string     `json:"status"`
	ActorID    uuid.UUID  `json:"actor_id"`
	OccurredAt time.Time  `json:"occurred_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// PaymentRecordedEvent arrives from the payment side with the new cumulative paid amount.
type PaymentRecordedEvent struct {
	PaymentID       uuid.UUID `json:"payment_id"`
	BookingID       uuid.UUID `json:"booking_id"`
	PaidAmountCents int64     `json:"paid_amount_cents"`
	OccurredAt      time.Time `json:"occurred_at"`
}
