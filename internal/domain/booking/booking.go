package booking

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/platform/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// MaxDurationDays caps a stay, extensions included, at ten years.
const MaxDurationDays = 3650

// Booking is the aggregate root for a room reservation.
type Booking struct {
	id             uuid.UUID
	bookingNumber  string
	roomID         string
	guestIDs       []uuid.UUID
	numberOfPeople int
	status         BookingStatus

	totalAmountCents int64
	paidAmountCents  int64

	bookingDate  time.Time
	durationDays int

	checkInAt   *time.Time
	checkOutAt  *time.Time
	cancelledAt *time.Time
	cancelledBy *uuid.UUID
	notes       string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=upcoming.
// Room availability is the caller's responsibility; the aggregate only sees its own fields.
func NewBooking(
	roomID string,
	guestIDs []uuid.UUID,
	numberOfPeople int,
	totalAmountCents int64,
	paidAmountCents int64,
	bookingDate time.Time,
	durationDays int,
	notes string,
	now time.Time,
) (*Booking, error) {
	if roomID == "" {
		return nil, domain.NewValidationError("room ID is required")
	}
	if err := validateGuestIDs(guestIDs); err != nil {
		return nil, err
	}
	if err := ValidateTerms(totalAmountCents, paidAmountCents, durationDays); err != nil {
		return nil, err
	}
	if bookingDate.IsZero() {
		return nil, domain.NewValidationError("booking date is required")
	}
	if numberOfPeople == 0 {
		numberOfPeople = len(guestIDs)
	}
	if numberOfPeople < 1 {
		return nil, domain.NewValidationError("number of people must be positive")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(guestIDs))
	copy(ids, guestIDs)

	now = now.UTC()
	return &Booking{
		id:               uuid.New(),
		bookingNumber:    bookingNumber,
		roomID:           roomID,
		guestIDs:         ids,
		numberOfPeople:   numberOfPeople,
		status:           StatusUpcoming,
		totalAmountCents: totalAmountCents,
		paidAmountCents:  paidAmountCents,
		bookingDate:      DayOf(bookingDate),
		durationDays:     durationDays,
		notes:            notes,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// ValidateTerms checks the money and length of a stay.
func ValidateTerms(totalAmountCents, paidAmountCents int64, durationDays int) error {
	if totalAmountCents < 0 {
		return domain.NewValidationError("total amount cannot be negative")
	}
	if paidAmountCents < 0 {
		return domain.NewValidationError("paid amount cannot be negative")
	}
	if paidAmountCents > totalAmountCents {
		return domain.NewValidationError("paid amount cannot exceed total amount")
	}
	if durationDays < 1 {
		return domain.NewValidationError("duration must be at least one day")
	}
	if durationDays > MaxDurationDays {
		return domain.NewValidationError(fmt.Sprintf("duration cannot exceed %d days", MaxDurationDays))
	}
	return nil
}

func validateGuestIDs(guestIDs []uuid.UUID) error {
	if len(guestIDs) == 0 {
		return domain.NewValidationError("at least one guest is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(guestIDs))
	for _, id := range guestIDs {
		if id == uuid.Nil {
			return domain.NewValidationError("guest ID cannot be empty")
		}
		if _, dup := seen[id]; dup {
			return domain.NewValidationError(fmt.Sprintf("guest %s listed more than once", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	roomID string,
	guestIDs []uuid.UUID,
	numberOfPeople int,
	status BookingStatus,
	totalAmountCents int64,
	paidAmountCents int64,
	bookingDate time.Time,
	durationDays int,
	checkInAt *time.Time,
	checkOutAt *time.Time,
	cancelledAt *time.Time,
	cancelledBy *uuid.UUID,
	notes string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	ids := make([]uuid.UUID, len(guestIDs))
	copy(ids, guestIDs)
	return &Booking{
		id:               id,
		bookingNumber:    bookingNumber,
		roomID:           roomID,
		guestIDs:         ids,
		numberOfPeople:   numberOfPeople,
		status:           status,
		totalAmountCents: totalAmountCents,
		paidAmountCents:  paidAmountCents,
		bookingDate:      DayOf(bookingDate),
		durationDays:     durationDays,
		checkInAt:        copyTime(checkInAt),
		checkOutAt:       copyTime(checkOutAt),
		cancelledAt:      copyTime(cancelledAt),
		cancelledBy:      copyUUID(cancelledBy),
		notes:            notes,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// Clone returns a deep copy, so a stored aggregate is never mutated through a caller's pointer.
func (b *Booking) Clone() *Booking {
	return ReconstructBooking(
		b.id, b.bookingNumber, b.roomID, b.guestIDs, b.numberOfPeople, b.status,
		b.totalAmountCents, b.paidAmountCents, b.bookingDate, b.durationDays,
		b.checkInAt, b.checkOutAt, b.cancelledAt, b.cancelledBy, b.notes,
		b.version, b.createdAt, b.updatedAt,
	)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// RoomID returns the catalog identifier of the booked room.
func (b *Booking) RoomID() string { return b.roomID }

// GuestIDs returns the guests on the booking; the first one is the primary guest.
func (b *Booking) GuestIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(b.guestIDs))
	copy(ids, b.guestIDs)
	return ids
}

// PrimaryGuestID returns the first guest on the booking.
func (b *Booking) PrimaryGuestID() uuid.UUID { return b.guestIDs[0] }

// HasGuest reports whether guestID is on the booking.
func (b *Booking) HasGuest(guestID uuid.UUID) bool {
	for _, id := range b.guestIDs {
		if id == guestID {
			return true
		}
	}
	return false
}

// NumberOfPeople returns the head count for the stay.
func (b *Booking) NumberOfPeople() int { return b.numberOfPeople }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// TotalAmountCents returns the amount owed for the stay.
func (b *Booking) TotalAmountCents() int64 { return b.totalAmountCents }

// PaidAmountCents returns the amount paid so far.
func (b *Booking) PaidAmountCents() int64 { return b.paidAmountCents }

// BalanceCents returns what is still owed.
func (b *Booking) BalanceCents() int64 { return b.totalAmountCents - b.paidAmountCents }

// IsFullyPaid reports whether nothing is owed.
func (b *Booking) IsFullyPaid() bool { return b.paidAmountCents >= b.totalAmountCents }

// BookingDate returns the first day of the stay.
func (b *Booking) BookingDate() time.Time { return b.bookingDate }

// DurationDays returns the number of nights booked.
func (b *Booking) DurationDays() int { return b.durationDays }

// EndDateExclusive returns the day after the last occupied day.
func (b *Booking) EndDateExclusive() time.Time { return AddDays(b.bookingDate, b.durationDays) }

// OccupiedInterval returns the inclusive span of days the booking holds.
func (b *Booking) OccupiedInterval() Interval { return OccupiedInterval(b.bookingDate, b.durationDays) }

// CheckInAt returns when the guests checked in.
func (b *Booking) CheckInAt() *time.Time { return b.checkInAt }

// CheckOutAt returns when the guests checked out.
func (b *Booking) CheckOutAt() *time.Time { return b.checkOutAt }

// CancelledAt returns when the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelledBy returns who cancelled the booking.
func (b *Booking) CancelledBy() *uuid.UUID { return b.cancelledBy }

// Notes returns free-text notes.
func (b *Booking) Notes() string { return b.notes }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// HoldsRoom reports whether the booking still blocks its dates for other bookings.
func (b *Booking) HoldsRoom() bool { return b.status.HoldsRoom() }

// IsCurrentlyActive reports whether guests are in the room on day: checked in,
// not checked out, and day within the occupied interval.
func (b *Booking) IsCurrentlyActive(day time.Time) bool {
	return b.status == StatusCheckedIn && b.OccupiedInterval().Contains(day)
}

// --- Behavior ---

// CheckIn transitions the booking from upcoming to checked_in.
func (b *Booking) CheckIn(now time.Time) error {
	if b.checkInAt != nil {
		return domain.NewStateError("booking is already checked in")
	}
	if !b.status.CanTransitionTo(StatusCheckedIn) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCheckedIn))
	}
	now = now.UTC()
	b.status = StatusCheckedIn
	b.checkInAt = &now
	b.updatedAt = now
	return nil
}

// CheckOut transitions the booking from checked_in to checked_out, releasing the room.
func (b *Booking) CheckOut(now time.Time) error {
	if b.checkInAt == nil {
		return domain.NewStateError("booking has not been checked in")
	}
	if b.checkOutAt != nil {
		return domain.NewStateError("booking is already checked out")
	}
	if !b.status.CanTransitionTo(StatusCheckedOut) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCheckedOut))
	}
	now = now.UTC()
	if now.Before(*b.checkInAt) {
		return domain.NewValidationError("check-out time cannot precede check-in time")
	}
	b.status = StatusCheckedOut
	b.checkOutAt = &now
	b.updatedAt = now
	return nil
}

// Cancel transitions an upcoming booking to cancelled. Cancellation is only legal before check-in.
func (b *Booking) Cancel(cancelledBy uuid.UUID, now time.Time) error {
	if b.checkInAt != nil {
		return domain.NewStateError("booking cannot be cancelled after check-in")
	}
	if b.cancelledAt != nil {
		return domain.NewStateError("booking is already cancelled")
	}
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now = now.UTC()
	b.status = StatusCancelled
	b.cancelledAt = &now
	if cancelledBy != uuid.Nil {
		b.cancelledBy = &cancelledBy
	}
	b.updatedAt = now
	return nil
}

// ExtensionWindow returns the days an extension by extraDays would newly claim:
// [current exclusive end, current exclusive end + extraDays).
func (b *Booking) ExtensionWindow(extraDays int) Window {
	end := b.EndDateExclusive()
	return Window{Start: end, EndExclusive: AddDays(end, extraDays)}
}

// ValidateExtension checks everything about an extension except room availability.
// Only a stay in progress can be extended.
func (b *Booking) ValidateExtension(extraDays int, extraAmountCents int64) error {
	if extraDays < 1 {
		return domain.NewValidationError("extra days must be at least one")
	}
	if extraAmountCents < 0 {
		return domain.NewValidationError("extra amount cannot be negative")
	}
	if extraDays > MaxDurationDays-b.durationDays {
		return domain.NewValidationError(fmt.Sprintf("a stay cannot exceed %d days", MaxDurationDays))
	}
	if extraAmountCents > math.MaxInt64-b.totalAmountCents {
		return domain.NewValidationError("extra amount is too large")
	}
	if b.status != StatusCheckedIn {
		return domain.NewStateError(fmt.Sprintf("only a checked-in stay can be extended, booking is %s", b.status))
	}
	return nil
}

// Extend grows the stay by extraDays and the bill by extraAmountCents. The duration never shrinks.
// The caller must have verified the extension window is free.
func (b *Booking) Extend(extraDays int, extraAmountCents int64, now time.Time) error {
	if err := b.ValidateExtension(extraDays, extraAmountCents); err != nil {
		return err
	}
	b.durationDays += extraDays
	b.totalAmountCents += extraAmountCents
	b.updatedAt = now.UTC()
	return nil
}

// UpdatePayment records a new cumulative paid amount. Payments only go up (no refunds)
// and never past the total.
func (b *Booking) UpdatePayment(newPaidAmountCents int64, now time.Time) error {
	if newPaidAmountCents < b.paidAmountCents {
		return domain.NewValidationError(fmt.Sprintf(
			"paid amount %d cannot be lower than the current paid amount %d", newPaidAmountCents, b.paidAmountCents))
	}
	if newPaidAmountCents > b.totalAmountCents {
		return domain.NewValidationError(fmt.Sprintf(
			"paid amount %d cannot exceed the total amount %d", newPaidAmountCents, b.totalAmountCents))
	}
	b.paidAmountCents = newPaidAmountCents
	b.updatedAt = now.UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
