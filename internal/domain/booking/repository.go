package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
// Implementations return copies: mutating a returned booking never changes stored state until Update.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByRoomID retrieves every booking ever made for a room, ordered by booking date.
	FindByRoomID(ctx context.Context, roomID string) ([]*Booking, error)

	// FindByGuestID retrieves bookings listing the guest, newest booking date first.
	FindByGuestID(ctx context.Context, guestID uuid.UUID) ([]*Booking, error)

	// FindActiveOn retrieves bookings that hold their room and whose interval contains day.
	FindActiveOn(ctx context.Context, day time.Time) ([]*Booking, error)

	// ListAll retrieves all bookings with pagination, newest first.
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status.
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// Delete removes a booking.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CancellationRequestRepository defines the persistence contract for cancellation requests.
type CancellationRequestRepository interface {
	// FindByID retrieves a request by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*CancellationRequest, error)

	// FindPendingByBookingID returns the pending request for a booking, or NotFoundError.
	FindPendingByBookingID(ctx context.Context, bookingID uuid.UUID) (*CancellationRequest, error)

	// FindByBookingID returns every request for a booking, most recent first.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*CancellationRequest, error)

	// ListByStatus returns requests with the given status, or all when status is empty, most recent first.
	ListByStatus(ctx context.Context, status CancellationStatus) ([]*CancellationRequest, error)

	// Save persists a new request. A second pending request for the same booking is a ConflictError.
	Save(ctx context.Context, req *CancellationRequest) error

	// Update persists a resolved request with optimistic locking.
	Update(ctx context.Context, req *CancellationRequest) error

	// DeletePendingByBookingID discards the pending request for a booking, if any.
	DeletePendingByBookingID(ctx context.Context, bookingID uuid.UUID) (bool, error)
}
