package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// MemoryBookingRepository is the in-process implementation of BookingRepository.
// It stores clones so callers never share state with the store.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*bookingDomain.Booking
}

// NewMemoryBookingRepository creates an empty MemoryBookingRepository.
func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

// FindByID retrieves a booking by its unique identifier.
func (r *MemoryBookingRepository) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return bk.Clone(), nil
}

// FindByRoomID retrieves all bookings for a room ordered by booking date.
func (r *MemoryBookingRepository) FindByRoomID(_ context.Context, roomID string) ([]*bookingDomain.Booking, error) {
	out := r.filter(func(b *bookingDomain.Booking) bool { return b.RoomID() == roomID })
	sortByBookingDate(out, false)
	return out, nil
}

// FindByGuestID retrieves bookings that list the guest, newest booking date first.
func (r *MemoryBookingRepository) FindByGuestID(_ context.Context, guestID uuid.UUID) ([]*bookingDomain.Booking, error) {
	out := r.filter(func(b *bookingDomain.Booking) bool { return b.HasGuest(guestID) })
	sortByBookingDate(out, true)
	return out, nil
}

// FindActiveOn retrieves bookings that hold their room on day.
func (r *MemoryBookingRepository) FindActiveOn(_ context.Context, day time.Time) ([]*bookingDomain.Booking, error) {
	out := r.filter(func(b *bookingDomain.Booking) bool {
		return b.HoldsRoom() && b.OccupiedInterval().Contains(day)
	})
	sortByBookingDate(out, false)
	return out, nil
}

// ListAll retrieves all bookings with pagination, newest first.
func (r *MemoryBookingRepository) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	all := r.filter(func(*bookingDomain.Booking) bool { return true })
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CreatedAt().Equal(all[j].CreatedAt()) {
			return all[i].BookingNumber() < all[j].BookingNumber()
		}
		return all[i].CreatedAt().After(all[j].CreatedAt())
	})
	return domain.Paginate(all, page, limit), int64(len(all)), nil
}

// CountByStatus returns booking counts grouped by status.
func (r *MemoryBookingRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, b := range r.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

// Save persists a new booking.
func (r *MemoryBookingRepository) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[bk.ID()]; exists {
		return domain.NewConflictError("booking " + bk.ID().String() + " already exists")
	}
	r.bookings[bk.ID()] = bk.Clone()
	return nil
}

// Update replaces a booking if the stored version is the one the caller read.
func (r *MemoryBookingRepository) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	if stored.Version() != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[bk.ID()] = bk.Clone()
	return nil
}

// Delete removes a booking.
func (r *MemoryBookingRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[id]; !ok {
		return domain.NewNotFoundError("Booking", id.String())
	}
	delete(r.bookings, id)
	return nil
}

func (r *MemoryBookingRepository) filter(keep func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	return out
}

func sortByBookingDate(bookings []*bookingDomain.Booking, desc bool) {
	sort.SliceStable(bookings, func(i, j int) bool {
		a, b := bookings[i], bookings[j]
		if a.BookingDate().Equal(b.BookingDate()) {
			return a.CreatedAt().Before(b.CreatedAt())
		}
		if desc {
			return a.BookingDate().After(b.BookingDate())
		}
		return a.BookingDate().Before(b.BookingDate())
	})
}
