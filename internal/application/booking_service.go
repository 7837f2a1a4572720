package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	guestDomain "github.com/roomdesk/service-booking/internal/domain/guest"
	roomDomain "github.com/roomdesk/service-booking/internal/domain/room"
	"github.com/roomdesk/service-booking/internal/events/schema"
	"github.com/roomdesk/service-booking/internal/platform/domain"
	"github.com/roomdesk/service-booking/internal/platform/lock"
)

// CreateBookingRequest holds the data needed to create a new booking.
// Guests are given by directory ID, by identity (resolved or created), or both;
// identities come after IDs in the final guest order.
type CreateBookingRequest struct {
	RoomID           string                `json:"room_id" binding:"required,max=50"`
	GuestIDs         []uuid.UUID           `json:"guest_ids"`
	Guests           []ResolveGuestRequest `json:"guests" binding:"dive"`
	NumberOfPeople   int                   `json:"number_of_people" binding:"omitempty,min=1"`
	TotalAmountCents int64                 `json:"total_amount_cents" binding:"min=0"`
	PaidAmountCents  int64                 `json:"paid_amount_cents" binding:"min=0"`
	BookingDate      string                `json:"booking_date" binding:"required,isodate"`
	DurationDays     int                   `json:"duration_days" binding:"required,min=1,max=3650"`
	Notes            string                `json:"notes" binding:"max=1000"`
}

// BatchRoomRequest is one room of a multi-room booking.
type BatchRoomRequest struct {
	RoomID         string `json:"room_id" binding:"required,max=50"`
	NumberOfPeople int    `json:"number_of_people" binding:"omitempty,min=1"`
}

// CreateBatchBookingRequest books several rooms for one party over the same dates.
// Amounts cover the whole party and are split across the rooms.
type CreateBatchBookingRequest struct {
	Rooms            []BatchRoomRequest    `json:"rooms" binding:"required,min=1,dive"`
	GuestIDs         []uuid.UUID           `json:"guest_ids"`
	Guests           []ResolveGuestRequest `json:"guests" binding:"dive"`
	TotalAmountCents int64                 `json:"total_amount_cents" binding:"min=0"`
	PaidAmountCents  int64                 `json:"paid_amount_cents" binding:"min=0"`
	BookingDate      string                `json:"booking_date" binding:"required,isodate"`
	DurationDays     int                   `json:"duration_days" binding:"required,min=1,max=3650"`
	Notes            string                `json:"notes" binding:"max=1000"`
}

// ExtendBookingRequest grows a stay.
type ExtendBookingRequest struct {
	ExtraDays        int   `json:"extra_days" binding:"required,min=1,max=3650"`
	ExtraAmountCents int64 `json:"extra_amount_cents" binding:"min=0"`
}

// StayPaymentRequest optionally records the cumulative paid amount taken at the
// desk together with a check-in or check-out.
type StayPaymentRequest struct {
	PaidAmountCents *int64 `json:"paid_amount_cents" binding:"omitempty,min=0"`
}

// UpdatePaymentRequest sets the cumulative paid amount.
type UpdatePaymentRequest struct {
	PaidAmountCents int64 `json:"paid_amount_cents" binding:"min=0"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID               uuid.UUID   `json:"id"`
	BookingNumber    string      `json:"booking_number"`
	RoomID           string      `json:"room_id"`
	GuestIDs         []uuid.UUID `json:"guest_ids"`
	PrimaryGuestID   uuid.UUID   `json:"primary_guest_id"`
	NumberOfPeople   int         `json:"number_of_people"`
	Status           string      `json:"status"`
	TotalAmountCents int64       `json:"total_amount_cents"`
	PaidAmountCents  int64       `json:"paid_amount_cents"`
	BalanceCents     int64       `json:"balance_cents"`
	BookingDate      string      `json:"booking_date"`
	DurationDays     int         `json:"duration_days"`
	LastNight        string      `json:"last_night"`
	CheckInAt        *time.Time  `json:"check_in_at,omitempty"`
	CheckOutAt       *time.Time  `json:"check_out_at,omitempty"`
	CancelledAt      *time.Time  `json:"cancelled_at,omitempty"`
	CancelledBy      *uuid.UUID  `json:"cancelled_by,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	Version          int64       `json:"version"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// AvailabilityDTO answers an availability query.
type AvailabilityDTO struct {
	RoomID           string   `json:"room_id"`
	StartDate        string   `json:"start_date"`
	EndDateExclusive string   `json:"end_date_exclusive"`
	Available        bool     `json:"available"`
	ConflictingWith  []string `json:"conflicting_with,omitempty"`
}

// RoomBookingView selects which of a room's bookings to list.
type RoomBookingView string

const (
	ViewAll      RoomBookingView = "all"
	ViewCurrent  RoomBookingView = "current"
	ViewUpcoming RoomBookingView = "upcoming"
	ViewPast     RoomBookingView = "past"
)

// ParseRoomBookingView defaults to ViewAll for an empty string.
func ParseRoomBookingView(s string) (RoomBookingView, error) {
	switch v := RoomBookingView(strings.ToLower(s)); v {
	case "":
		return ViewAll, nil
	case ViewAll, ViewCurrent, ViewUpcoming, ViewPast:
		return v, nil
	default:
		return "", domain.NewValidationError(fmt.Sprintf("invalid view %q, expected all, current, upcoming or past", s))
	}
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService is the application service orchestrating the booking lifecycle.
//
// Operations that decide on room availability hold the room lock and then the
// booking lock; operations confined to one booking hold only the booking lock.
// Preconditions are re-checked on a fresh read once the locks are held.
type BookingService struct {
	repo     bookingDomain.BookingRepository
	requests bookingDomain.CancellationRequestRepository
	guests   guestDomain.GuestRepository
	rooms    roomDomain.Catalog
	tx       Transactor
	locks    *lock.KeyedMutex
	clock    Clock
	events   eventPublisher
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	requests bookingDomain.CancellationRequestRepository,
	guests guestDomain.GuestRepository,
	rooms roomDomain.Catalog,
	tx Transactor,
	locks *lock.KeyedMutex,
	clock Clock,
	producer Publisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:     repo,
		requests: requests,
		guests:   guests,
		rooms:    rooms,
		tx:       tx,
		locks:    locks,
		clock:    clock,
		events:   eventPublisher{producer: producer, logger: logger},
		logger:   logger,
	}
}

func roomKey(roomID string) string          { return "room:" + roomID }
func bookingKey(bookingID uuid.UUID) string { return "booking:" + bookingID.String() }

// lockBooking takes the booking lock and returns a fresh copy of the booking.
func (s *BookingService) lockBooking(ctx context.Context, bookingID uuid.UUID) (*bookingDomain.Booking, func(), error) {
	unlock := s.locks.Lock(bookingKey(bookingID))
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return bk, unlock, nil
}

// lockRoomAndBooking takes the room lock, then the booking lock, and returns a fresh copy.
// A booking never changes room, so the unlocked first read is only used for the room ID.
func (s *BookingService) lockRoomAndBooking(ctx context.Context, bookingID uuid.UUID) (*bookingDomain.Booking, func(), error) {
	peek, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	unlockRoom := s.locks.Lock(roomKey(peek.RoomID()))
	unlockBooking := s.locks.Lock(bookingKey(bookingID))
	unlock := func() {
		unlockBooking()
		unlockRoom()
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return bk, unlock, nil
}

// IsAvailable reports whether roomID is free for [start, endExclusive), ignoring excludeBookingID.
func (s *BookingService) IsAvailable(ctx context.Context, roomID string, start, endExclusive time.Time, excludeBookingID *uuid.UUID) (bool, error) {
	result, err := s.CheckAvailability(ctx, roomID, start, endExclusive, excludeBookingID)
	if err != nil {
		return false, err
	}
	return result.Available, nil
}

// CheckAvailability is IsAvailable with the conflicting booking numbers attached.
func (s *BookingService) CheckAvailability(ctx context.Context, roomID string, start, endExclusive time.Time, excludeBookingID *uuid.UUID) (*AvailabilityDTO, error) {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return nil, err
	}
	w, err := bookingDomain.NewWindow(start, endExclusive)
	if err != nil {
		return nil, err
	}
	bookings, err := s.repo.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load room bookings: %w", err)
	}

	conflicts := bookingDomain.Conflicts(bookings, w, excludeBookingID)
	result := &AvailabilityDTO{
		RoomID:           roomID,
		StartDate:        bookingDomain.FormatDate(w.Start),
		EndDateExclusive: bookingDomain.FormatDate(w.EndExclusive),
		Available:        len(conflicts) == 0,
	}
	for _, c := range conflicts {
		result.ConflictingWith = append(result.ConflictingWith, c.BookingNumber())
	}
	return result, nil
}

// CreateBooking books a room for a party of guests. The room must be free for the whole stay.
// Guests given by identity are registered only once the room is known to be free.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingDTO, error) {
	bookingDate, err := bookingDomain.ParseDate(req.BookingDate)
	if err != nil {
		return nil, err
	}
	if _, err := s.rooms.FindByID(ctx, req.RoomID); err != nil {
		return nil, err
	}
	if err := bookingDomain.ValidateTerms(req.TotalAmountCents, req.PaidAmountCents, req.DurationDays); err != nil {
		return nil, err
	}
	if req.NumberOfPeople < 0 {
		return nil, domain.NewValidationError("number of people must be positive")
	}
	if err := validateGuestRefs(req.GuestIDs, req.Guests); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(roomKey(req.RoomID))
	defer unlock()

	if err := s.ensureRoomFree(ctx, req.RoomID, bookingDomain.StayWindow(bookingDate, req.DurationDays), nil); err != nil {
		return nil, err
	}

	var bk *bookingDomain.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		guestIDs, err := s.resolveGuests(ctx, req.GuestIDs, req.Guests)
		if err != nil {
			return err
		}
		bk, err = bookingDomain.NewBooking(
			req.RoomID,
			guestIDs,
			req.NumberOfPeople,
			req.TotalAmountCents,
			req.PaidAmountCents,
			bookingDate,
			req.DurationDays,
			req.Notes,
			s.clock.Now(),
		)
		if err != nil {
			return err
		}
		if err := s.repo.Save(ctx, bk); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("room_id", bk.RoomID()),
		zap.String("booking_date", req.BookingDate),
		zap.Int("duration_days", bk.DurationDays()),
	)
	s.publishCreated(ctx, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// CreateBatch books several distinct rooms for one party. Either every room is
// booked or none is.
func (s *BookingService) CreateBatch(ctx context.Context, req CreateBatchBookingRequest) ([]BookingDTO, error) {
	bookingDate, err := bookingDomain.ParseDate(req.BookingDate)
	if err != nil {
		return nil, err
	}
	if len(req.Rooms) == 0 {
		return nil, domain.NewValidationError("at least one room is required")
	}
	if err := bookingDomain.ValidateTerms(req.TotalAmountCents, req.PaidAmountCents, req.DurationDays); err != nil {
		return nil, err
	}
	if err := validateGuestRefs(req.GuestIDs, req.Guests); err != nil {
		return nil, err
	}

	roomIDs := make([]string, len(req.Rooms))
	seen := make(map[string]struct{}, len(req.Rooms))
	for i, r := range req.Rooms {
		if _, dup := seen[r.RoomID]; dup {
			return nil, domain.NewValidationError(fmt.Sprintf("room %s is listed more than once", r.RoomID))
		}
		seen[r.RoomID] = struct{}{}
		if _, err := s.rooms.FindByID(ctx, r.RoomID); err != nil {
			return nil, err
		}
		if r.NumberOfPeople < 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("room %s: number of people must be positive", r.RoomID))
		}
		roomIDs[i] = r.RoomID
	}

	keys := make([]string, len(roomIDs))
	for i, id := range roomIDs {
		keys[i] = roomKey(id)
	}
	unlock := s.locks.LockAll(keys...)
	defer unlock()

	stay := bookingDomain.StayWindow(bookingDate, req.DurationDays)
	for _, id := range roomIDs {
		if err := s.ensureRoomFree(ctx, id, stay, nil); err != nil {
			return nil, err
		}
	}

	totals := splitAmount(req.TotalAmountCents, len(req.Rooms))
	paid := splitAmount(req.PaidAmountCents, len(req.Rooms))
	bookings := make([]*bookingDomain.Booking, len(req.Rooms))

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		guestIDs, err := s.resolveGuests(ctx, req.GuestIDs, req.Guests)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		for i, r := range req.Rooms {
			bk, err := bookingDomain.NewBooking(
				r.RoomID, guestIDs, r.NumberOfPeople, totals[i], paid[i],
				bookingDate, req.DurationDays, req.Notes, now,
			)
			if err != nil {
				return err
			}
			bookings[i] = bk
		}
		for _, bk := range bookings {
			if err := s.repo.Save(ctx, bk); err != nil {
				return fmt.Errorf("failed to save booking for room %s: %w", bk.RoomID(), err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("batch booking created",
		zap.Strings("room_ids", roomIDs),
		zap.String("booking_date", req.BookingDate),
		zap.Int("duration_days", req.DurationDays),
	)

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		s.publishCreated(ctx, bk)
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, nil
}

// CheckIn marks the guests as arrived. A room holds one checked-in party at a time,
// and a pending cancellation request for the booking is discarded.
func (s *BookingService) CheckIn(ctx context.Context, bookingID uuid.UUID, req StayPaymentRequest) (*BookingDTO, error) {
	bk, unlock, err := s.lockRoomAndBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := bk.CheckIn(s.clock.Now()); err != nil {
		return nil, err
	}
	paymentTaken, err := s.applyStayPayment(bk, req.PaidAmountCents)
	if err != nil {
		return nil, err
	}

	roomBookings, err := s.repo.FindByRoomID(ctx, bk.RoomID())
	if err != nil {
		return nil, fmt.Errorf("failed to load room bookings: %w", err)
	}
	today := s.clock.Today()
	for _, other := range roomBookings {
		if other.ID() != bk.ID() && other.IsCurrentlyActive(today) {
			return nil, domain.NewConflictError(fmt.Sprintf(
				"room %s is occupied by booking %s", bk.RoomID(), other.BookingNumber()))
		}
	}

	var discarded bool
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		bk.IncrementVersion()
		if err := s.repo.Update(ctx, bk); err != nil {
			return err
		}
		discarded, err = s.requests.DeletePendingByBookingID(ctx, bk.ID())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking checked in",
		zap.String("booking_id", bk.ID().String()),
		zap.String("room_id", bk.RoomID()),
		zap.Bool("pending_cancellation_discarded", discarded),
	)
	s.publishStatusChanged(ctx, schema.BookingCheckedIn, bk, nil)
	if paymentTaken {
		s.publishPaymentUpdated(ctx, bk)
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// CheckOut marks the guests as departed and releases the room.
func (s *BookingService) CheckOut(ctx context.Context, bookingID uuid.UUID, req StayPaymentRequest) (*BookingDTO, error) {
	bk, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := bk.CheckOut(s.clock.Now()); err != nil {
		return nil, err
	}
	paymentTaken, err := s.applyStayPayment(bk, req.PaidAmountCents)
	if err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking checked out",
		zap.String("booking_id", bk.ID().String()),
		zap.String("room_id", bk.RoomID()),
	)
	s.publishStatusChanged(ctx, schema.BookingCheckedOut, bk, nil)
	if paymentTaken {
		s.publishPaymentUpdated(ctx, bk)
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a booking that has not been checked in. Admin only.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, cancelledBy uuid.UUID) (*BookingDTO, error) {
	bk, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.cancelLocked(ctx, bk, cancelledBy)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bk.ID().String()),
		zap.String("cancelled_by", cancelledBy.String()),
	)
	s.publishStatusChanged(ctx, schema.BookingCancelled, bk, &cancelledBy)

	result := toBookingDTO(bk)
	return &result, nil
}

// cancelLocked cancels bk and discards its pending request. The caller holds the
// booking lock and supplies the transaction.
func (s *BookingService) cancelLocked(ctx context.Context, bk *bookingDomain.Booking, cancelledBy uuid.UUID) error {
	if err := bk.Cancel(cancelledBy, s.clock.Now()); err != nil {
		return err
	}
	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return err
	}
	if _, err := s.requests.DeletePendingByBookingID(ctx, bk.ID()); err != nil {
		return err
	}
	return nil
}

// ExtendBooking grows a stay. Only the newly claimed days are checked for availability.
func (s *BookingService) ExtendBooking(ctx context.Context, bookingID uuid.UUID, req ExtendBookingRequest) (*BookingDTO, error) {
	bk, unlock, err := s.lockRoomAndBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := bk.ValidateExtension(req.ExtraDays, req.ExtraAmountCents); err != nil {
		return nil, err
	}
	id := bk.ID()
	if err := s.ensureRoomFree(ctx, bk.RoomID(), bk.ExtensionWindow(req.ExtraDays), &id); err != nil {
		return nil, err
	}
	if err := bk.Extend(req.ExtraDays, req.ExtraAmountCents, s.clock.Now()); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking extended",
		zap.String("booking_id", bk.ID().String()),
		zap.Int("extra_days", req.ExtraDays),
		zap.Int("duration_days", bk.DurationDays()),
	)
	s.events.publish(ctx, schema.BookingExtended, bk.ID().String(), schema.BookingExtendedEvent{
		BookingID:        bk.ID(),
		BookingNumber:    bk.BookingNumber(),
		RoomID:           bk.RoomID(),
		ExtraDays:        req.ExtraDays,
		DurationDays:     bk.DurationDays(),
		TotalAmountCents: bk.TotalAmountCents(),
		OccurredAt:       s.clock.Now(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdatePayment records a new cumulative paid amount. Re-sending the current amount is a no-op.
func (s *BookingService) UpdatePayment(ctx context.Context, bookingID uuid.UUID, req UpdatePaymentRequest) (*BookingDTO, error) {
	bk, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if req.PaidAmountCents == bk.PaidAmountCents() {
		result := toBookingDTO(bk)
		return &result, nil
	}
	if err := bk.UpdatePayment(req.PaidAmountCents, s.clock.Now()); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking payment updated",
		zap.String("booking_id", bk.ID().String()),
		zap.Int64("paid_amount_cents", bk.PaidAmountCents()),
		zap.Int64("balance_cents", bk.BalanceCents()),
	)
	s.publishPaymentUpdated(ctx, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// DeleteBooking removes a booking record. Bookings referenced by any cancellation
// request are kept for the audit trail.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	bk, unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	defer unlock()

	requests, err := s.requests.FindByBookingID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to load cancellation requests: %w", err)
	}
	if len(requests) > 0 {
		return domain.NewStateError("booking is referenced by a cancellation request and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, bookingID); err != nil {
		return err
	}

	s.logger.Info("booking deleted", zap.String("booking_id", bookingID.String()))
	s.publishStatusChanged(ctx, schema.BookingDeleted, bk, nil)
	return nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings returns a page of all bookings, newest first.
func (s *BookingService) ListBookings(ctx context.Context, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetGuestBookings lists every booking the guest is part of, newest booking date first.
func (s *BookingService) GetGuestBookings(ctx context.Context, guestID uuid.UUID) ([]BookingDTO, error) {
	if _, err := s.guests.FindByID(ctx, guestID); err != nil {
		return nil, err
	}
	bookings, err := s.repo.FindByGuestID(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guest bookings: %w", err)
	}
	return toBookingDTOs(bookings), nil
}

// GetRoomBookings lists a room's bookings through one of the dashboard views:
// current (checked in, today within the stay), upcoming (not yet checked in,
// starting today or later), past (checked out) or all.
func (s *BookingService) GetRoomBookings(ctx context.Context, roomID string, view RoomBookingView) ([]BookingDTO, error) {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return nil, err
	}
	bookings, err := s.repo.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room bookings: %w", err)
	}

	today := s.clock.Today()
	keep := func(b *bookingDomain.Booking) bool {
		switch view {
		case ViewCurrent:
			return b.IsCurrentlyActive(today)
		case ViewUpcoming:
			return b.Status() == bookingDomain.StatusUpcoming && !b.BookingDate().Before(today)
		case ViewPast:
			return b.Status() == bookingDomain.StatusCheckedOut
		default:
			return true
		}
	}

	var out []*bookingDomain.Booking
	for _, b := range bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return toBookingDTOs(out), nil
}

// OccupiedRoomIDs returns the rooms with a checked-in party today.
func (s *BookingService) OccupiedRoomIDs(ctx context.Context) ([]string, error) {
	today := s.clock.Today()
	active, err := s.repo.FindActiveOn(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to find active bookings: %w", err)
	}
	var occupied []*bookingDomain.Booking
	for _, b := range active {
		if b.IsCurrentlyActive(today) {
			occupied = append(occupied, b)
		}
	}
	return distinctRoomIDs(occupied), nil
}

// Today returns the hotel's current calendar day.
func (s *BookingService) Today() time.Time {
	return s.clock.Today()
}

// BookedRoomIDs returns the rooms held by a booking on day.
func (s *BookingService) BookedRoomIDs(ctx context.Context, day time.Time) ([]string, error) {
	active, err := s.repo.FindActiveOn(ctx, bookingDomain.DayOf(day))
	if err != nil {
		return nil, fmt.Errorf("failed to find active bookings: %w", err)
	}
	return distinctRoomIDs(active), nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// ensureRoomFree fails with ConflictError when w overlaps a booking that still holds the room.
// The caller holds the room lock.
func (s *BookingService) ensureRoomFree(ctx context.Context, roomID string, w bookingDomain.Window, exclude *uuid.UUID) error {
	bookings, err := s.repo.FindByRoomID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to load room bookings: %w", err)
	}
	conflicts := bookingDomain.Conflicts(bookings, w, exclude)
	if len(conflicts) == 0 {
		return nil
	}
	numbers := make([]string, len(conflicts))
	for i, c := range conflicts {
		numbers[i] = c.BookingNumber()
	}
	return domain.NewConflictError(fmt.Sprintf("room %s is not available for %s: held by %s",
		roomID, w, strings.Join(numbers, ", ")))
}

// validateGuestRefs rejects guest lists that could only fail after directory
// entries had been created.
func validateGuestRefs(ids []uuid.UUID, identities []ResolveGuestRequest) error {
	if len(ids)+len(identities) == 0 {
		return domain.NewValidationError("at least one guest is required")
	}
	seenIDs := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return domain.NewValidationError("guest ID cannot be empty")
		}
		if _, dup := seenIDs[id]; dup {
			return domain.NewValidationError(fmt.Sprintf("guest %s listed more than once", id))
		}
		seenIDs[id] = struct{}{}
	}
	seenNIDs := make(map[string]struct{}, len(identities))
	for _, identity := range identities {
		key := guestDomain.NormalizeNationalID(identity.NationalID)
		if _, dup := seenNIDs[key]; dup {
			return domain.NewValidationError(fmt.Sprintf("national ID %s listed more than once", key))
		}
		seenNIDs[key] = struct{}{}
	}
	return nil
}

func (s *BookingService) resolveGuests(ctx context.Context, ids []uuid.UUID, identities []ResolveGuestRequest) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids)+len(identities))
	for _, id := range ids {
		if _, err := s.guests.FindByID(ctx, id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	for _, identity := range identities {
		g, created, err := resolveOrCreateGuest(ctx, s.guests, identity, s.clock.Now())
		if err != nil {
			return nil, err
		}
		if created {
			s.logger.Info("guest created", zap.String("guest_id", g.ID().String()))
		}
		out = append(out, g.ID())
	}
	return out, nil
}

// applyStayPayment records a payment taken at the desk on the locked booking.
// It reports whether the paid amount changed.
func (s *BookingService) applyStayPayment(bk *bookingDomain.Booking, paidAmountCents *int64) (bool, error) {
	if paidAmountCents == nil || *paidAmountCents == bk.PaidAmountCents() {
		return false, nil
	}
	if err := bk.UpdatePayment(*paidAmountCents, s.clock.Now()); err != nil {
		return false, err
	}
	return true, nil
}

// splitAmount divides cents across n parts, handing the remainder out one cent
// at a time from the first part. Splitting a smaller amount never yields a larger
// part at the same index, so paid stays within total room by room.
func splitAmount(cents int64, n int) []int64 {
	parts := make([]int64, n)
	base, rem := cents/int64(n), cents%int64(n)
	for i := range parts {
		parts[i] = base
		if int64(i) < rem {
			parts[i]++
		}
	}
	return parts
}

func distinctRoomIDs(bookings []*bookingDomain.Booking) []string {
	set := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		set[b.RoomID()] = struct{}{}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *BookingService) publishCreated(ctx context.Context, bk *bookingDomain.Booking) {
	s.events.publish(ctx, schema.BookingCreated, bk.ID().String(), schema.BookingCreatedEvent{
		BookingID:        bk.ID(),
		BookingNumber:    bk.BookingNumber(),
		RoomID:           bk.RoomID(),
		GuestIDs:         bk.GuestIDs(),
		BookingDate:      bookingDomain.FormatDate(bk.BookingDate()),
		DurationDays:     bk.DurationDays(),
		TotalAmountCents: bk.TotalAmountCents(),
		PaidAmountCents:  bk.PaidAmountCents(),
		OccurredAt:       bk.CreatedAt(),
	})
}

func (s *BookingService) publishPaymentUpdated(ctx context.Context, bk *bookingDomain.Booking) {
	s.events.publish(ctx, schema.BookingPaymentUpdated, bk.ID().String(), schema.BookingPaymentUpdatedEvent{
		BookingID:        bk.ID(),
		BookingNumber:    bk.BookingNumber(),
		PaidAmountCents:  bk.PaidAmountCents(),
		TotalAmountCents: bk.TotalAmountCents(),
		OccurredAt:       s.clock.Now(),
	})
}

func (s *BookingService) publishStatusChanged(ctx context.Context, eventType string, bk *bookingDomain.Booking, by *uuid.UUID) {
	s.events.publish(ctx, eventType, bk.ID().String(), schema.BookingStatusChangedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		RoomID:        bk.RoomID(),
		Status:        string(bk.Status()),
		ChangedBy:     by,
		OccurredAt:    s.clock.Now(),
	})
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:               bk.ID(),
		BookingNumber:    bk.BookingNumber(),
		RoomID:           bk.RoomID(),
		GuestIDs:         bk.GuestIDs(),
		PrimaryGuestID:   bk.PrimaryGuestID(),
		NumberOfPeople:   bk.NumberOfPeople(),
		Status:           string(bk.Status()),
		TotalAmountCents: bk.TotalAmountCents(),
		PaidAmountCents:  bk.PaidAmountCents(),
		BalanceCents:     bk.BalanceCents(),
		BookingDate:      bookingDomain.FormatDate(bk.BookingDate()),
		DurationDays:     bk.DurationDays(),
		LastNight:        bookingDomain.FormatDate(bk.OccupiedInterval().End),
		CheckInAt:        bk.CheckInAt(),
		CheckOutAt:       bk.CheckOutAt(),
		CancelledAt:      bk.CancelledAt(),
		CancelledBy:      bk.CancelledBy(),
		Notes:            bk.Notes(),
		Version:          bk.Version(),
		CreatedAt:        bk.CreatedAt(),
		UpdatedAt:        bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}
