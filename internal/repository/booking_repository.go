package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	BookingNumber    string         `gorm:"uniqueIndex;not null;size:20"`
	RoomID           string         `gorm:"not null;size:50;index:idx_bookings_room_date"`
	GuestIDs         datatypes.JSON `gorm:"not null"`
	NumberOfPeople   int            `gorm:"not null"`
	Status           string         `gorm:"not null;size:30;index"`
	TotalAmountCents int64          `gorm:"not null"`
	PaidAmountCents  int64          `gorm:"not null;default:0"`
	BookingDate      string         `gorm:"not null;size:10;index:idx_bookings_room_date"`
	DurationDays     int            `gorm:"not null"`
	CheckInAt        *time.Time     `gorm:""`
	CheckOutAt       *time.Time     `gorm:""`
	CancelledAt      *time.Time     `gorm:""`
	CancelledBy      *uuid.UUID     `gorm:"type:uuid"`
	Notes            string         `gorm:"size:1000"`
	Version          int64          `gorm:"not null;default:1"`
	CreatedAt        time.Time      `gorm:"not null"`
	UpdatedAt        time.Time      `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByRoomID retrieves all bookings for a room ordered by booking date.
func (r *GormBookingRepository) FindByRoomID(ctx context.Context, roomID string) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := conn(ctx, r.db).
		Where("room_id = ?", roomID).
		Order("booking_date ASC, created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find room bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindByGuestID retrieves bookings that list the guest, newest booking date first.
func (r *GormBookingRepository) FindByGuestID(ctx context.Context, guestID uuid.UUID) ([]*bookingDomain.Booking, error) {
	q := conn(ctx, r.db)
	switch r.db.Dialector.Name() {
	case "postgres":
		needle, err := json.Marshal([]string{guestID.String()})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal guest ID: %w", err)
		}
		q = q.Where("guest_ids @> ?::jsonb", string(needle))
	default:
		q = q.Where("EXISTS (SELECT 1 FROM json_each(bookings.guest_ids) WHERE json_each.value = ?)", guestID.String())
	}

	var models []BookingModel
	if err := q.Order("booking_date DESC, created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find guest bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindActiveOn retrieves bookings that hold their room on day. The interval end
// is checked in Go to keep the query portable across dialects.
func (r *GormBookingRepository) FindActiveOn(ctx context.Context, day time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := conn(ctx, r.db).
		Where("status IN ? AND booking_date <= ?",
			[]string{string(bookingDomain.StatusUpcoming), string(bookingDomain.StatusCheckedIn)},
			bookingDomain.FormatDate(day)).
		Order("booking_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find active bookings: %w", err)
	}

	all, err := toDomainBookings(models)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, b := range all {
		if b.OccupiedInterval().Contains(day) {
			active = append(active, b)
		}
	}
	return active, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// IncrementVersion has already run, so the row must still hold the previous version.
	expectedVersion := bk.Version() - 1
	result := conn(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"guest_ids":          model.GuestIDs,
			"number_of_people":   model.NumberOfPeople,
			"status":             model.Status,
			"total_amount_cents": model.TotalAmountCents,
			"paid_amount_cents":  model.PaidAmountCents,
			"duration_days":      model.DurationDays,
			"check_in_at":        model.CheckInAt,
			"check_out_at":       model.CheckOutAt,
			"cancelled_at":       model.CancelledAt,
			"cancelled_by":       model.CancelledBy,
			"notes":              model.Notes,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// Delete removes a booking.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id.String())
	}
	return nil
}

// ListAll retrieves all bookings with pagination, newest first.
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := conn(ctx, r.db).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := conn(ctx, r.db).
		Order("created_at DESC, booking_number ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status.
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := conn(ctx, r.db).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	guestIDs, err := json.Marshal(bk.GuestIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal guest IDs: %w", err)
	}

	return &BookingModel{
		ID:               bk.ID(),
		BookingNumber:    bk.BookingNumber(),
		RoomID:           bk.RoomID(),
		GuestIDs:         datatypes.JSON(guestIDs),
		NumberOfPeople:   bk.NumberOfPeople(),
		Status:           string(bk.Status()),
		TotalAmountCents: bk.TotalAmountCents(),
		PaidAmountCents:  bk.PaidAmountCents(),
		BookingDate:      bookingDomain.FormatDate(bk.BookingDate()),
		DurationDays:     bk.DurationDays(),
		CheckInAt:        bk.CheckInAt(),
		CheckOutAt:       bk.CheckOutAt(),
		CancelledAt:      bk.CancelledAt(),
		CancelledBy:      bk.CancelledBy(),
		Notes:            bk.Notes(),
		Version:          bk.Version(),
		CreatedAt:        bk.CreatedAt(),
		UpdatedAt:        bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var guestIDs []uuid.UUID
	if err := json.Unmarshal(m.GuestIDs, &guestIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal guest IDs: %w", err)
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	bookingDate, err := bookingDomain.ParseDate(m.BookingDate)
	if err != nil {
		return nil, fmt.Errorf("booking %s has a malformed date: %w", m.ID, err)
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.RoomID,
		guestIDs,
		m.NumberOfPeople,
		status,
		m.TotalAmountCents,
		m.PaidAmountCents,
		bookingDate,
		m.DurationDays,
		m.CheckInAt,
		m.CheckOutAt,
		m.CancelledAt,
		m.CancelledBy,
		m.Notes,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
