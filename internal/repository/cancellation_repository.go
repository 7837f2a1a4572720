package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// CancellationRequestModel is the GORM model for the cancellation_requests table.
// The partial unique index keeps at most one pending request per booking.
type CancellationRequestModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID   uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_cancellation_requests_pending,where:status = 'pending'"`
	RequestedBy uuid.UUID  `gorm:"type:uuid;not null"`
	RequestedAt time.Time  `gorm:"not null"`
	Reason      string     `gorm:"size:500"`
	Status      string     `gorm:"not null;size:20;index"`
	ResolvedAt  *time.Time `gorm:""`
	ResolvedBy  *uuid.UUID `gorm:"type:uuid"`
	Version     int64      `gorm:"not null;default:1"`
}

// newestRequestFirst orders requests so equal timestamps still sort the same
// way every time: the pending request leads, then the latest resolution.
const newestRequestFirst = "requested_at DESC, CASE WHEN status = 'pending' THEN 0 ELSE 1 END, " +
	"CASE WHEN resolved_at IS NULL THEN 0 ELSE 1 END, resolved_at DESC, id"

// TableName returns the table name for the GORM model.
func (CancellationRequestModel) TableName() string {
	return "cancellation_requests"
}

// GormCancellationRequestRepository is the GORM-based implementation of CancellationRequestRepository.
type GormCancellationRequestRepository struct {
	db *gorm.DB
}

// NewGormCancellationRequestRepository creates a new GormCancellationRequestRepository.
func NewGormCancellationRequestRepository(db *gorm.DB) *GormCancellationRequestRepository {
	return &GormCancellationRequestRepository{db: db}
}

func (r *GormCancellationRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.CancellationRequest, error) {
	var model CancellationRequestModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("CancellationRequest", id.String())
		}
		return nil, fmt.Errorf("failed to find cancellation request: %w", err)
	}
	return toDomainCancellation(&model)
}

func (r *GormCancellationRequestRepository) FindPendingByBookingID(ctx context.Context, bookingID uuid.UUID) (*bookingDomain.CancellationRequest, error) {
	var model CancellationRequestModel
	err := conn(ctx, r.db).
		Where("booking_id = ? AND status = ?", bookingID, string(bookingDomain.CancellationPending)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("pending CancellationRequest for booking", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find pending cancellation request: %w", err)
	}
	return toDomainCancellation(&model)
}

func (r *GormCancellationRequestRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*bookingDomain.CancellationRequest, error) {
	var models []CancellationRequestModel
	if err := conn(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order(newestRequestFirst).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find booking cancellation requests: %w", err)
	}
	return toDomainCancellations(models)
}

func (r *GormCancellationRequestRepository) ListByStatus(ctx context.Context, status bookingDomain.CancellationStatus) ([]*bookingDomain.CancellationRequest, error) {
	q := conn(ctx, r.db)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	var models []CancellationRequestModel
	if err := q.Order(newestRequestFirst).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list cancellation requests: %w", err)
	}
	return toDomainCancellations(models)
}

func (r *GormCancellationRequestRepository) Save(ctx context.Context, req *bookingDomain.CancellationRequest) error {
	if err := conn(ctx, r.db).Create(toCancellationModel(req)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("booking already has a pending cancellation request")
		}
		return fmt.Errorf("failed to save cancellation request: %w", err)
	}
	return nil
}

func (r *GormCancellationRequestRepository) Update(ctx context.Context, req *bookingDomain.CancellationRequest) error {
	model := toCancellationModel(req)
	result := conn(ctx, r.db).
		Model(&CancellationRequestModel{}).
		Where("id = ? AND version = ?", model.ID, req.Version()-1).
		Updates(map[string]interface{}{
			"status":      model.Status,
			"resolved_at": model.ResolvedAt,
			"resolved_by": model.ResolvedBy,
			"version":     model.Version,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update cancellation request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("cancellation request was modified by another transaction")
	}
	return nil
}

func (r *GormCancellationRequestRepository) DeletePendingByBookingID(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	result := conn(ctx, r.db).
		Where("booking_id = ? AND status = ?", bookingID, string(bookingDomain.CancellationPending)).
		Delete(&CancellationRequestModel{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to discard pending cancellation request: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// --- Conversion Helpers ---

func toCancellationModel(req *bookingDomain.CancellationRequest) *CancellationRequestModel {
	return &CancellationRequestModel{
		ID:          req.ID(),
		BookingID:   req.BookingID(),
		RequestedBy: req.RequestedBy(),
		RequestedAt: req.RequestedAt(),
		Reason:      req.Reason(),
		Status:      string(req.Status()),
		ResolvedAt:  req.ResolvedAt(),
		ResolvedBy:  req.ResolvedBy(),
		Version:     req.Version(),
	}
}

func toDomainCancellation(m *CancellationRequestModel) (*bookingDomain.CancellationRequest, error) {
	status, err := bookingDomain.ParseCancellationStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return bookingDomain.ReconstructCancellationRequest(
		m.ID, m.BookingID, m.RequestedBy, m.RequestedAt, m.Reason,
		status, m.ResolvedAt, m.ResolvedBy, m.Version,
	), nil
}

func toDomainCancellations(models []CancellationRequestModel) ([]*bookingDomain.CancellationRequest, error) {
	out := make([]*bookingDomain.CancellationRequest, len(models))
	for i := range models {
		req, err := toDomainCancellation(&models[i])
		if err != nil {
			return nil, err
		}
		out[i] = req
	}
	return out, nil
}
