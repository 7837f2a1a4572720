package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/events/schema"
	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// RequestCancellationRequest is the body a manager sends to ask for a cancellation.
type RequestCancellationRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CancellationRequestDTO is the response representation of a cancellation request.
type CancellationRequestDTO struct {
	ID          uuid.UUID  `json:"id"`
	BookingID   uuid.UUID  `json:"booking_id"`
	RequestedBy uuid.UUID  `json:"requested_by"`
	RequestedAt time.Time  `json:"requested_at"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy  *uuid.UUID `json:"resolved_by,omitempty"`
}

// CancellationService runs the manager-request / admin-resolve cancellation workflow.
// It shares the booking locks of BookingService so a resolution and a check-in of
// the same booking never interleave.
type CancellationService struct {
	bookings *BookingService
	requests bookingDomain.CancellationRequestRepository
	logger   *zap.Logger
}

// NewCancellationService creates a new CancellationService.
func NewCancellationService(bookings *BookingService, requests bookingDomain.CancellationRequestRepository, logger *zap.Logger) *CancellationService {
	return &CancellationService{bookings: bookings, requests: requests, logger: logger}
}

// RequestCancellation opens a pending request for a booking that can still be cancelled.
// Only a pending request blocks a new one; a booking whose earlier request was
// rejected may be asked about again.
func (s *CancellationService) RequestCancellation(ctx context.Context, bookingID, requestedBy uuid.UUID, req RequestCancellationRequest) (*CancellationRequestDTO, error) {
	bk, unlock, err := s.bookings.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if bk.CheckInAt() != nil {
		return nil, domain.NewStateError("booking is already checked in")
	}
	if bk.CancelledAt() != nil {
		return nil, domain.NewStateError("booking is already cancelled")
	}
	if !bk.Status().CanBeCancelled() {
		return nil, domain.NewInvalidStateError(string(bk.Status()), string(bookingDomain.StatusCancelled))
	}

	if _, err := s.requests.FindPendingByBookingID(ctx, bookingID); err == nil {
		return nil, domain.NewStateError("booking already has a pending cancellation request")
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	cr, err := bookingDomain.NewCancellationRequest(bookingID, requestedBy, req.Reason, s.bookings.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.requests.Save(ctx, cr); err != nil {
		return nil, fmt.Errorf("failed to save cancellation request: %w", err)
	}

	s.logger.Info("cancellation requested",
		zap.String("request_id", cr.ID().String()),
		zap.String("booking_id", bookingID.String()),
		zap.String("requested_by", requestedBy.String()),
	)
	s.publish(ctx, schema.CancellationRequested, cr, requestedBy)

	result := toCancellationRequestDTO(cr)
	return &result, nil
}

// ApproveCancellation resolves a pending request as approved and cancels the booking
// in the same lock scope and transaction. If the booking can no longer be cancelled
// the approval fails with ConflictError and the request stays pending.
func (s *CancellationService) ApproveCancellation(ctx context.Context, requestID, approvedBy uuid.UUID) (*CancellationRequestDTO, error) {
	cr, bk, unlock, err := s.lockRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !cr.IsPending() {
		return nil, domain.NewStateError(fmt.Sprintf("cancellation request is already %s", cr.Status()))
	}
	if bk.CheckInAt() != nil || !bk.Status().CanBeCancelled() {
		return nil, domain.NewConflictError(fmt.Sprintf(
			"booking %s is %s and can no longer be cancelled", bk.BookingNumber(), bk.Status()))
	}

	err = s.bookings.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := cr.Approve(approvedBy, s.bookings.clock.Now()); err != nil {
			return err
		}
		cr.IncrementVersion()
		if err := s.requests.Update(ctx, cr); err != nil {
			return err
		}
		return s.bookings.cancelLocked(ctx, bk, approvedBy)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cancellation approved",
		zap.String("request_id", cr.ID().String()),
		zap.String("booking_id", bk.ID().String()),
		zap.String("approved_by", approvedBy.String()),
	)
	s.publish(ctx, schema.CancellationApproved, cr, approvedBy)
	s.bookings.publishStatusChanged(ctx, schema.BookingCancelled, bk, &approvedBy)

	result := toCancellationRequestDTO(cr)
	return &result, nil
}

// RejectCancellation resolves a pending request as rejected. The booking is untouched.
func (s *CancellationService) RejectCancellation(ctx context.Context, requestID, rejectedBy uuid.UUID) (*CancellationRequestDTO, error) {
	cr, _, unlock, err := s.lockRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := cr.Reject(rejectedBy, s.bookings.clock.Now()); err != nil {
		return nil, err
	}
	cr.IncrementVersion()
	if err := s.requests.Update(ctx, cr); err != nil {
		return nil, err
	}

	s.logger.Info("cancellation rejected",
		zap.String("request_id", cr.ID().String()),
		zap.String("booking_id", cr.BookingID().String()),
		zap.String("rejected_by", rejectedBy.String()),
	)
	s.publish(ctx, schema.CancellationRejected, cr, rejectedBy)

	result := toCancellationRequestDTO(cr)
	return &result, nil
}

// GetCancellationRequest retrieves a single request by ID.
func (s *CancellationService) GetCancellationRequest(ctx context.Context, requestID uuid.UUID) (*CancellationRequestDTO, error) {
	cr, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	result := toCancellationRequestDTO(cr)
	return &result, nil
}

// GetCancellationRequestForBooking returns the most recent request for a booking, whatever its status.
func (s *CancellationService) GetCancellationRequestForBooking(ctx context.Context, bookingID uuid.UUID) (*CancellationRequestDTO, error) {
	if _, err := s.bookings.repo.FindByID(ctx, bookingID); err != nil {
		return nil, err
	}
	requests, err := s.requests.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cancellation requests: %w", err)
	}
	if len(requests) == 0 {
		return nil, domain.NewNotFoundError("CancellationRequest for booking", bookingID.String())
	}
	result := toCancellationRequestDTO(requests[0])
	return &result, nil
}

// ListCancellationRequests lists requests, most recent first. An empty status lists all.
func (s *CancellationService) ListCancellationRequests(ctx context.Context, status string) ([]CancellationRequestDTO, error) {
	var filter bookingDomain.CancellationStatus
	if status != "" {
		parsed, err := bookingDomain.ParseCancellationStatus(status)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		filter = parsed
	}

	requests, err := s.requests.ListByStatus(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list cancellation requests: %w", err)
	}
	dtos := make([]CancellationRequestDTO, len(requests))
	for i, cr := range requests {
		dtos[i] = toCancellationRequestDTO(cr)
	}
	return dtos, nil
}

// lockRequest locks the booking a request refers to and returns fresh copies of both.
// A request never changes booking, so the unlocked first read is only used for the booking ID.
func (s *CancellationService) lockRequest(ctx context.Context, requestID uuid.UUID) (*bookingDomain.CancellationRequest, *bookingDomain.Booking, func(), error) {
	peek, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, nil, nil, err
	}
	bk, unlock, err := s.bookings.lockBooking(ctx, peek.BookingID())
	if err != nil {
		return nil, nil, nil, err
	}
	cr, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}
	return cr, bk, unlock, nil
}

func (s *CancellationService) publish(ctx context.Context, eventType string, cr *bookingDomain.CancellationRequest, actor uuid.UUID) {
	s.bookings.events.publish(ctx, eventType, cr.BookingID().String(), schema.CancellationEvent{
		RequestID:  cr.ID(),
		BookingID:  cr.BookingID(),
		Status:     string(cr.Status()),
		ActorID:    actor,
		OccurredAt: s.bookings.clock.Now(),
		ResolvedAt: cr.ResolvedAt(),
	})
}

func toCancellationRequestDTO(cr *bookingDomain.CancellationRequest) CancellationRequestDTO {
	return CancellationRequestDTO{
		ID:          cr.ID(),
		BookingID:   cr.BookingID(),
		RequestedBy: cr.RequestedBy(),
		RequestedAt: cr.RequestedAt(),
		Reason:      cr.Reason(),
		Status:      string(cr.Status()),
		ResolvedAt:  cr.ResolvedAt(),
		ResolvedBy:  cr.ResolvedBy(),
	}
}
