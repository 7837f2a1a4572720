package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// CancellationRequest is a manager's ask for an admin to cancel a booking.
// Once resolved it is never re-opened.
type CancellationRequest struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	requestedBy uuid.UUID
	requestedAt time.Time
	reason      string
	status      CancellationStatus
	resolvedAt  *time.Time
	resolvedBy  *uuid.UUID
	version     int64
}

// NewCancellationRequest opens a pending request against bookingID.
func NewCancellationRequest(bookingID, requestedBy uuid.UUID, reason string, now time.Time) (*CancellationRequest, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if requestedBy == uuid.Nil {
		return nil, domain.NewValidationError("requester ID is required")
	}
	return &CancellationRequest{
		id:          uuid.New(),
		bookingID:   bookingID,
		requestedBy: requestedBy,
		requestedAt: now.UTC(),
		reason:      reason,
		status:      CancellationPending,
		version:     1,
	}, nil
}

// ReconstructCancellationRequest rebuilds a request from persistence data (no validation).
func ReconstructCancellationRequest(
	id, bookingID, requestedBy uuid.UUID,
	requestedAt time.Time,
	reason string,
	status CancellationStatus,
	resolvedAt *time.Time,
	resolvedBy *uuid.UUID,
	version int64,
) *CancellationRequest {
	return &CancellationRequest{
		id:          id,
		bookingID:   bookingID,
		requestedBy: requestedBy,
		requestedAt: requestedAt,
		reason:      reason,
		status:      status,
		resolvedAt:  copyTime(resolvedAt),
		resolvedBy:  copyUUID(resolvedBy),
		version:     version,
	}
}

// Clone returns a deep copy.
func (r *CancellationRequest) Clone() *CancellationRequest {
	return ReconstructCancellationRequest(r.id, r.bookingID, r.requestedBy, r.requestedAt,
		r.reason, r.status, r.resolvedAt, r.resolvedBy, r.version)
}

func (r *CancellationRequest) ID() uuid.UUID              { return r.id }
func (r *CancellationRequest) BookingID() uuid.UUID       { return r.bookingID }
func (r *CancellationRequest) RequestedBy() uuid.UUID     { return r.requestedBy }
func (r *CancellationRequest) RequestedAt() time.Time     { return r.requestedAt }
func (r *CancellationRequest) Reason() string             { return r.reason }
func (r *CancellationRequest) Status() CancellationStatus { return r.status }
func (r *CancellationRequest) ResolvedAt() *time.Time     { return r.resolvedAt }
func (r *CancellationRequest) ResolvedBy() *uuid.UUID     { return r.resolvedBy }
func (r *CancellationRequest) Version() int64             { return r.version }

// IsPending reports whether the request still awaits an admin decision.
func (r *CancellationRequest) IsPending() bool { return r.status == CancellationPending }

// Approve resolves the request as approved. The caller cancels the booking in the same lock scope.
func (r *CancellationRequest) Approve(resolvedBy uuid.UUID, now time.Time) error {
	return r.resolve(CancellationApproved, resolvedBy, now)
}

// Reject resolves the request as rejected. The booking is left untouched.
func (r *CancellationRequest) Reject(resolvedBy uuid.UUID, now time.Time) error {
	return r.resolve(CancellationRejected, resolvedBy, now)
}

func (r *CancellationRequest) resolve(target CancellationStatus, resolvedBy uuid.UUID, now time.Time) error {
	if !r.status.CanTransitionTo(target) {
		return domain.NewStateError(fmt.Sprintf("cancellation request is already %s", r.status))
	}
	if resolvedBy == uuid.Nil {
		return domain.NewValidationError("resolver ID is required")
	}
	now = now.UTC()
	r.status = target
	r.resolvedAt = &now
	r.resolvedBy = &resolvedBy
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (r *CancellationRequest) IncrementVersion() {
	r.version++
}
