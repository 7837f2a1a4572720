package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// MemoryCancellationRequestRepository is the in-process implementation of
// CancellationRequestRepository.
type MemoryCancellationRequestRepository struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*bookingDomain.CancellationRequest
	// seq records save order, the last tie-break between equal timestamps.
	seq  map[uuid.UUID]uint64
	next uint64
}

// NewMemoryCancellationRequestRepository creates an empty repository.
func NewMemoryCancellationRequestRepository() *MemoryCancellationRequestRepository {
	return &MemoryCancellationRequestRepository{
		requests: make(map[uuid.UUID]*bookingDomain.CancellationRequest),
		seq:      make(map[uuid.UUID]uint64),
	}
}

func (r *MemoryCancellationRequestRepository) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.CancellationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, domain.NewNotFoundError("CancellationRequest", id.String())
	}
	return req.Clone(), nil
}

func (r *MemoryCancellationRequestRepository) FindPendingByBookingID(_ context.Context, bookingID uuid.UUID) (*bookingDomain.CancellationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if req := r.pendingFor(bookingID); req != nil {
		return req.Clone(), nil
	}
	return nil, domain.NewNotFoundError("pending CancellationRequest for booking", bookingID.String())
}

func (r *MemoryCancellationRequestRepository) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*bookingDomain.CancellationRequest, error) {
	return r.collect(func(req *bookingDomain.CancellationRequest) bool { return req.BookingID() == bookingID }), nil
}

func (r *MemoryCancellationRequestRepository) ListByStatus(_ context.Context, status bookingDomain.CancellationStatus) ([]*bookingDomain.CancellationRequest, error) {
	return r.collect(func(req *bookingDomain.CancellationRequest) bool {
		return status == "" || req.Status() == status
	}), nil
}

// Save stores a new request; a second pending request for a booking is refused.
func (r *MemoryCancellationRequestRepository) Save(_ context.Context, req *bookingDomain.CancellationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.requests[req.ID()]; exists {
		return domain.NewConflictError("cancellation request " + req.ID().String() + " already exists")
	}
	if req.IsPending() && r.pendingFor(req.BookingID()) != nil {
		return domain.NewConflictError("booking already has a pending cancellation request")
	}
	r.requests[req.ID()] = req.Clone()
	r.next++
	r.seq[req.ID()] = r.next
	return nil
}

func (r *MemoryCancellationRequestRepository) Update(_ context.Context, req *bookingDomain.CancellationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.requests[req.ID()]
	if !ok {
		return domain.NewNotFoundError("CancellationRequest", req.ID().String())
	}
	if stored.Version() != req.Version()-1 {
		return domain.NewConflictError("cancellation request was modified by another transaction")
	}
	r.requests[req.ID()] = req.Clone()
	return nil
}

func (r *MemoryCancellationRequestRepository) DeletePendingByBookingID(_ context.Context, bookingID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req := r.pendingFor(bookingID)
	if req == nil {
		return false, nil
	}
	delete(r.requests, req.ID())
	delete(r.seq, req.ID())
	return true, nil
}

// pendingFor must be called with r.mu held.
func (r *MemoryCancellationRequestRepository) pendingFor(bookingID uuid.UUID) *bookingDomain.CancellationRequest {
	for _, req := range r.requests {
		if req.BookingID() == bookingID && req.IsPending() {
			return req
		}
	}
	return nil
}

func (r *MemoryCancellationRequestRepository) collect(keep func(*bookingDomain.CancellationRequest) bool) []*bookingDomain.CancellationRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*bookingDomain.CancellationRequest
	for _, req := range r.requests {
		if keep(req) {
			out = append(out, req.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.RequestedAt().Equal(b.RequestedAt()) {
			return a.RequestedAt().After(b.RequestedAt())
		}
		if a.IsPending() != b.IsPending() {
			return a.IsPending()
		}
		if ra, rb := a.ResolvedAt(), b.ResolvedAt(); ra != nil && rb != nil && !ra.Equal(*rb) {
			return ra.After(*rb)
		}
		return r.seq[a.ID()] > r.seq[b.ID()]
	})
	return out
}
