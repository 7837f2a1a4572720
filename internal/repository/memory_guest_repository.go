package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	guestDomain "github.com/roomdesk/service-booking/internal/domain/guest"
	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// MemoryGuestRepository is the in-process guest directory.
type MemoryGuestRepository struct {
	mu     sync.RWMutex
	guests map[uuid.UUID]*guestDomain.Guest
}

// NewMemoryGuestRepository creates an empty guest directory.
func NewMemoryGuestRepository() *MemoryGuestRepository {
	return &MemoryGuestRepository{guests: make(map[uuid.UUID]*guestDomain.Guest)}
}

func (r *MemoryGuestRepository) FindByID(_ context.Context, id uuid.UUID) (*guestDomain.Guest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.guests[id]
	if !ok {
		return nil, domain.NewNotFoundError("Guest", id.String())
	}
	return cloneGuest(g), nil
}

func (r *MemoryGuestRepository) FindByNationalID(_ context.Context, nationalID string) (*guestDomain.Guest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := guestDomain.NormalizeNationalID(nationalID)
	for _, g := range r.guests {
		if g.NationalID() == key {
			return cloneGuest(g), nil
		}
	}
	return nil, domain.NewNotFoundError("Guest with national ID", key)
}

func (r *MemoryGuestRepository) List(_ context.Context, page, limit int) ([]*guestDomain.Guest, int64, error) {
	r.mu.RLock()
	all := make([]*guestDomain.Guest, 0, len(r.guests))
	for _, g := range r.guests {
		all = append(all, cloneGuest(g))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Name() == all[j].Name() {
			return all[i].NationalID() < all[j].NationalID()
		}
		return all[i].Name() < all[j].Name()
	})
	return domain.Paginate(all, page, limit), int64(len(all)), nil
}

func (r *MemoryGuestRepository) Save(_ context.Context, g *guestDomain.Guest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.guests {
		if existing.NationalID() == g.NationalID() {
			return domain.NewConflictError("a guest with national ID " + g.NationalID() + " already exists")
		}
	}
	r.guests[g.ID()] = cloneGuest(g)
	return nil
}

func (r *MemoryGuestRepository) Update(_ context.Context, g *guestDomain.Guest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.guests[g.ID()]
	if !ok {
		return domain.NewNotFoundError("Guest", g.ID().String())
	}
	if stored.Version() != g.Version()-1 {
		return domain.NewConflictError("guest was modified by another transaction")
	}
	r.guests[g.ID()] = cloneGuest(g)
	return nil
}

func cloneGuest(g *guestDomain.Guest) *guestDomain.Guest {
	var dob *time.Time
	if g.DateOfBirth() != nil {
		d := *g.DateOfBirth()
		dob = &d
	}
	return guestDomain.Reconstruct(g.ID(), g.Name(), g.NationalID(), g.Phone(), dob, g.Version(), g.CreatedAt(), g.UpdatedAt())
}
