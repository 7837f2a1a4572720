package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	guestDomain "github.com/roomdesk/service-booking/internal/domain/guest"
	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// ResolveGuestRequest identifies a guest by national ID, creating the directory entry if needed.
type ResolveGuestRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	NationalID  string `json:"national_id" binding:"required,max=50"`
	Phone       string `json:"phone" binding:"max=30"`
	DateOfBirth string `json:"date_of_birth" binding:"omitempty,isodate"`
}

// UpdateGuestRequest is the request DTO for updating a guest's contact details.
type UpdateGuestRequest struct {
	Name        string `json:"name" binding:"max=100"`
	Phone       string `json:"phone" binding:"max=30"`
	DateOfBirth string `json:"date_of_birth" binding:"omitempty,isodate"`
}

// GuestDTO is the API response representation of a guest.
type GuestDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	NationalID  string    `json:"national_id"`
	Phone       string    `json:"phone,omitempty"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GuestService implements the guest directory use cases.
type GuestService struct {
	repo   guestDomain.GuestRepository
	clock  Clock
	logger *zap.Logger
}

// NewGuestService creates a new GuestService.
func NewGuestService(repo guestDomain.GuestRepository, clock Clock, logger *zap.Logger) *GuestService {
	return &GuestService{repo: repo, clock: clock, logger: logger}
}

// ResolveOrCreateGuest returns the guest with the request's national ID, creating it if unknown.
// The boolean reports whether a new entry was created.
func (s *GuestService) ResolveOrCreateGuest(ctx context.Context, req ResolveGuestRequest) (*GuestDTO, bool, error) {
	g, created, err := resolveOrCreateGuest(ctx, s.repo, req, s.clock.Now())
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info("guest created", zap.String("guest_id", g.ID().String()))
	}
	result := toGuestDTO(g)
	return &result, created, nil
}

// GetGuest returns a single guest by ID.
func (s *GuestService) GetGuest(ctx context.Context, guestID uuid.UUID) (*GuestDTO, error) {
	g, err := s.repo.FindByID(ctx, guestID)
	if err != nil {
		return nil, err
	}
	result := toGuestDTO(g)
	return &result, nil
}

// ListGuests returns a page of the directory ordered by name.
func (s *GuestService) ListGuests(ctx context.Context, page, limit int) (*domain.PaginatedResult[GuestDTO], error) {
	guests, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	dtos := make([]GuestDTO, len(guests))
	for i, g := range guests {
		dtos[i] = toGuestDTO(g)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// UpdateGuest changes a guest's contact details.
func (s *GuestService) UpdateGuest(ctx context.Context, guestID uuid.UUID, req UpdateGuestRequest) (*GuestDTO, error) {
	g, err := s.repo.FindByID(ctx, guestID)
	if err != nil {
		return nil, err
	}
	dob, err := parseOptionalDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	g.UpdateContact(req.Name, req.Phone, dob, s.clock.Now())
	if err := s.repo.Update(ctx, g); err != nil {
		s.logger.Error("failed to update guest", zap.Error(err))
		return nil, fmt.Errorf("failed to update guest: %w", err)
	}

	s.logger.Info("guest updated", zap.String("guest_id", guestID.String()))
	result := toGuestDTO(g)
	return &result, nil
}

func resolveOrCreateGuest(ctx context.Context, repo guestDomain.GuestRepository, req ResolveGuestRequest, now time.Time) (*guestDomain.Guest, bool, error) {
	existing, err := repo.FindByNationalID(ctx, req.NationalID)
	if err == nil {
		return existing, false, nil
	}
	if !domain.IsNotFound(err) {
		return nil, false, err
	}

	dob, err := parseOptionalDate(req.DateOfBirth)
	if err != nil {
		return nil, false, err
	}
	g, err := guestDomain.NewGuest(req.Name, req.NationalID, req.Phone, dob, now)
	if err != nil {
		return nil, false, err
	}
	if err := repo.Save(ctx, g); err != nil {
		// Another request registered the same national ID first.
		if domain.IsConflict(err) {
			existing, findErr := repo.FindByNationalID(ctx, req.NationalID)
			if findErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("failed to create guest: %w", err)
	}
	return g, true, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := bookingDomain.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func toGuestDTO(g *guestDomain.Guest) GuestDTO {
	dto := GuestDTO{
		ID:         g.ID(),
		Name:       g.Name(),
		NationalID: g.NationalID(),
		Phone:      g.Phone(),
		CreatedAt:  g.CreatedAt(),
		UpdatedAt:  g.UpdatedAt(),
	}
	if g.DateOfBirth() != nil {
		dto.DateOfBirth = bookingDomain.FormatDate(*g.DateOfBirth())
	}
	return dto
}
