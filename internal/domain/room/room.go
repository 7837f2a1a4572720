package room

import (
	"context"
	"fmt"
	"strings"

	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// Category classifies rooms by layout.
type Category string

const (
	CategoryDouble     Category = "Double"
	CategoryCouple     Category = "Couple"
	CategoryConnecting Category = "Connecting"
)

// ParseCategory accepts a category name in any letter case.
func ParseCategory(s string) (Category, error) {
	for _, c := range []Category{CategoryDouble, CategoryCouple, CategoryConnecting} {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", domain.NewValidationError(fmt.Sprintf("invalid room category: %s", s))
}

// Room is a read-only catalog entry. The booking engine never mutates rooms.
type Room struct {
	ID          string
	RoomNumber  string
	Floor       int
	Category    Category
	Beds        int
	Bathrooms   int
	HasAC       bool
	Description string
	Problems    []string
}

// Validate checks a catalog entry loaded from configuration.
func (r Room) Validate() error {
	if r.ID == "" {
		return domain.NewValidationError("room ID is required")
	}
	if r.RoomNumber == "" {
		return domain.NewValidationError(fmt.Sprintf("room %s: room number is required", r.ID))
	}
	if _, err := ParseCategory(string(r.Category)); err != nil {
		return domain.NewValidationError(fmt.Sprintf("room %s: invalid category %q", r.ID, r.Category))
	}
	if r.Beds < 1 {
		return domain.NewValidationError(fmt.Sprintf("room %s: at least one bed is required", r.ID))
	}
	return nil
}

// Filter narrows a room listing. Nil fields match everything.
type Filter struct {
	Category *Category
	HasAC    *bool
}

// Matches reports whether r passes the filter.
func (f Filter) Matches(r Room) bool {
	if f.Category != nil && r.Category != *f.Category {
		return false
	}
	if f.HasAC != nil && r.HasAC != *f.HasAC {
		return false
	}
	return true
}

// Catalog looks up rooms.
type Catalog interface {
	FindByID(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context) ([]Room, error)
}
