package guest

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// Guest is a directory entry for a person staying at the hotel. Guests are
// identified for lookup by their national ID.
type Guest struct {
	id          uuid.UUID
	name        string
	nationalID  string
	phone       string
	dateOfBirth *time.Time
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NormalizeNationalID is the form national IDs are stored and matched in.
func NormalizeNationalID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NewGuest creates a guest with validated fields.
func NewGuest(name, nationalID, phone string, dateOfBirth *time.Time, now time.Time) (*Guest, error) {
	name = strings.TrimSpace(name)
	nationalID = NormalizeNationalID(nationalID)
	if name == "" {
		return nil, domain.NewValidationError("guest name is required")
	}
	if nationalID == "" {
		return nil, domain.NewValidationError("national ID is required")
	}
	if dateOfBirth != nil && dateOfBirth.After(now) {
		return nil, domain.NewValidationError("date of birth cannot be in the future")
	}

	now = now.UTC()
	return &Guest{
		id:          uuid.New(),
		name:        name,
		nationalID:  nationalID,
		phone:       strings.TrimSpace(phone),
		dateOfBirth: dateOfBirth,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a Guest from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	name, nationalID, phone string,
	dateOfBirth *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Guest {
	return &Guest{
		id:          id,
		name:        name,
		nationalID:  nationalID,
		phone:       phone,
		dateOfBirth: dateOfBirth,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (g *Guest) ID() uuid.UUID           { return g.id }
func (g *Guest) Name() string            { return g.name }
func (g *Guest) NationalID() string      { return g.nationalID }
func (g *Guest) Phone() string           { return g.phone }
func (g *Guest) DateOfBirth() *time.Time { return g.dateOfBirth }
func (g *Guest) Version() int64          { return g.version }
func (g *Guest) CreatedAt() time.Time    { return g.createdAt }
func (g *Guest) UpdatedAt() time.Time    { return g.updatedAt }

// --- Behavior ---

// UpdateContact applies partial updates; empty values keep the current field.
// The national ID is the lookup key and cannot change.
func (g *Guest) UpdateContact(name, phone string, dateOfBirth *time.Time, now time.Time) {
	if name = strings.TrimSpace(name); name != "" {
		g.name = name
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		g.phone = phone
	}
	if dateOfBirth != nil {
		g.dateOfBirth = dateOfBirth
	}
	g.version++
	g.updatedAt = now.UTC()
}
