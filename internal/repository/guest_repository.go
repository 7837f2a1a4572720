package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	guestDomain "github.com/roomdesk/service-booking/internal/domain/guest"
	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// GuestModel is the GORM model for the guests table.
type GuestModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"type:varchar(100);not null;index"`
	NationalID  string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Phone       string    `gorm:"type:varchar(30)"`
	DateOfBirth *string   `gorm:"type:varchar(10)"`
	Version     int64     `gorm:"not null;default:1"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (GuestModel) TableName() string { return "guests" }

// GormGuestRepository implements GuestRepository using GORM.
type GormGuestRepository struct {
	db *gorm.DB
}

func NewGormGuestRepository(db *gorm.DB) *GormGuestRepository {
	return &GormGuestRepository{db: db}
}

func (r *GormGuestRepository) FindByID(ctx context.Context, id uuid.UUID) (*guestDomain.Guest, error) {
	var model GuestModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Guest", id.String())
		}
		return nil, err
	}
	return toGuestDomain(&model), nil
}

func (r *GormGuestRepository) FindByNationalID(ctx context.Context, nationalID string) (*guestDomain.Guest, error) {
	key := guestDomain.NormalizeNationalID(nationalID)
	var model GuestModel
	if err := conn(ctx, r.db).Where("national_id = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Guest with national ID", key)
		}
		return nil, err
	}
	return toGuestDomain(&model), nil
}

func (r *GormGuestRepository) List(ctx context.Context, page, limit int) ([]*guestDomain.Guest, int64, error) {
	var total int64
	if err := conn(ctx, r.db).Model(&GuestModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count guests: %w", err)
	}

	var models []GuestModel
	if err := conn(ctx, r.db).
		Order("name ASC, national_id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list guests: %w", err)
	}
	guests := make([]*guestDomain.Guest, len(models))
	for i := range models {
		guests[i] = toGuestDomain(&models[i])
	}
	return guests, total, nil
}

func (r *GormGuestRepository) Save(ctx context.Context, g *guestDomain.Guest) error {
	if err := conn(ctx, r.db).Create(toGuestModel(g)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("a guest with national ID " + g.NationalID() + " already exists")
		}
		return fmt.Errorf("failed to save guest: %w", err)
	}
	return nil
}

func (r *GormGuestRepository) Update(ctx context.Context, g *guestDomain.Guest) error {
	model := toGuestModel(g)
	previousVersion := g.Version() - 1

	result := conn(ctx, r.db).
		Model(&GuestModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"name":          model.Name,
			"phone":         model.Phone,
			"date_of_birth": model.DateOfBirth,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("guest was modified by another transaction")
	}
	return nil
}

// --- Conversions ---

func toGuestModel(g *guestDomain.Guest) *GuestModel {
	var dob *string
	if g.DateOfBirth() != nil {
		s := g.DateOfBirth().Format("2006-01-02")
		dob = &s
	}
	return &GuestModel{
		ID:          g.ID(),
		Name:        g.Name(),
		NationalID:  g.NationalID(),
		Phone:       g.Phone(),
		DateOfBirth: dob,
		Version:     g.Version(),
		CreatedAt:   g.CreatedAt(),
		UpdatedAt:   g.UpdatedAt(),
	}
}

func toGuestDomain(m *GuestModel) *guestDomain.Guest {
	var dob *time.Time
	if m.DateOfBirth != nil {
		if t, err := time.Parse("2006-01-02", *m.DateOfBirth); err == nil {
			dob = &t
		}
	}
	return guestDomain.Reconstruct(
		m.ID,
		m.Name, m.NationalID, m.Phone,
		dob,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
