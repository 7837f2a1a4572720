package guest

import (
	"context"

	"github.com/google/uuid"
)

// GuestRepository defines persistence operations for the guest directory.
type GuestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Guest, error)
	FindByNationalID(ctx context.Context, nationalID string) (*Guest, error)
	List(ctx context.Context, page, limit int) ([]*Guest, int64, error)
	Save(ctx context.Context, guest *Guest) error
	Update(ctx context.Context, guest *Guest) error
}
