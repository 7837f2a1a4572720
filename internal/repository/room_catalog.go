package repository

import (
	"context"
	"fmt"
	"sort"

	roomDomain "github.com/roomdesk/service-booking/internal/domain/room"
	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// StaticRoomCatalog serves a fixed room list loaded at startup.
type StaticRoomCatalog struct {
	byID  map[string]roomDomain.Room
	order []string
}

// NewStaticRoomCatalog validates rooms and indexes them by ID.
func NewStaticRoomCatalog(rooms []roomDomain.Room) (*StaticRoomCatalog, error) {
	c := &StaticRoomCatalog{byID: make(map[string]roomDomain.Room, len(rooms))}
	for _, r := range rooms {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate room ID %q in catalog", r.ID)
		}
		r.Problems = append([]string(nil), r.Problems...)
		c.byID[r.ID] = r
		c.order = append(c.order, r.ID)
	}
	sort.SliceStable(c.order, func(i, j int) bool {
		a, b := c.byID[c.order[i]], c.byID[c.order[j]]
		if a.Floor != b.Floor {
			return a.Floor < b.Floor
		}
		return a.RoomNumber < b.RoomNumber
	})
	return c, nil
}

// FindByID returns a room or NotFoundError.
func (c *StaticRoomCatalog) FindByID(_ context.Context, id string) (*roomDomain.Room, error) {
	r, ok := c.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("Room", id)
	}
	r.Problems = append([]string(nil), r.Problems...)
	return &r, nil
}

// List returns every room ordered by floor and room number.
func (c *StaticRoomCatalog) List(_ context.Context) ([]roomDomain.Room, error) {
	out := make([]roomDomain.Room, 0, len(c.order))
	for _, id := range c.order {
		r := c.byID[id]
		r.Problems = append([]string(nil), r.Problems...)
		out = append(out, r)
	}
	return out, nil
}
