package application

import (
	"context"
	"fmt"

	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	roomDomain "github.com/roomdesk/service-booking/internal/domain/room"
	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// RoomSearchRequest filters the room catalog. When both dates are set only rooms
// free for [StartDate, EndDate) are returned.
type RoomSearchRequest struct {
	Category  string `form:"category"`
	HasAC     *bool  `form:"has_ac"`
	StartDate string `form:"start_date" binding:"omitempty,isodate"`
	EndDate   string `form:"end_date" binding:"omitempty,isodate"`
}

// RoomDTO is the API response representation of a room.
type RoomDTO struct {
	ID          string   `json:"id"`
	RoomNumber  string   `json:"room_number"`
	Floor       int      `json:"floor"`
	Category    string   `json:"category"`
	Beds        int      `json:"beds"`
	Bathrooms   int      `json:"bathrooms"`
	HasAC       bool     `json:"has_ac"`
	Description string   `json:"description,omitempty"`
	Problems    []string `json:"problems"`
}

// RoomService answers catalog and occupancy questions.
type RoomService struct {
	rooms    roomDomain.Catalog
	bookings bookingDomain.BookingRepository
}

// NewRoomService creates a new RoomService.
func NewRoomService(rooms roomDomain.Catalog, bookings bookingDomain.BookingRepository) *RoomService {
	return &RoomService{rooms: rooms, bookings: bookings}
}

// GetRoom returns a single room.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*RoomDTO, error) {
	r, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	result := toRoomDTO(*r)
	return &result, nil
}

// SearchRooms lists rooms matching the filter, optionally restricted to those free for a date window.
func (s *RoomService) SearchRooms(ctx context.Context, req RoomSearchRequest) ([]RoomDTO, error) {
	var filter roomDomain.Filter
	if req.Category != "" {
		c, err := roomDomain.ParseCategory(req.Category)
		if err != nil {
			return nil, err
		}
		filter.Category = &c
	}
	filter.HasAC = req.HasAC

	window, err := searchWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	out := make([]RoomDTO, 0, len(rooms))
	for _, r := range rooms {
		if !filter.Matches(r) {
			continue
		}
		if window != nil {
			bookings, err := s.bookings.FindByRoomID(ctx, r.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load bookings for room %s: %w", r.ID, err)
			}
			if !bookingDomain.IsAvailable(bookings, *window, nil) {
				continue
			}
		}
		out = append(out, toRoomDTO(r))
	}
	return out, nil
}

func searchWindow(start, end string) (*bookingDomain.Window, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, domain.NewValidationError("start_date and end_date must be given together")
	}
	s, err := bookingDomain.ParseDate(start)
	if err != nil {
		return nil, err
	}
	e, err := bookingDomain.ParseDate(end)
	if err != nil {
		return nil, err
	}
	w, err := bookingDomain.NewWindow(s, e)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func toRoomDTO(r roomDomain.Room) RoomDTO {
	problems := r.Problems
	if problems == nil {
		problems = []string{}
	}
	return RoomDTO{
		ID:          r.ID,
		RoomNumber:  r.RoomNumber,
		Floor:       r.Floor,
		Category:    string(r.Category),
		Beds:        r.Beds,
		Bathrooms:   r.Bathrooms,
		HasAC:       r.HasAC,
		Description: r.Description,
		Problems:    problems,
	}
}
