package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/application"
	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/platform/auth"
	"github.com/roomdesk/service-booking/internal/platform/middleware"
	"github.com/roomdesk/service-booking/internal/platform/response"
)

// RoomHandler serves the room catalog and the per-room availability and occupancy views.
type RoomHandler struct {
	rooms    *application.RoomService
	bookings *application.BookingService
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(rooms *application.RoomService, bookings *application.BookingService) *RoomHandler {
	return &RoomHandler{rooms: rooms, bookings: bookings}
}

// RegisterRoutes registers room routes.
func (h *RoomHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	rooms := r.Group("/api/v1/rooms")
	rooms.Use(middleware.AuthMiddleware(jwtManager))
	{
		rooms.GET("", h.SearchRooms)
		rooms.GET("/occupied", h.OccupiedRooms)
		rooms.GET("/booked", h.BookedRooms)
		rooms.GET("/:id", h.GetRoom)
		rooms.GET("/:id/availability", h.CheckAvailability)
		rooms.GET("/:id/bookings", h.RoomBookings)
	}
}

// SearchRooms handles GET /api/v1/rooms.
func (h *RoomHandler) SearchRooms(c *gin.Context) {
	var req application.RoomSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.rooms.SearchRooms(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetRoom handles GET /api/v1/rooms/:id.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	result, err := h.rooms.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CheckAvailability handles GET /api/v1/rooms/:id/availability?start_date=&end_date=&exclude_booking_id=.
// end_date is exclusive.
func (h *RoomHandler) CheckAvailability(c *gin.Context) {
	start, err := bookingDomain.ParseDate(c.Query("start_date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := bookingDomain.ParseDate(c.Query("end_date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var exclude *uuid.UUID
	if raw := c.Query("exclude_booking_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid exclude_booking_id")
			return
		}
		exclude = &id
	}

	result, err := h.bookings.CheckAvailability(c.Request.Context(), c.Param("id"), start, end, exclude)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RoomBookings handles GET /api/v1/rooms/:id/bookings?view=current|upcoming|past|all.
func (h *RoomHandler) RoomBookings(c *gin.Context) {
	view, err := application.ParseRoomBookingView(c.Query("view"))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.bookings.GetRoomBookings(c.Request.Context(), c.Param("id"), view)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// OccupiedRooms handles GET /api/v1/rooms/occupied.
func (h *RoomHandler) OccupiedRooms(c *gin.Context) {
	result, err := h.bookings.OccupiedRoomIDs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"room_ids": nonNil(result)})
}

// BookedRooms handles GET /api/v1/rooms/booked?date=. The date defaults to today.
func (h *RoomHandler) BookedRooms(c *gin.Context) {
	day := h.bookings.Today()
	if raw := c.Query("date"); raw != "" {
		parsed, err := bookingDomain.ParseDate(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		day = parsed
	}

	result, err := h.bookings.BookedRoomIDs(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"date":     bookingDomain.FormatDate(day),
		"room_ids": nonNil(result),
	})
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
