package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/platform/auth"
	"github.com/roomdesk/service-booking/internal/platform/middleware"
	"github.com/roomdesk/service-booking/internal/platform/response"
)

// GuestHandler handles HTTP requests for the guest directory.
type GuestHandler struct {
	service  *application.GuestService
	bookings *application.BookingService
}

// NewGuestHandler creates a new GuestHandler.
func NewGuestHandler(service *application.GuestService, bookings *application.BookingService) *GuestHandler {
	return &GuestHandler{service: service, bookings: bookings}
}

// RegisterRoutes registers all guest directory routes.
func (h *GuestHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	guests := r.Group("/api/v1/guests")
	guests.Use(middleware.AuthMiddleware(jwtManager))
	{
		guests.POST("/resolve", h.ResolveGuest)
		guests.GET("", h.ListGuests)
		guests.GET("/:id", h.GetGuest)
		guests.PUT("/:id", h.UpdateGuest)
		guests.GET("/:id/bookings", h.GetGuestBookings)
	}
}

// ResolveGuest returns the guest with the given national ID, creating it if unknown.
// Responds 201 when a new entry was created and 200 otherwise.
func (h *GuestHandler) ResolveGuest(c *gin.Context) {
	var req application.ResolveGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, created, err := h.service.ResolveOrCreateGuest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if created {
		response.Created(c, result)
		return
	}
	response.Success(c, result)
}

// ListGuests returns one page of the directory.
func (h *GuestHandler) ListGuests(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListGuests(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetGuest returns a single guest.
func (h *GuestHandler) GetGuest(c *gin.Context) {
	guestID, ok := uuidParam(c, "id", "guest")
	if !ok {
		return
	}

	result, err := h.service.GetGuest(c.Request.Context(), guestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateGuest changes a guest's contact details.
func (h *GuestHandler) UpdateGuest(c *gin.Context) {
	guestID, ok := uuidParam(c, "id", "guest")
	if !ok {
		return
	}

	var req application.UpdateGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateGuest(c.Request.Context(), guestID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetGuestBookings lists every booking the guest is part of.
func (h *GuestHandler) GetGuestBookings(c *gin.Context) {
	guestID, ok := uuidParam(c, "id", "guest")
	if !ok {
		return
	}

	result, err := h.bookings.GetGuestBookings(c.Request.Context(), guestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
