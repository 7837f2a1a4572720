package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/platform/auth"
	"github.com/roomdesk/service-booking/internal/platform/middleware"
	"github.com/roomdesk/service-booking/internal/platform/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service       *application.BookingService
	cancellations *application.CancellationService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService, cancellations *application.CancellationService) *BookingHandler {
	return &BookingHandler{service: service, cancellations: cancellations}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.CreateBooking)
		bookings.POST("/batch", h.CreateBatch)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/check-in", h.CheckIn)
		bookings.POST("/:id/check-out", h.CheckOut)
		bookings.POST("/:id/extend", h.ExtendBooking)
		bookings.POST("/:id/payment", h.UpdatePayment)
		bookings.POST("/:id/cancel", adminRole, h.CancelBooking)
		bookings.DELETE("/:id", adminRole, h.DeleteBooking)
		bookings.POST("/:id/cancellation-request", middleware.RequireRole(auth.RoleManager), h.RequestCancellation)
		bookings.GET("/:id/cancellation-request", h.GetCancellationRequest)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// CreateBatch handles POST /api/v1/bookings/batch.
func (h *BookingHandler) CreateBatch(c *gin.Context) {
	var req application.CreateBatchBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := uuidParam(c, "id", "booking")
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CheckIn handles POST /api/v1/bookings/:id/check-in. The body may carry the
// paid amount collected on arrival.
func (h *BookingHandler) CheckIn(c *gin.Context) {
	bookingID, ok := uuidParam(c, "id", "booking")
	if !ok {
		return
	}

	var req application.StayPaymentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.service.CheckIn(c.Request.Context(), bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CheckOut handles POST /api/v1/bookings/:id/check-out.
func (h *BookingHandler) CheckOut(c *gin.Context) {
	bookingID, ok := uuidParam(c, "id", "booking")
	if !ok {
		return
	}

	var req application.StayPaymentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.service.CheckOut(c.Request.Context(), bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ExtendBooking handles POST /api/v1/bookings/:id/extend.
func (h *BookingHandler) ExtendBooking(c *gin.Context) {
	bookingID, ok := uuidParam(c, "id", "booking")
	if !ok {
		return
	}

	var req application.ExtendBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ExtendBooking(c.Request.Context(), bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdatePayment handles POST /api/v1/bookings/:id/payment.
func (h *BookingHandler) UpdatePayment(c *gin.Context) {
	bookingID, ok := uuidParam(c, "id", "booking")
	if !ok {
		return
	}

	var req application.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdatePayment(c.Request.Context(), bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel (admin).
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := uuidParam(c, "id", "booking")
	if !ok {
		return
	}

	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteBooking handles DELETE /api/v1/bookings/:id (admin).
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, ok := uuidParam(c, "id", "booking")
	if !ok {
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), bookingID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// RequestCancellation handles POST /api/v1/bookings/:id/cancellation-request (manager).
func (h *BookingHandler) RequestCancellation(c *gin.Context) {
	bookingID, ok := uuidParam(c, "id", "booking")
	if !ok {
		return
	}

	managerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.RequestCancellationRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.cancellations.RequestCancellation(c.Request.Context(), bookingID, managerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetCancellationRequest handles GET /api/v1/bookings/:id/cancellation-request.
func (h *BookingHandler) GetCancellationRequest(c *gin.Context) {
	bookingID, ok := uuidParam(c, "id", "booking")
	if !ok {
		return
	}

	result, err := h.cancellations.GetCancellationRequestForBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
