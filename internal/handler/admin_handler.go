package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/roomdesk/service-booking/internal/application"
	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/platform/auth"
	"github.com/roomdesk/service-booking/internal/platform/middleware"
	"github.com/roomdesk/service-booking/internal/platform/response"
)

// occupancyReport is today's front-desk picture of the hotel.
type occupancyReport struct {
	Date            string   `json:"date"`
	OccupiedRoomIDs []string `json:"occupied_room_ids"`
	BookedRoomIDs   []string `json:"booked_room_ids"`
	AwaitingArrival int      `json:"awaiting_arrival"`
}

// ReportHandler serves the admin-only overviews across all rooms and bookings.
type ReportHandler struct {
	bookings *application.BookingService
}

func NewReportHandler(bookings *application.BookingService) *ReportHandler {
	return &ReportHandler{bookings: bookings}
}

// RegisterRoutes mounts the report endpoints under /api/v1/admin.
func (h *ReportHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	reports := r.Group("/api/v1/admin",
		middleware.AuthMiddleware(jwtManager),
		middleware.RequireRole(auth.RoleAdmin),
	)
	reports.GET("/bookings", h.AllBookings)
	reports.GET("/stats/bookings", h.Stats)
	reports.GET("/occupancy", h.Occupancy)
}

func (h *ReportHandler) AllBookings(c *gin.Context) {
	page, limit := parsePagination(c)
	result, err := h.bookings.ListBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

func (h *ReportHandler) Stats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// Occupancy handles GET /api/v1/admin/occupancy. Booked rooms without a
// checked-in party are counted as awaiting arrival.
func (h *ReportHandler) Occupancy(c *gin.Context) {
	ctx := c.Request.Context()
	today := h.bookings.Today()

	occupied, err := h.bookings.OccupiedRoomIDs(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	booked, err := h.bookings.BookedRoomIDs(ctx, today)
	if err != nil {
		response.Error(c, err)
		return
	}

	inHouse := make(map[string]struct{}, len(occupied))
	for _, id := range occupied {
		inHouse[id] = struct{}{}
	}
	awaiting := 0
	for _, id := range booked {
		if _, ok := inHouse[id]; !ok {
			awaiting++
		}
	}

	response.Success(c, occupancyReport{
		Date:            bookingDomain.FormatDate(today),
		OccupiedRoomIDs: nonNil(occupied),
		BookedRoomIDs:   nonNil(booked),
		AwaitingArrival: awaiting,
	})
}
