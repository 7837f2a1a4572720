package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/platform/auth"
	"github.com/roomdesk/service-booking/internal/platform/middleware"
	"github.com/roomdesk/service-booking/internal/platform/response"
)

// CancellationHandler exposes the admin side of the cancellation workflow.
type CancellationHandler struct {
	service *application.CancellationService
}

// NewCancellationHandler creates a new CancellationHandler.
func NewCancellationHandler(service *application.CancellationService) *CancellationHandler {
	return &CancellationHandler{service: service}
}

// RegisterRoutes registers cancellation request routes.
func (h *CancellationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	requests := r.Group("/api/v1/cancellation-requests")
	requests.Use(authMW)
	{
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.POST("/:id/approve", adminRole, h.Approve)
		requests.POST("/:id/reject", adminRole, h.Reject)
	}
}

// ListRequests handles GET /api/v1/cancellation-requests?status=.
func (h *CancellationHandler) ListRequests(c *gin.Context) {
	result, err := h.service.ListCancellationRequests(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetRequest handles GET /api/v1/cancellation-requests/:id.
func (h *CancellationHandler) GetRequest(c *gin.Context) {
	requestID, ok := uuidParam(c, "id", "cancellation request")
	if !ok {
		return
	}

	result, err := h.service.GetCancellationRequest(c.Request.Context(), requestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Approve handles POST /api/v1/cancellation-requests/:id/approve.
func (h *CancellationHandler) Approve(c *gin.Context) {
	requestID, ok := uuidParam(c, "id", "cancellation request")
	if !ok {
		return
	}

	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.ApproveCancellation(c.Request.Context(), requestID, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Reject handles POST /api/v1/cancellation-requests/:id/reject.
func (h *CancellationHandler) Reject(c *gin.Context) {
	requestID, ok := uuidParam(c, "id", "cancellation request")
	if !ok {
		return
	}

	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.RejectCancellation(c.Request.Context(), requestID, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
