package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roomdesk/service-booking/internal/platform/domain"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// NoContent writes 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes one page of items with pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"pagination": gin.H{
			"total":       total,
			"page":        page,
			"limit":       limit,
			"total_pages": totalPages,
		},
	})
}

// BadRequest writes 400 with a validation message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   errorBody{Code: string(domain.KindValidation), Message: message},
	})
}

// Unauthorized writes 401.
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   errorBody{Code: "UNAUTHORIZED", Message: message},
	})
}

// Forbidden writes 403.
func Forbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error":   errorBody{Code: string(domain.KindForbidden), Message: message},
	})
}

// Error maps err to a status code by its domain kind. Unknown errors become 500
// and their text is not echoed to the client.
func Error(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)

	message := "internal server error"
	var de *domain.DomainError
	if errors.As(err, &de) {
		message = de.Message
	} else {
		kind = "INTERNAL_ERROR"
		_ = c.Error(err)
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   errorBody{Code: string(kind), Message: message},
	})
}

// StatusFor returns the HTTP status for a domain error kind.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalidState:
		return http.StatusUnprocessableEntity
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
