package handler

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/platform/response"
)

// RegisterValidators adds the custom binding tags used by request DTOs to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(bookingDomain.DateLayout, fl.Field().String())
		return err == nil
	})
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}

// uuidParam parses the named path parameter, writing 400 on failure.
func uuidParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// bindOptionalJSON binds the body when there is one. On failure it writes 400 and returns false.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err.Error())
		return false
	}
	return true
}
