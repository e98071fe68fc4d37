package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/server/http/dto"
	"github.com/polkiloo/coursemart/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

func parseEnrollmentID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	return id, err == nil
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.Failure(message))
}

// respondError maps domain errors onto status codes and client-safe messages.
func respondError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, domainErrors.ErrInvalidSignature):
		status, message = http.StatusBadRequest, "Payment signature verification failed"
	case errors.Is(err, domainErrors.ErrInvalidAmount):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, domainErrors.ErrMissingOrder):
		status, message = http.StatusBadRequest, "No payment order found for this enrollment"
	case errors.Is(err, domainErrors.ErrOrderMismatch):
		status, message = http.StatusBadRequest, "Payment order does not belong to this enrollment"
	case errors.Is(err, domainErrors.ErrInvalidState):
		status, message = http.StatusBadRequest, "Operation not allowed for the current enrollment status"
	case errors.Is(err, domainErrors.ErrForbidden):
		status, message = http.StatusForbidden, "Enrollment belongs to another user"
	case errors.Is(err, domainErrors.ErrNotFound):
		status, message = http.StatusNotFound, "Course or enrollment not found"
	case errors.Is(err, domainErrors.ErrAlreadyExists):
		status, message = http.StatusConflict, "Already enrolled in this course"
	case errors.Is(err, domainErrors.ErrConcurrentUpdate):
		status, message = http.StatusConflict, "Enrollment is being updated, please retry"
	case errors.Is(err, domainErrors.ErrUpstreamTimeout):
		status, message = http.StatusGatewayTimeout, "Payment gateway timed out"
	case errors.Is(err, domainErrors.ErrUpstream):
		status, message = http.StatusBadGateway, "Payment gateway is unavailable"
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, dto.Failure(message))
}
