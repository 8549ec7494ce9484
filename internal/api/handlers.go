package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/service"
)

// currentUserID returns the authenticated user's id; handlers behind
// AuthMiddleware can rely on it being present.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// optionalUserID returns the requester's id, or nil for anonymous
// requests behind OptionalAuthMiddleware.
func optionalUserID(c *gin.Context) *uuid.UUID {
	if id, ok := currentUserID(c); ok {
		return &id
	}
	return nil
}

// respondServiceError maps service failures onto the HTTP error
// taxonomy. All of these are request-local.
func respondServiceError(c *gin.Context, err error) {
	var verrs service.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{"errors": verrs})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyInList),
		errors.Is(err, service.ErrNotInList),
		errors.Is(err, service.ErrSelfSubscription),
		errors.Is(err, service.ErrAlreadySubscribed),
		errors.Is(err, service.ErrNotSubscribed),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// parseIDParam reads a uuid path parameter; unparseable ids map to 404
// the same as unknown ones.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return uuid.Nil, false
	}
	return id, true
}
