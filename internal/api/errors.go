package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/editorial-cms/internal/service"
	"github.com/editorial-cms/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// respondError maps a service error onto an HTTP response.
// Unrecognised errors are logged and reported as a generic 500.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var verrs validation.Errors
	var lockout *service.LockoutError

	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Validation failed",
			"details": verrs,
		})
	case errors.As(err, &lockout):
		c.Header("Retry-After", strconv.Itoa(lockout.Minutes()*60))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": lockout.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
	default:
		log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString("request_id")).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
