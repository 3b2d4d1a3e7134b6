package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sparrow-api/internal/calls"
	"sparrow-api/internal/personas"
	"sparrow-api/internal/plans"
	"sparrow-api/internal/users"
	"sparrow-api/pkg/logger"
)

// writeError maps service sentinel errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; details stay in the logs.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, calls.ErrNotFound),
		errors.Is(err, personas.ErrNotFound),
		errors.Is(err, users.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})

	case errors.Is(err, calls.ErrNotOwner),
		errors.Is(err, personas.ErrNotOwner):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})

	case errors.Is(err, calls.ErrInvalidArgument),
		errors.Is(err, users.ErrInvalidArgument),
		errors.Is(err, personas.ErrInvalidArgument),
		errors.Is(err, personas.ErrInvalidGenerateRequest),
		errors.Is(err, personas.ErrDefaultReadOnly):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, calls.ErrCallNotActive):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "call is not active"})

	case errors.Is(err, plans.ErrLimitReached):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "call limit reached"})

	case errors.Is(err, calls.ErrSessionCapReached):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "another session is already live"})

	case errors.Is(err, calls.ErrVoiceUnavailable):
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize voice agent"})

	case errors.Is(err, personas.ErrGenerationFailed):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "persona generation failed"})

	default:
		logger.From(c.Request.Context()).Error("request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
