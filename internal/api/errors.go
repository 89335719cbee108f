package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwulff/bplog-go/internal/analytics"
	"github.com/jwulff/bplog-go/internal/csvcodec"
	"github.com/jwulff/bplog-go/internal/observability"
	"github.com/jwulff/bplog-go/internal/reading"
	"github.com/jwulff/bplog-go/internal/storage"
	"github.com/jwulff/bplog-go/internal/tracker"
)

// retryAfterSeconds is sent with 503 responses.
const retryAfterSeconds = "5"

// respondError writes the JSON error body matching err.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var verr *reading.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": verr.Error(),
			"field": verr.Field,
			"kind":  observability.RejectionKind(err),
		})
	case errors.Is(err, tracker.ErrInvalidSetting):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, analytics.ErrUnknownRange),
		errors.Is(err, csvcodec.ErrMissingHeader),
		errors.Is(err, csvcodec.ErrMissingColumn):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case storage.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case storage.IsUnavailable(err):
		c.Header("Retry-After", retryAfterSeconds)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
