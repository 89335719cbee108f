package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwulff/bplog-go/internal/tracker"
)

// SettingsController serves user preferences.
type SettingsController struct {
	tracker *tracker.Tracker
}

// Get handles GET /settings.
func (sc *SettingsController) Get(c *gin.Context) {
	settings, err := sc.tracker.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// Update handles PUT /settings. Fields missing from the body keep their
// current values.
func (sc *SettingsController) Update(c *gin.Context) {
	settings, err := sc.tracker.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settings = settings.Normalized()
	if err := sc.tracker.UpdateSettings(c.Request.Context(), settings); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
