package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jwulff/bplog-go/internal/analytics"
	"github.com/jwulff/bplog-go/internal/reading"
	"github.com/jwulff/bplog-go/internal/storage"
	"github.com/jwulff/bplog-go/internal/tracker"
)

// ReadingsController serves readings, trends and CSV transfer.
type ReadingsController struct {
	tracker *tracker.Tracker
	logger  *zap.Logger
}

type readingResponse struct {
	reading.Reading
	Severity string `json:"severity"`
	Label    string `json:"label"`
}

func newReadingResponse(r reading.Reading) readingResponse {
	s := r.Severity()
	return readingResponse{Reading: r, Severity: s.String(), Label: s.Label()}
}

// List handles GET /readings?range=&limit=.
func (rc *ReadingsController) List(c *gin.Context) {
	rng, err := analytics.ParseTimeRange(c.Query("range"))
	if err != nil {
		respondError(c, err)
		return
	}

	limit := tracker.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
	}

	readings, err := rc.tracker.History(c.Request.Context(), rng, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]readingResponse, len(readings))
	for i, r := range readings {
		out[i] = newReadingResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"range": rng, "readings": out})
}

// Create handles POST /readings.
func (rc *ReadingsController) Create(c *gin.Context) {
	var in reading.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := rc.tracker.Record(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newReadingResponse(r))
}

// Update handles PUT /readings/:id. The edited reading is returned with its
// new ID.
func (rc *ReadingsController) Update(c *gin.Context) {
	var in reading.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := rc.tracker.Edit(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReadingResponse(r))
}

// Delete handles DELETE /readings/:id.
func (rc *ReadingsController) Delete(c *gin.Context) {
	if err := rc.tracker.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAll handles DELETE /readings.
func (rc *ReadingsController) DeleteAll(c *gin.Context) {
	if err := rc.tracker.DeleteAll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Trends handles GET /trends?range=.
func (rc *ReadingsController) Trends(c *gin.Context) {
	rng, err := analytics.ParseTimeRange(c.Query("range"))
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := rc.tracker.Trends(c.Request.Context(), rng)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report":   report,
		"severity": report.Summary.Severity().String(),
		"label":    report.Summary.Severity().Label(),
	})
}

// Export handles GET /export?range=, sending the readings as a CSV attachment.
func (rc *ReadingsController) Export(c *gin.Context) {
	rng := analytics.RangeAll
	if raw := c.Query("range"); raw != "" {
		var err error
		if rng, err = analytics.ParseTimeRange(raw); err != nil {
			respondError(c, err)
			return
		}
	}

	// Render first so a storage failure can still become a JSON error.
	var buf bytes.Buffer
	if err := rc.tracker.ExportRange(c.Request.Context(), &buf, rng); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, rc.tracker.ExportFileName()))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

type importResponse struct {
	Imported int               `json:"imported"`
	Skipped  int               `json:"skipped"`
	Rejected int               `json:"rejected"`
	Readings []readingResponse `json:"readings"`
	Errors   []importRowError  `json:"errors"`
	Error    string            `json:"error,omitempty"`
}

type importRowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// Import handles POST /import with a CSV request body. When storage fails part
// way through, the 503 response still carries the report of the rows handled
// before the failure.
func (rc *ReadingsController) Import(c *gin.Context) {
	report, err := rc.tracker.Import(c.Request.Context(), c.Request.Body)
	if err != nil && !storage.IsUnavailable(err) {
		respondError(c, err)
		return
	}

	resp := newImportResponse(report)
	if err != nil {
		rc.logger.Warn("import stopped by storage failure", zap.Int("imported", report.Imported), zap.Error(err))
		_ = c.Error(err)
		resp.Error = "storage unavailable, try again"
		c.Header("Retry-After", retryAfterSeconds)
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func newImportResponse(report tracker.ImportReport) importResponse {
	resp := importResponse{
		Imported: report.Imported,
		Skipped:  report.Skipped,
		Rejected: report.Rejected,
		Readings: make([]readingResponse, len(report.Readings)),
		Errors:   make([]importRowError, len(report.RowErrors)),
	}
	for i, r := range report.Readings {
		resp.Readings[i] = newReadingResponse(r)
	}
	for i, rowErr := range report.RowErrors {
		resp.Errors[i] = importRowError{Line: rowErr.Line, Error: rowErr.Err.Error()}
	}
	return resp
}
