package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecowaste/admintrack/internal/reports"
	appErrors "github.com/ecowaste/admintrack/pkg/errors"
	"github.com/ecowaste/admintrack/pkg/metrics"
	"github.com/ecowaste/admintrack/pkg/response"
)

// ReportsHandler serves report downloads for the dashboard.
type ReportsHandler struct {
	generator *reports.Generator
}

// NewReportsHandler constructs a ReportsHandler.
func NewReportsHandler(generator *reports.Generator) (*ReportsHandler, error) {
	if generator == nil {
		return nil, errors.New("reports handler: generator is required")
	}
	return &ReportsHandler{generator: generator}, nil
}

// Generate builds the requested report and writes it in the requested
// format. CSV and JSON are sent as downloads, HTML renders inline.
func (h *ReportsHandler) Generate(c *gin.Context) {
	reportType := strings.ToLower(strings.TrimSpace(c.DefaultQuery("type", reports.TypeOverview)))
	if !reports.ValidType(reportType) {
		response.Error(c, appErrors.ErrInvalidReportType)
		return
	}

	rng := reports.ParseRange(c.Query("range"), time.Now())

	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "json")))
	switch format {
	case "json", "csv", "html":
	default:
		response.Error(c, appErrors.NewBadRequest(fmt.Sprintf("unknown format %q", format)))
		return
	}

	report, err := h.generator.Generate(requestContext(c), reportType, rng)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Rendering goes through a buffer so renderer errors can still produce
	// a clean JSON error response.
	var buf bytes.Buffer
	var contentType string
	switch format {
	case "json":
		contentType = "application/json"
		err = reports.RenderJSON(&buf, report)
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = reports.RenderCSV(&buf, report)
	case "html":
		contentType = "text/html; charset=utf-8"
		err = reports.RenderHTML(&buf, report)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	metrics.ReportsGenerated.WithLabelValues(reportType, format).Inc()

	if format != "html" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", report.Filename(format)))
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
