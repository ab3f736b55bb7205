package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ecowaste/admintrack/internal/services"
	appErrors "github.com/ecowaste/admintrack/pkg/errors"
	"github.com/ecowaste/admintrack/pkg/response"
)

// AnalyticsHandler serves the analytics and listing endpoints of the
// tracking API.
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
	tracking  *services.TrackingService
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(analytics *services.AnalyticsService, tracking *services.TrackingService) (*AnalyticsHandler, error) {
	if analytics == nil || tracking == nil {
		return nil, errors.New("analytics handler: analytics and tracking services are required")
	}
	return &AnalyticsHandler{analytics: analytics, tracking: tracking}, nil
}

// Analytics dispatches on the type query parameter to the matching
// aggregate. The date parameter defaults to today.
func (h *AnalyticsHandler) Analytics(c *gin.Context) {
	day, err := parseDateQuery(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}

	var data any
	switch strings.ToLower(strings.TrimSpace(c.Query("type"))) {
	case "", "summary":
		data, err = h.analytics.Summary(requestContext(c), day)
	case "daily":
		data, err = h.analytics.Daily(requestContext(c), day, parseIntQuery(c, "days", services.DefaultDailyDays))
	case "admin":
		adminID := strings.TrimSpace(c.Query("admin_id"))
		if adminID == "" {
			adminID, _ = currentAdminID(c)
		}
		if adminID == "" {
			response.Error(c, appErrors.NewBadRequest("admin_id is required"))
			return
		}
		data, err = h.analytics.Admin(requestContext(c), adminID, day)
	case "security":
		data, err = h.analytics.Security(requestContext(c), day)
	case "performance":
		data, err = h.analytics.Performance(requestContext(c), day)
	default:
		response.Error(c, appErrors.ErrInvalidAnalyticsType)
		return
	}

	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, data)
}

// Sessions lists tracking sessions, optionally filtered.
func (h *AnalyticsHandler) Sessions(c *gin.Context) {
	since, err := parseTimeQuery(c, "since")
	if err != nil {
		response.Error(c, err)
		return
	}
	until, err := parseTimeQuery(c, "until")
	if err != nil {
		response.Error(c, err)
		return
	}

	sessions, err := h.tracking.ListSessions(requestContext(c), services.SessionFilters{
		AdminID:    c.Query("admin_id"),
		ActiveOnly: c.Query("active") == "true",
		Since:      since,
		Until:      until,
		Limit:      parseIntQuery(c, "limit", 0),
	})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, sessions)
}

// Activities lists activity records, optionally filtered.
func (h *AnalyticsHandler) Activities(c *gin.Context) {
	since, err := parseTimeQuery(c, "since")
	if err != nil {
		response.Error(c, err)
		return
	}
	until, err := parseTimeQuery(c, "until")
	if err != nil {
		response.Error(c, err)
		return
	}

	records, err := h.tracking.ListActivities(requestContext(c), services.ActivityFilters{
		AdminID:          c.Query("admin_id"),
		SessionID:        c.Query("session_id"),
		ActivityType:     c.Query("activity_type"),
		ActivityCategory: c.Query("activity_category"),
		Since:            since,
		Until:            until,
		Limit:            parseIntQuery(c, "limit", 0),
	})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, records)
}

// SecurityEvents lists security events, optionally filtered.
func (h *AnalyticsHandler) SecurityEvents(c *gin.Context) {
	since, err := parseTimeQuery(c, "since")
	if err != nil {
		response.Error(c, err)
		return
	}
	until, err := parseTimeQuery(c, "until")
	if err != nil {
		response.Error(c, err)
		return
	}

	events, err := h.tracking.ListSecurityEvents(requestContext(c), services.SecurityEventFilters{
		AdminID:        c.Query("admin_id"),
		EventType:      c.Query("event_type"),
		Severity:       c.Query("severity"),
		UnresolvedOnly: c.Query("unresolved") == "true",
		Since:          since,
		Until:          until,
		Limit:          parseIntQuery(c, "limit", 0),
	})
	if err != nil {
		response.Error(c, appErrors.NewBadRequest(err.Error()))
		return
	}
	response.Success(c, http.StatusOK, events)
}

// Performance lists daily performance rollups, optionally filtered.
func (h *AnalyticsHandler) Performance(c *gin.Context) {
	since, err := parseTimeQuery(c, "since")
	if err != nil {
		response.Error(c, err)
		return
	}
	until, err := parseTimeQuery(c, "until")
	if err != nil {
		response.Error(c, err)
		return
	}

	rows, err := h.tracking.ListPerformance(requestContext(c), services.PerformanceFilters{
		AdminID: c.Query("admin_id"),
		Since:   since,
		Until:   until,
		Limit:   parseIntQuery(c, "limit", 0),
	})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// ResolveSecurityEvent marks one security event as resolved.
func (h *AnalyticsHandler) ResolveSecurityEvent(c *gin.Context) {
	event, err := h.tracking.ResolveSecurityEvent(requestContext(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEventNotFound):
			response.Error(c, appErrors.ErrNotFound)
		case errors.Is(err, services.ErrEventAlreadyResolved):
			response.Error(c, appErrors.ErrEventResolved)
		default:
			response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		}
		return
	}
	response.Success(c, http.StatusOK, event)
}
