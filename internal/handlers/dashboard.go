package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecowaste/admintrack/internal/models"
	"github.com/ecowaste/admintrack/internal/services"
	appErrors "github.com/ecowaste/admintrack/pkg/errors"
	"github.com/ecowaste/admintrack/pkg/response"
)

//go:embed templates/dashboard.html.tmpl
var dashboardFS embed.FS

var dashboardTemplate = template.Must(
	template.ParseFS(dashboardFS, "templates/dashboard.html.tmpl"))

const recentListLimit = 10

// DashboardHandler renders the HTML analytics dashboard.
type DashboardHandler struct {
	analytics *services.AnalyticsService
	tracking  *services.TrackingService
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(analytics *services.AnalyticsService, tracking *services.TrackingService) (*DashboardHandler, error) {
	if analytics == nil || tracking == nil {
		return nil, errors.New("dashboard handler: analytics and tracking services are required")
	}
	return &DashboardHandler{analytics: analytics, tracking: tracking}, nil
}

type dashboardView struct {
	Summary          *services.SummaryStats
	Daily            []services.DailyActivity
	RecentActivities []models.ActivityRecord
	RecentEvents     []models.SecurityEvent
	Performance      []models.PerformanceMetric
}

// Dashboard renders today's summary plus the recent activity, security, and
// performance listings.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	ctx := requestContext(c)
	now := time.Now().UTC()

	summary, err := h.analytics.Summary(ctx, now)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	daily, err := h.analytics.Daily(ctx, now, services.DefaultDailyDays)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	activities, err := h.tracking.ListActivities(ctx, services.ActivityFilters{Limit: recentListLimit})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	events, err := h.tracking.ListSecurityEvents(ctx, services.SecurityEventFilters{Limit: recentListLimit})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	performance, err := h.tracking.ListPerformance(ctx, services.PerformanceFilters{Limit: recentListLimit})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	err = dashboardTemplate.Execute(c.Writer, dashboardView{
		Summary:          summary,
		Daily:            daily,
		RecentActivities: activities,
		RecentEvents:     events,
		Performance:      performance,
	})
	if err != nil {
		_ = c.Error(err)
	}
}
