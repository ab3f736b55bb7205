package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/ecowaste/admintrack/internal/app"
	iauth "github.com/ecowaste/admintrack/internal/auth"
	"github.com/ecowaste/admintrack/internal/handlers"
	"github.com/ecowaste/admintrack/internal/middleware"
	"github.com/ecowaste/admintrack/internal/reports"
	"github.com/ecowaste/admintrack/internal/services"
)

// NewRouter builds the Gin engine, wires middleware, and registers the
// tracking API and dashboard routes.
func NewRouter(db *gorm.DB, cfg *app.Config, sessions *iauth.SessionService, jwt *iauth.JWTService) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}

	tracking, err := services.NewTrackingService(db)
	if err != nil {
		return nil, err
	}
	analytics, err := services.NewAnalyticsService(db)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	if cfg.Server.RateLimitPerMinute > 0 {
		r.Use(middleware.RateLimit(cfg.Server.RateLimitPerMinute, time.Minute))
	}

	r.GET("/health", handlers.Health(db))
	if cfg.Monitoring.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	trackingHandler, err := handlers.NewTrackingHandler(db, sessions, tracking)
	if err != nil {
		return nil, err
	}
	analyticsHandler, err := handlers.NewAnalyticsHandler(analytics, tracking)
	if err != nil {
		return nil, err
	}

	// Tracking API used by admin dashboard clients.
	track := r.Group("/api/activity-tracking")
	{
		track.POST("/login", trackingHandler.Login)
		track.POST("/logout", trackingHandler.Logout)
		// Security events carry their own optional attribution so error
		// hooks can report before a session exists.
		track.POST("/security-event", trackingHandler.RecordSecurityEvent)

		authed := track.Group("")
		authed.Use(middleware.TrackingAuth(sessions))
		{
			authed.POST("/activity", trackingHandler.RecordActivity)
			authed.POST("/page-visit", trackingHandler.RecordPageVisit)

			authed.GET("/analytics", analyticsHandler.Analytics)
			authed.GET("/sessions", analyticsHandler.Sessions)
			authed.GET("/activities", analyticsHandler.Activities)
			authed.GET("/security-events", analyticsHandler.SecurityEvents)
			authed.GET("/performance", analyticsHandler.Performance)
			authed.POST("/security-events/:id/resolve", analyticsHandler.ResolveSecurityEvent)
		}
	}

	// Reports and dashboard UI behind JWT auth.
	authHandler, err := handlers.NewAuthHandler(db, jwt)
	if err != nil {
		return nil, err
	}
	r.GET("/login", authHandler.LoginPage)
	r.POST("/login", authHandler.Login)

	generator, err := reports.NewGenerator(db)
	if err != nil {
		return nil, err
	}
	reportsHandler, err := handlers.NewReportsHandler(generator)
	if err != nil {
		return nil, err
	}
	dashboardHandler, err := handlers.NewDashboardHandler(analytics, tracking)
	if err != nil {
		return nil, err
	}

	dashboard := r.Group("")
	dashboard.Use(middleware.DashboardAuth(jwt))
	{
		dashboard.GET("/reports", reportsHandler.Generate)
		dashboard.GET("/dashboard", dashboardHandler.Dashboard)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
