package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	iauth "github.com/ecowaste/admintrack/internal/auth"
	"github.com/ecowaste/admintrack/internal/middleware"
	"github.com/ecowaste/admintrack/internal/models"
	"github.com/ecowaste/admintrack/internal/services"
	"github.com/ecowaste/admintrack/pkg/crypto"
	appErrors "github.com/ecowaste/admintrack/pkg/errors"
	"github.com/ecowaste/admintrack/pkg/logger"
	"github.com/ecowaste/admintrack/pkg/response"
)

// TrackingHandler serves the activity tracking endpoints used by admin
// dashboard clients.
type TrackingHandler struct {
	db       *gorm.DB
	sessions *iauth.SessionService
	tracking *services.TrackingService
}

// NewTrackingHandler constructs a TrackingHandler.
func NewTrackingHandler(db *gorm.DB, sessions *iauth.SessionService, tracking *services.TrackingService) (*TrackingHandler, error) {
	if db == nil || sessions == nil || tracking == nil {
		return nil, errors.New("tracking handler: db, sessions, and tracking service are required")
	}
	return &TrackingHandler{db: db, sessions: sessions, tracking: tracking}, nil
}

type loginRequest struct {
	AdminID  string `json:"admin_id" validate:"max=64"`
	Username string `json:"username" validate:"max=64"`
	Password string `json:"password" validate:"max=128"`
}

// Login opens a tracking session. Callers already authenticated elsewhere
// pass their admin_id; the username and password pair remains available for
// clients without an upstream login.
func (h *TrackingHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	client := clientInfo(c)

	var admin models.Admin
	switch {
	case strings.TrimSpace(req.AdminID) != "":
		err := h.db.WithContext(requestContext(c)).
			Take(&admin, "id = ? AND is_active = ?", strings.TrimSpace(req.AdminID), true).Error
		if err != nil {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
	case strings.TrimSpace(req.Username) != "":
		err := h.db.WithContext(requestContext(c)).
			Take(&admin, "username = ? AND is_active = ?", strings.TrimSpace(req.Username), true).Error
		if err != nil || !crypto.VerifyPassword(req.Password, admin.Password) {
			h.recordFailedLogin(c, req.Username, client)
			response.Error(c, appErrors.ErrInvalidCredentials)
			return
		}
	default:
		response.Error(c, appErrors.NewBadRequest("admin_id is required"))
		return
	}

	session, err := h.sessions.Start(requestContext(c), admin.ID, iauth.SessionMetadata{
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	_, err = h.tracking.RecordActivity(requestContext(c), services.ActivityEntry{
		AdminID:          admin.ID,
		SessionID:        session.ID,
		ActivityType:     "LOGIN",
		ActivityCategory: "AUTHENTICATION",
		Description:      "Admin logged in",
		Client:           client,
	})
	if err != nil {
		logger.WithModule("tracking").Warn("failed to record login activity", zap.Error(err))
	}

	response.Success(c, http.StatusOK, gin.H{
		"session_token": session.SessionToken,
		"session_id":    session.ID,
		"login_time":    session.LoginTime,
		"admin": gin.H{
			"id":           admin.ID,
			"username":     admin.Username,
			"display_name": admin.DisplayName,
		},
	})
}

type logoutRequest struct {
	SessionID string `json:"session_id" validate:"required,max=64"`
	AdminID   string `json:"admin_id" validate:"required,max=64"`
}

// Logout closes the identified tracking session and computes its duration.
func (h *TrackingHandler) Logout(c *gin.Context) {
	var req logoutRequest
	if !bindAndValidate(c, &req) {
		return
	}

	closed, err := h.sessions.Close(requestContext(c), req.SessionID, req.AdminID)
	if err != nil {
		if errors.Is(err, iauth.ErrSessionNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	_, err = h.tracking.RecordActivity(requestContext(c), services.ActivityEntry{
		AdminID:          closed.AdminID,
		SessionID:        closed.ID,
		ActivityType:     "LOGOUT",
		ActivityCategory: "AUTHENTICATION",
		Description:      "Admin logged out",
		Client:           clientInfo(c),
	})
	if err != nil {
		logger.WithModule("tracking").Warn("failed to record logout activity", zap.Error(err))
	}

	response.Success(c, http.StatusOK, gin.H{
		"session_id":       closed.ID,
		"session_duration": closed.SessionDuration,
	})
}

type activityRequest struct {
	ActivityType     string         `json:"activity_type" validate:"required,max=64"`
	ActivityCategory string         `json:"activity_category" validate:"required,max=64"`
	Description      string         `json:"description" validate:"required,max=1024"`
	TargetResource   *string        `json:"target_resource"`
	TargetID         *string        `json:"target_id"`
	OldValues        map[string]any `json:"old_values"`
	NewValues        map[string]any `json:"new_values"`
	AdditionalData   map[string]any `json:"additional_data"`
	ResponseStatus   int            `json:"response_status"`
	ExecutionTimeMS  int64          `json:"execution_time_ms"`
}

// RecordActivity persists one admin activity for the authenticated session.
func (h *TrackingHandler) RecordActivity(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req activityRequest
	if !bindAndValidate(c, &req) {
		return
	}

	entry := services.ActivityEntry{
		AdminID:          session.AdminID,
		SessionID:        session.ID,
		ActivityType:     req.ActivityType,
		ActivityCategory: req.ActivityCategory,
		Description:      req.Description,
		TargetResource:   req.TargetResource,
		TargetID:         req.TargetID,
		OldValues:        req.OldValues,
		NewValues:        req.NewValues,
		AdditionalData:   req.AdditionalData,
		Client:           clientInfo(c),
		ResponseStatus:   req.ResponseStatus,
	}
	if req.ExecutionTimeMS > 0 {
		entry.ExecutionTime = millisToDuration(req.ExecutionTimeMS)
	}

	record, err := h.tracking.RecordActivity(requestContext(c), entry)
	if err != nil {
		response.Error(c, appErrors.NewBadRequest(err.Error()))
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"id": record.ID, "created_at": record.CreatedAt})
}

type pageVisitRequest struct {
	PageName         string `json:"page_name" validate:"required,max=128"`
	PageURL          string `json:"page_url" validate:"required,max=512"`
	VisitDuration    int64  `json:"visit_duration" validate:"min=0"`
	ReferrerURL      string `json:"referrer_url" validate:"max=512"`
	ScreenResolution string `json:"screen_resolution" validate:"max=16"`
	BrowserName      string `json:"browser_name" validate:"max=64"`
	BrowserVersion   string `json:"browser_version" validate:"max=32"`
	OSName           string `json:"os_name" validate:"max=64"`
	DeviceType       string `json:"device_type" validate:"max=16"`
}

// RecordPageVisit persists one page view for the authenticated session.
func (h *TrackingHandler) RecordPageVisit(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req pageVisitRequest
	if !bindAndValidate(c, &req) {
		return
	}

	visit, err := h.tracking.RecordPageVisit(requestContext(c), services.PageVisitEntry{
		AdminID:          session.AdminID,
		SessionID:        session.ID,
		PageName:         req.PageName,
		PageURL:          req.PageURL,
		VisitDuration:    req.VisitDuration,
		ReferrerURL:      req.ReferrerURL,
		ScreenResolution: req.ScreenResolution,
		BrowserName:      req.BrowserName,
		BrowserVersion:   req.BrowserVersion,
		OSName:           req.OSName,
		DeviceType:       req.DeviceType,
		Client:           clientInfo(c),
	})
	if err != nil {
		response.Error(c, appErrors.NewBadRequest(err.Error()))
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"id": visit.ID, "created_at": visit.CreatedAt})
}

type securityEventRequest struct {
	EventType        string         `json:"event_type" validate:"required,max=64"`
	EventSeverity    string         `json:"event_severity" validate:"required,severity"`
	EventDescription string         `json:"event_description" validate:"required,max=1024"`
	AdminID          string         `json:"admin_id" validate:"max=64"`
	AdditionalData   map[string]any `json:"additional_data"`
}

// RecordSecurityEvent persists one security event. No session is required:
// error hooks must be able to report before login. Attribution comes from
// the body admin_id, or the session token when one happens to be present.
func (h *TrackingHandler) RecordSecurityEvent(c *gin.Context) {
	var req securityEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	adminID := strings.TrimSpace(req.AdminID)
	if adminID == "" {
		if session, ok := currentSession(c); ok {
			adminID = session.AdminID
		} else if token := strings.TrimSpace(c.GetHeader(middleware.SessionHeader)); token != "" {
			if session, err := h.sessions.Validate(requestContext(c), token); err == nil {
				adminID = session.AdminID
			}
		}
	}
	var adminRef *string
	if adminID != "" {
		adminRef = &adminID
	}

	event, err := h.tracking.RecordSecurityEvent(requestContext(c), services.SecurityEventEntry{
		AdminID:        adminRef,
		EventType:      req.EventType,
		EventSeverity:  req.EventSeverity,
		Description:    req.EventDescription,
		AdditionalData: req.AdditionalData,
		Client:         clientInfo(c),
	})
	if err != nil {
		response.Error(c, appErrors.NewBadRequest(err.Error()))
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"id": event.ID, "created_at": event.CreatedAt})
}

func millisToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func (h *TrackingHandler) recordFailedLogin(c *gin.Context, username string, client services.ClientInfo) {
	_, err := h.tracking.RecordSecurityEvent(requestContext(c), services.SecurityEventEntry{
		EventType:     "FAILED_LOGIN",
		EventSeverity: models.SeverityMedium,
		Description:   "Failed login attempt for username " + strings.TrimSpace(username),
		AdditionalData: map[string]any{
			"username": strings.TrimSpace(username),
		},
		Client: client,
	})
	if err != nil {
		logger.WithModule("tracking").Warn("failed to record failed login event", zap.Error(err))
	}
}
