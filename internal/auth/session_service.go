package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ecowaste/admintrack/internal/models"
	"github.com/ecowaste/admintrack/pkg/crypto"
	"github.com/ecowaste/admintrack/pkg/metrics"
)

// DefaultSessionMaxAge is the fallback lifetime for tracking sessions.
const DefaultSessionMaxAge = 24 * time.Hour

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	TokenLength int
	MaxAge      time.Duration
	Clock       func() time.Time
	Cache       SessionCache
}

// SessionMetadata captures contextual information about the client.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
}

var (
	// ErrSessionNotFound indicates that no session matches the provided token or identifier.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionInactive marks a session that has been closed or expired.
	ErrSessionInactive = errors.New("session: inactive")
	// ErrAdminNotFound indicates the referenced admin account does not exist.
	ErrAdminNotFound = errors.New("session: admin not found")
)

var errSessionCacheMiss = errors.New("session cache miss")

// SessionCache represents a cache backend for session objects keyed by session token.
type SessionCache interface {
	Get(ctx context.Context, token string) (*models.AdminSession, error)
	Set(ctx context.Context, session *models.AdminSession, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

// SessionService manages creation, validation, and closure of tracking sessions.
type SessionService struct {
	db       *gorm.DB
	tokenLen int
	maxAge   time.Duration
	now      func() time.Time
	cache    SessionCache
}

// NewSessionService constructs a session manager backed by the provided database.
func NewSessionService(db *gorm.DB, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}

	length := cfg.TokenLength
	if length <= 0 {
		length = 32
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{
		db:       db,
		tokenLen: length,
		maxAge:   maxAge,
		now:      clock,
		cache:    cfg.Cache,
	}, nil
}

// Start opens a tracking session for the supplied admin and returns it with
// a fresh opaque token.
func (s *SessionService) Start(ctx context.Context, adminID string, meta SessionMetadata) (*models.AdminSession, error) {
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return nil, errors.New("session service: admin id is required")
	}

	var admin models.Admin
	if err := s.db.WithContext(ctx).Take(&admin, "id = ?", adminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("session service: lookup admin: %w", err)
	}

	token, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return nil, fmt.Errorf("session service: generate token: %w", err)
	}

	session := &models.AdminSession{
		AdminID:      admin.ID,
		SessionToken: token,
		IPAddress:    strings.TrimSpace(meta.IPAddress),
		UserAgent:    strings.TrimSpace(meta.UserAgent),
		LoginTime:    s.now(),
		IsActive:     true,
	}

	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("session service: create session: %w", err)
	}

	metrics.ActiveSessions.Inc()

	if s.cache != nil {
		session.Admin = &admin
		_ = s.cache.Set(ctx, session, s.maxAge)
	}

	return session, nil
}

// Validate resolves a session token to its active session. Sessions older
// than the configured max age are treated as expired and deactivated.
func (s *SessionService) Validate(ctx context.Context, token string) (*models.AdminSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionNotFound
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, token); err == nil && cached != nil {
			if cached.IsActive && !s.expired(cached) {
				return cached, nil
			}
		}
	}

	var session models.AdminSession
	err := s.db.WithContext(ctx).
		Preload("Admin").
		Take(&session, "session_token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session service: lookup session: %w", err)
	}

	if !session.IsActive {
		return nil, ErrSessionInactive
	}

	if s.expired(&session) {
		_, _ = s.Close(ctx, session.ID, session.AdminID)
		return nil, ErrSessionInactive
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, &session, time.Until(session.LoginTime.Add(s.maxAge)))
	}

	return &session, nil
}

// Close terminates the session, computing its duration in seconds. Closing
// an already-closed session is a no-op that returns the stored session.
func (s *SessionService) Close(ctx context.Context, sessionID, adminID string) (*models.AdminSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	adminID = strings.TrimSpace(adminID)
	if sessionID == "" || adminID == "" {
		return nil, errors.New("session service: session id and admin id are required")
	}

	var session models.AdminSession
	err := s.db.WithContext(ctx).
		Take(&session, "id = ? AND admin_id = ?", sessionID, adminID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session service: lookup session: %w", err)
	}

	if !session.IsActive {
		return &session, nil
	}

	now := s.now()
	session.LogoutTime = &now
	session.SessionDuration = int64(now.Sub(session.LoginTime).Seconds())
	session.IsActive = false

	if err := s.db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Where("id = ?", session.ID).
		Updates(map[string]any{
			"logout_time":      session.LogoutTime,
			"session_duration": session.SessionDuration,
			"is_active":        false,
		}).Error; err != nil {
		return nil, fmt.Errorf("session service: close session: %w", err)
	}

	metrics.ActiveSessions.Dec()

	if s.cache != nil {
		_ = s.cache.Delete(ctx, session.SessionToken)
	}

	return &session, nil
}

// CloseExpired deactivates active sessions whose login time predates the
// configured max age, assigning their duration. Used by maintenance jobs.
func (s *SessionService) CloseExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.maxAge)

	var stale []models.AdminSession
	if err := s.db.WithContext(ctx).
		Where("is_active = ? AND login_time < ?", true, cutoff).
		Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("session service: find expired sessions: %w", err)
	}

	for i := range stale {
		if _, err := s.Close(ctx, stale[i].ID, stale[i].AdminID); err != nil {
			return int64(i), err
		}
	}

	return int64(len(stale)), nil
}

func (s *SessionService) expired(session *models.AdminSession) bool {
	return s.now().After(session.LoginTime.Add(s.maxAge))
}
