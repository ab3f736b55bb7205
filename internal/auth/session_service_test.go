package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ecowaste/admintrack/internal/database/testutil"
	"github.com/ecowaste/admintrack/internal/models"
)

func TestSessionLifecycle(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	admin := models.Admin{Username: "ops", DisplayName: "Ops Admin", Password: "x"}
	require.NoError(t, db.Create(&admin).Error)

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	current := base
	svc, err := NewSessionService(db, SessionConfig{Clock: func() time.Time { return current }})
	require.NoError(t, err)

	ctx := context.Background()

	session, err := svc.Start(ctx, admin.ID, SessionMetadata{IPAddress: "10.0.0.1", UserAgent: "collector"})
	require.NoError(t, err)
	require.NotEmpty(t, session.SessionToken)
	require.True(t, session.IsActive)

	validated, err := svc.Validate(ctx, session.SessionToken)
	require.NoError(t, err)
	require.Equal(t, admin.ID, validated.AdminID)
	require.NotNil(t, validated.Admin)
	require.Equal(t, "ops", validated.Admin.Username)

	// Close after 90 minutes; the duration is computed from login time.
	current = base.Add(90 * time.Minute)
	closed, err := svc.Close(ctx, session.ID, admin.ID)
	require.NoError(t, err)
	require.False(t, closed.IsActive)
	require.NotNil(t, closed.LogoutTime)
	require.Equal(t, int64(90*60), closed.SessionDuration)

	_, err = svc.Validate(ctx, session.SessionToken)
	require.ErrorIs(t, err, ErrSessionInactive)
}

func TestSessionStartUnknownAdmin(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewSessionService(db, SessionConfig{})
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), "00000000-0000-0000-0000-000000000000", SessionMetadata{})
	require.ErrorIs(t, err, ErrAdminNotFound)
}

func TestSessionCloseUnknown(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewSessionService(db, SessionConfig{})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), "missing", "missing")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionValidateExpired(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	admin := models.Admin{Username: "sleepy", Password: "x"}
	require.NoError(t, db.Create(&admin).Error)

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	current := base
	svc, err := NewSessionService(db, SessionConfig{
		MaxAge: time.Hour,
		Clock:  func() time.Time { return current },
	})
	require.NoError(t, err)

	ctx := context.Background()
	session, err := svc.Start(ctx, admin.ID, SessionMetadata{})
	require.NoError(t, err)

	current = base.Add(2 * time.Hour)
	_, err = svc.Validate(ctx, session.SessionToken)
	require.ErrorIs(t, err, ErrSessionInactive)

	// Expiry closes the session and records its duration.
	var stored models.AdminSession
	require.NoError(t, db.Take(&stored, "id = ?", session.ID).Error)
	require.False(t, stored.IsActive)
	require.NotNil(t, stored.LogoutTime)
}

func TestJWTIssueAndValidate(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, err := NewJWTService(JWTConfig{
		Secret: "test-secret",
		Issuer: "admintrack",
		Clock:  func() time.Time { return now },
	})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken("admin-1", "ops")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "admin-1", claims.AdminID)
	require.Equal(t, "ops", claims.Username)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, err := NewJWTService(JWTConfig{
		Secret:         "test-secret",
		AccessTokenTTL: time.Minute,
		Clock:          func() time.Time { return now },
	})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken("admin-1", "ops")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
}
