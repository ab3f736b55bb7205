package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/ecowaste/admintrack/internal/auth"
	"github.com/ecowaste/admintrack/pkg/errors"
	"github.com/ecowaste/admintrack/pkg/response"
)

const (
	// SessionHeader carries the tracking session token.
	SessionHeader = "X-Admin-Session"
	// DashboardCookie carries the dashboard JWT for browser sessions.
	DashboardCookie = "admintrack_token"

	CtxAdminIDKey   = "adminID"
	CtxSessionKey   = "trackingSession"
	CtxSessionIDKey = "sessionID"
	CtxClaimsKey    = "authClaims"
)

// TrackingAuth resolves the X-Admin-Session token into an active session and
// puts the admin identity on the request context.
func TrackingAuth(sessions *iauth.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(SessionHeader))
		if token == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		session, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, errors.ErrSessionInvalid)
			c.Abort()
			return
		}

		c.Set(CtxSessionKey, session)
		c.Set(CtxSessionIDKey, session.ID)
		c.Set(CtxAdminIDKey, session.AdminID)

		c.Next()
	}
}

// DashboardAuth enforces JWT authentication for the reporting UI. The token
// is taken from the Authorization header or the dashboard cookie; browser
// requests without one are redirected to the login page instead of getting
// a JSON 401.
func DashboardAuth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(DashboardCookie); err == nil {
				token = cookie
			}
		}

		if token == "" {
			rejectDashboard(c)
			return
		}

		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			rejectDashboard(c)
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxAdminIDKey, claims.AdminID)

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[7:])
}

func rejectDashboard(c *gin.Context) {
	if acceptsHTML(c) {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	response.Error(c, errors.ErrUnauthorized)
	c.Abort()
}

func acceptsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
