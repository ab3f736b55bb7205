package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/ecowaste/admintrack/internal/auth"
	"github.com/ecowaste/admintrack/internal/middleware"
	"github.com/ecowaste/admintrack/internal/models"
	"github.com/ecowaste/admintrack/pkg/crypto"
	appErrors "github.com/ecowaste/admintrack/pkg/errors"
	"github.com/ecowaste/admintrack/pkg/response"
)

// AuthHandler issues dashboard JWTs for the reports UI.
type AuthHandler struct {
	db  *gorm.DB
	jwt *iauth.JWTService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService) (*AuthHandler, error) {
	if db == nil || jwt == nil {
		return nil, errors.New("auth handler: db and jwt service are required")
	}
	return &AuthHandler{db: db, jwt: jwt}, nil
}

type dashboardLoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

// Login authenticates an admin and returns a dashboard access token. The
// token is also set as a cookie so browser navigation works without a
// client-side token store.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dashboardLoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var admin models.Admin
	err := h.db.WithContext(requestContext(c)).
		Take(&admin, "username = ? AND is_active = ?", strings.TrimSpace(req.Username), true).Error
	if err != nil || !crypto.VerifyPassword(req.Password, admin.Password) {
		response.Error(c, appErrors.ErrInvalidCredentials)
		return
	}

	token, err := h.jwt.GenerateAccessToken(admin.ID, admin.Username)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.DashboardCookie, token, int(h.jwt.AccessTokenTTL().Seconds()), "/", "", false, true)

	response.Success(c, http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(h.jwt.AccessTokenTTL().Seconds()),
		"admin": gin.H{
			"id":           admin.ID,
			"username":     admin.Username,
			"display_name": admin.DisplayName,
		},
	})
}

// LoginPage serves a minimal login form for the reports UI.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loginPage))
}

const loginPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Sign in</title></head>
<body>
  <h1>Sign in</h1>
  <form method="post" action="/login" onsubmit="return submitLogin(event)">
    <label>Username <input name="username" autocomplete="username"></label>
    <label>Password <input name="password" type="password" autocomplete="current-password"></label>
    <button type="submit">Sign in</button>
  </form>
  <script>
    async function submitLogin(event) {
      event.preventDefault();
      const form = event.target;
      const resp = await fetch('/login', {
        method: 'POST',
        headers: {'Content-Type': 'application/json'},
        body: JSON.stringify({username: form.username.value, password: form.password.value})
      });
      if (resp.ok) { window.location = '/reports?format=html'; }
      return false;
    }
  </script>
</body>
</html>
`
