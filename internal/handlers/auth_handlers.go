package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"campusstay_echo/internal/config"
	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/middleware"
	"campusstay_echo/internal/models"
	"campusstay_echo/internal/services"
	"campusstay_echo/web/templates/pages"
)

const sessionTTL = 5 * 24 * time.Hour

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth services.SessionAuthenticator
	cfg  *config.Config
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth services.SessionAuthenticator, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg}
}

// LoginPage renders the login page
func (h *AuthHandler) LoginPage(c echo.Context) error {
	props := pages.LoginProps{
		FirebaseAPIKey:     h.cfg.FirebaseAPIKey,
		FirebaseAuthDomain: h.cfg.FirebaseAuthDomain,
		FirebaseProjectID:  h.cfg.FirebaseProjectID,
	}
	if c.QueryParam("error") == "auth_not_configured" {
		props.Error = "Sign-in is not available right now."
	}
	return pages.Login(props).Render(c.Request().Context(), c.Response())
}

// HandleLogin exchanges a Firebase ID token for a session cookie
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	if h.auth == nil {
		return c.JSON(http.StatusInternalServerError, apiResponse{
			"success": false,
			"message": "Firebase not initialized",
		})
	}

	authHeader := c.Request().Header.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if authHeader == "" || tokenString == authHeader {
		return c.JSON(http.StatusUnauthorized, apiResponse{
			"success": false,
			"message": "Missing or invalid authorization header",
		})
	}

	cookieValue, err := h.auth.CreateSession(c.Request().Context(), tokenString, sessionTTL)
	if err != nil {
		applog.Log.Warnf("Login rejected: %v", err)
		return c.JSON(http.StatusUnauthorized, apiResponse{
			"success": false,
			"message": "Invalid token",
		})
	}

	c.SetCookie(&http.Cookie{
		Name:     "session",
		Value:    cookieValue,
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, apiResponse{"success": true})
}

// HandleLogout clears the session cookie
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	middleware.ClearSession(c)
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return c.JSON(http.StatusOK, apiResponse{"success": true})
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// Home sends the caller to the dashboard of their role
func Home(c echo.Context) error {
	p := principal(c)
	if p == nil {
		return c.Redirect(http.StatusTemporaryRedirect, "/login")
	}
	return c.Redirect(http.StatusTemporaryRedirect, dashboardPath(p.Role))
}

func dashboardPath(role models.UserRole) string {
	switch role {
	case models.RolePropertyOwner:
		return "/owner/dashboard"
	case models.RoleStudent:
		return "/student/dashboard"
	}
	return "/login"
}
