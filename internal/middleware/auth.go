package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"campusstay_echo/internal/access"
	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/models"
	"campusstay_echo/internal/services"
)

const sessionCookie = "session"

// PrincipalResolver maps a verified session to a platform account
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, id services.SessionIdentity) (*access.Principal, error)
}

// RequireAuth returns a middleware that verifies Firebase session cookies and
// resolves the caller's account
func RequireAuth(auth services.SessionAuthenticator, accounts PrincipalResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if auth == nil {
				return c.Redirect(http.StatusTemporaryRedirect, "/login?error=auth_not_configured")
			}

			cookie, err := c.Cookie(sessionCookie)
			if err != nil || cookie.Value == "" {
				return unauthenticated(c)
			}

			identity, err := auth.VerifySession(c.Request().Context(), cookie.Value)
			if err != nil {
				clearSession(c)
				return unauthenticated(c)
			}

			principal, err := accounts.ResolvePrincipal(c.Request().Context(), *identity)
			if err != nil {
				applog.Log.WithField("uid", identity.UID).Warnf("Session without usable account: %v", err)
				clearSession(c)
				return unauthenticated(c)
			}

			access.Set(c, principal)
			c.Set("userUID", identity.UID)
			c.Set("userEmail", principal.Email)
			c.Set("userName", principal.Name)

			return next(c)
		}
	}
}

// RequireRole rejects callers acting under none of the given roles
func RequireRole(roles ...models.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !access.FromContext(c).HasRole(roles...) {
				return echo.NewHTTPError(http.StatusForbidden)
			}
			return next(c)
		}
	}
}

// ClearSession expires the session cookie
func ClearSession(c echo.Context) {
	clearSession(c)
}

func clearSession(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})
}

// JSON callers get a 401 body, browsers are sent to the login page
func unauthenticated(c echo.Context) error {
	if wantsJSON(c) {
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"message": "Please log in to continue.",
		})
	}
	return c.Redirect(http.StatusTemporaryRedirect, "/login")
}
