package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/services"
	"campusstay_echo/web/templates/pages"
	"campusstay_echo/web/templates/shared"
)

// CustomErrorHandler renders errors as an HTML page, or as JSON for API callers
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errorTitle := "Internal Server Error"
	errorMessage := ""

	var he *echo.HTTPError
	var appErr *services.AppError
	switch {
	case errors.As(err, &appErr):
		code = appErr.StatusCode()
		errorMessage = appErr.Message
	case errors.As(err, &he):
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" && msg != http.StatusText(code) {
			errorMessage = msg
		}
	}

	switch code {
	case http.StatusNotFound:
		errorTitle = "Page Not Found"
		if errorMessage == "" {
			errorMessage = "The page you're looking for doesn't exist."
		}
	case http.StatusForbidden:
		errorTitle = "Access Denied"
		if errorMessage == "" {
			errorMessage = "You don't have permission to access this resource."
		}
	case http.StatusUnauthorized:
		errorTitle = "Unauthorized"
		if errorMessage == "" {
			errorMessage = "Please log in to continue."
		}
	case http.StatusBadRequest:
		errorTitle = "Bad Request"
		if errorMessage == "" {
			errorMessage = "The request could not be processed."
		}
	default:
		if code >= 500 || errorMessage == "" {
			errorMessage = "Something went wrong. Please try again later."
		}
	}

	if code >= 500 {
		applog.Log.WithField("path", c.Request().URL.Path).Errorf("Request failed: %v", err)
	} else {
		applog.Log.WithField("path", c.Request().URL.Path).Debugf("Request rejected: %v", err)
	}

	if wantsJSON(c) {
		if jsonErr := c.JSON(code, map[string]interface{}{"success": false, "message": errorMessage}); jsonErr != nil {
			applog.Log.Errorf("Failed to write error response: %v", jsonErr)
		}
		return
	}

	props := pages.ErrorPageProps{
		Layout: shared.Layout{
			Title: errorTitle,
			Breadcrumbs: []shared.Breadcrumb{
				{Title: "Home", URL: "/"},
				{Title: "Error", URL: ""},
			},
			UserEmail: stringFromContext(c, "userEmail"),
			UserUID:   stringFromContext(c, "userUID"),
		},
		ErrorTitle:   errorTitle,
		ErrorMessage: errorMessage,
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)

	var renderErr error
	if isPublicPath(c.Request().URL.Path) {
		renderErr = pages.PublicErrorPage(props).Render(c.Request().Context(), c.Response())
	} else {
		renderErr = pages.ErrorPage(props).Render(c.Request().Context(), c.Response())
	}
	if renderErr != nil {
		applog.Log.Errorf("Failed to render error page: %v", renderErr)
	}
}

func isPublicPath(path string) bool {
	for _, prefix := range []string{"/login", "/auth", "/accounts", "/static"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// wantsJSON reports whether the caller is an API client rather than a browser page load
func wantsJSON(c echo.Context) bool {
	req := c.Request()
	if strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return true
	}
	return strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

func stringFromContext(c echo.Context, key string) string {
	s, _ := c.Get(key).(string)
	return s
}
