package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"campusstay_echo/internal/access"
	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/services"
	"campusstay_echo/web/templates/shared"
)

// apiResponse is the JSON envelope used by every API route
type apiResponse map[string]interface{}

// respondError writes an error envelope with the status mirroring the error kind.
// Anything that is not an AppError is reported as a generic server error.
func respondError(c echo.Context, err error) error {
	var appErr *services.AppError
	if !errors.As(err, &appErr) {
		applog.Log.WithField("path", c.Path()).Errorf("Unhandled error: %v", err)
		return c.JSON(http.StatusInternalServerError, apiResponse{
			"success": false,
			"message": "Something went wrong. Please try again later.",
		})
	}

	if appErr.StatusCode() >= http.StatusInternalServerError {
		applog.Log.WithField("path", c.Path()).WithField("code", appErr.Code).Errorf("Request failed: %v", appErr)
	}

	body := apiResponse{
		"success": false,
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	return c.JSON(appErr.StatusCode(), body)
}

// errorMessages returns user-facing lines for a flash
func errorMessages(err error) []string {
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		return appErr.Messages()
	}
	return []string{"Something went wrong. Please try again later."}
}

func principal(c echo.Context) *access.Principal {
	return access.FromContext(c)
}

func layout(c echo.Context, title, nav string, crumbs ...shared.Breadcrumb) shared.Layout {
	return shared.Layout{
		Title:       title,
		ActiveNav:   nav,
		Breadcrumbs: append([]shared.Breadcrumb{{Title: "Home", URL: "/"}}, crumbs...),
		UserEmail:   getStringFromContext(c, "userEmail"),
		UserUID:     getStringFromContext(c, "userUID"),
	}
}

// addFlashes stores one flash per message; store failures are logged and otherwise ignored
func addFlashes(ctx context.Context, store services.FlashStore, userID uint, level services.FlashLevel, msgs ...string) {
	for _, m := range msgs {
		if err := store.Add(ctx, userID, services.Flash{Level: level, Message: m}); err != nil {
			applog.Log.Warnf("Failed to store flash for user %d: %v", userID, err)
			return
		}
	}
}

func popFlashes(ctx context.Context, store services.FlashStore, userID uint) []shared.FlashMessage {
	flashes, err := store.Pop(ctx, userID)
	if err != nil {
		applog.Log.Warnf("Failed to read flashes for user %d: %v", userID, err)
		return nil
	}
	out := make([]shared.FlashMessage, 0, len(flashes))
	for _, f := range flashes {
		out = append(out, shared.FlashMessage{Level: string(f.Level), Message: f.Message})
	}
	return out
}

// Helper to safely get string from context
func getStringFromContext(c echo.Context, key string) string {
	val := c.Get(key)
	if val == nil {
		return ""
	}
	strVal, ok := val.(string)
	if !ok {
		return ""
	}
	return strVal
}
