package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"campusstay_echo/internal/access"
	"campusstay_echo/internal/models"
	"campusstay_echo/internal/services"
)

type fakeSessions struct {
	identity *services.SessionIdentity
	err      error
}

func (f *fakeSessions) VerifySession(context.Context, string) (*services.SessionIdentity, error) {
	return f.identity, f.err
}

func (f *fakeSessions) CreateSession(context.Context, string, time.Duration) (string, error) {
	return "cookie", nil
}

type fakeResolver struct {
	principal *access.Principal
	err       error
}

func (f *fakeResolver) ResolvePrincipal(context.Context, services.SessionIdentity) (*access.Principal, error) {
	return f.principal, f.err
}

func serve(mw []echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, *access.Principal) {
	e := echo.New()
	var seen *access.Principal
	e.GET("/owner/dashboard", func(c echo.Context) error {
		seen = access.FromContext(c)
		return c.String(http.StatusOK, "ok")
	}, mw...)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func sessionRequest() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/owner/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "abc"})
	return req
}

func TestRequireAuth_SetsPrincipal(t *testing.T) {
	owner := &access.Principal{UserID: 7, Email: "owner@example.com", Role: models.RolePropertyOwner}
	mw := RequireAuth(
		&fakeSessions{identity: &services.SessionIdentity{UID: "uid-7", Email: "owner@example.com"}},
		&fakeResolver{principal: owner},
	)

	rec, seen := serve([]echo.MiddlewareFunc{mw}, sessionRequest())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, owner, seen)
}

func TestRequireAuth_MissingCookieRedirects(t *testing.T) {
	mw := RequireAuth(&fakeSessions{}, &fakeResolver{})
	req := httptest.NewRequest(http.MethodGet, "/owner/dashboard", nil)

	rec, seen := serve([]echo.MiddlewareFunc{mw}, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	assert.Nil(t, seen)
}

func TestRequireAuth_JSONCallersGet401(t *testing.T) {
	mw := RequireAuth(&fakeSessions{err: errors.New("revoked")}, &fakeResolver{})
	req := sessionRequest()
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)

	rec, _ := serve([]echo.MiddlewareFunc{mw}, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestRequireAuth_UnknownAccount(t *testing.T) {
	mw := RequireAuth(
		&fakeSessions{identity: &services.SessionIdentity{UID: "ghost"}},
		&fakeResolver{err: errors.New("no account")},
	)

	rec, seen := serve([]echo.MiddlewareFunc{mw}, sessionRequest())

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Nil(t, seen)
}

func TestRequireRole(t *testing.T) {
	student := &access.Principal{UserID: 9, Role: models.RoleStudent}
	auth := RequireAuth(
		&fakeSessions{identity: &services.SessionIdentity{UID: "uid-9"}},
		&fakeResolver{principal: student},
	)

	rec, _ := serve([]echo.MiddlewareFunc{auth, RequireRole(models.RolePropertyOwner)}, sessionRequest())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = serve([]echo.MiddlewareFunc{auth, RequireRole(models.RolePropertyOwner, models.RoleStudent)}, sessionRequest())
	assert.Equal(t, http.StatusOK, rec.Code)
}
