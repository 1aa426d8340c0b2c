package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"campusstay_echo/internal/services"
	"campusstay_echo/web/templates/pages"
)

type AccountHandler struct {
	accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type activationRequest struct {
	Token    string `json:"token" form:"token"`
	Password string `json:"password" form:"password"`
}

// ActivatePage renders the set-password form linked from the invite
func (h *AccountHandler) ActivatePage(c echo.Context) error {
	return pages.Activate(pages.ActivateProps{Token: c.QueryParam("token")}).Render(c.Request().Context(), c.Response())
}

// Activate turns an invited student into an active account. JSON callers get the
// API envelope; the HTML form is re-rendered on error or sent to login on success.
func (h *AccountHandler) Activate(c echo.Context) error {
	var req activationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{"success": false, "message": "Invalid request body."})
	}

	user, err := h.accounts.ActivateInvitedStudent(c.Request().Context(), req.Token, req.Password)
	isJSON := strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	if err != nil {
		if isJSON {
			return respondError(c, err)
		}
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
		c.Response().WriteHeader(statusOf(err))
		return pages.Activate(pages.ActivateProps{Token: req.Token, Error: errorMessages(err)[0]}).Render(c.Request().Context(), c.Response())
	}

	if isJSON {
		return c.JSON(http.StatusOK, apiResponse{
			"success": true,
			"message": "Account activated. You can now log in.",
			"email":   user.Email,
		})
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

func statusOf(err error) int {
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}
	return http.StatusInternalServerError
}
