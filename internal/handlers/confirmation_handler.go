package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"campusstay_echo/internal/services"
	"campusstay_echo/web/templates/pages"
	"campusstay_echo/web/templates/shared"
)

type ConfirmationHandler struct {
	confirmations *services.ConfirmationService
	flashes       services.FlashStore
}

func NewConfirmationHandler(confirmations *services.ConfirmationService, flashes services.FlashStore) *ConfirmationHandler {
	return &ConfirmationHandler{confirmations: confirmations, flashes: flashes}
}

// Show renders the receipt for a reference. Anything that cannot be confirmed sends the
// caller back to their dashboard with the reason.
func (h *ConfirmationHandler) Show(c echo.Context) error {
	p := principal(c)
	ctx := c.Request().Context()

	confirmation, err := h.confirmations.Confirm(ctx, p, c.QueryParam("reference"))
	if err != nil {
		if p == nil {
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		addFlashes(ctx, h.flashes, p.UserID, services.FlashError, errorMessages(err)...)
		return c.Redirect(http.StatusSeeOther, dashboardPath(p.Role))
	}

	props := pages.PaymentConfirmationProps{
		Layout: layout(c, "Payment confirmed", "payments",
			shared.Breadcrumb{Title: "Dashboard", URL: dashboardPath(p.Role)},
			shared.Breadcrumb{Title: "Payment confirmation"},
		),
		Confirmation: confirmation,
	}
	return pages.PaymentConfirmation(props).Render(ctx, c.Response())
}
