package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"campusstay_echo/internal/services"
)

type RoomHandler struct {
	rooms   *services.RoomService
	flashes services.FlashStore
}

func NewRoomHandler(rooms *services.RoomService, flashes services.FlashStore) *RoomHandler {
	return &RoomHandler{rooms: rooms, flashes: flashes}
}

// RegisterRoom adds a room from the dashboard form and redirects back with the outcome
func (h *RoomHandler) RegisterRoom(c echo.Context) error {
	p := principal(c)
	ctx := c.Request().Context()

	var in services.RegisterRoomInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission")
	}

	result, err := h.rooms.RegisterRoom(ctx, p, in)
	if err != nil {
		addFlashes(ctx, h.flashes, p.UserID, services.FlashError, errorMessages(err)...)
		return c.Redirect(http.StatusSeeOther, "/owner/dashboard")
	}

	addFlashes(ctx, h.flashes, p.UserID, services.FlashSuccess, fmt.Sprintf(
		"Room %s added. Pay the %s %s levy with reference %s to list it.",
		result.Room.RoomNumber, result.Intent.Currency, result.Intent.Amount.StringFixed(2), result.Intent.Reference,
	))
	return c.Redirect(http.StatusSeeOther, "/owner/dashboard")
}
