package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"campusstay_echo/internal/models"
	"campusstay_echo/internal/services"
)

const maxVerifyBody = 64 << 10

type LevyHandler struct {
	levy      *services.LevyService
	publicKey string
}

func NewLevyHandler(levy *services.LevyService, publicKey string) *LevyHandler {
	return &LevyHandler{levy: levy, publicKey: publicKey}
}

// BuildIntent prices every room that needs a levy, optionally within one property
func (h *LevyHandler) BuildIntent(c echo.Context) error {
	var propertyID *uint
	if raw := c.FormValue("property_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, apiResponse{"success": false, "message": "Invalid property"})
		}
		v := uint(id)
		propertyID = &v
	}

	intent, err := h.levy.BuildIntent(c.Request().Context(), principal(c), propertyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, apiResponse{
		"success":       true,
		"reference":     intent.Reference,
		"amount":        intent.Amount,
		"amount_minor":  models.MinorUnits(intent.Amount),
		"currency":      intent.Currency,
		"room_ids":      intent.RoomIDs,
		"pending_rooms": intent.PendingRooms,
		"expired_rooms": intent.ExpiredRooms,
		"expires_at":    intent.ExpiresAt,
	})
}

// GetIntent returns what the checkout widget needs to open a payment
func (h *LevyHandler) GetIntent(c echo.Context) error {
	view, err := h.levy.GetIntent(c.Request().Context(), principal(c), c.Param("reference"))
	if err != nil {
		return respondError(c, err)
	}

	rooms := make([]apiResponse, 0, len(view.Rooms))
	for _, r := range view.Rooms {
		rooms = append(rooms, apiResponse{
			"id":                  r.ID,
			"room_number":         r.RoomNumber,
			"levy_payment_status": r.LevyPaymentStatus,
		})
	}
	return c.JSON(http.StatusOK, apiResponse{
		"success":       true,
		"reference":     view.Intent.Reference,
		"amount":        view.Intent.Amount,
		"amount_minor":  view.AmountMinor,
		"currency":      view.Intent.Currency,
		"public_key":    h.publicKey,
		"email":         principal(c).Email,
		"status":        view.Intent.Status,
		"expires_at":    view.Intent.ExpiresAt,
		"pending_rooms": view.Intent.PendingRooms,
		"expired_rooms": view.Intent.ExpiredRooms,
		"rooms":         rooms,
	})
}

// Verify confirms a completed checkout with the gateway and activates the intent's rooms
func (h *LevyHandler) Verify(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxVerifyBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{"success": false, "message": "Invalid request body."})
	}

	req, err := services.ParseVerifyRequest(body)
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.levy.VerifyPayment(c.Request().Context(), principal(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{
		"success":       true,
		"message":       "Payment verified. Your rooms are now listed.",
		"reference":     result.Reference,
		"payment_id":    result.PaymentID,
		"updated_rooms": result.UpdatedRooms,
		"pending_rooms": result.PendingRooms,
		"expired_rooms": result.ExpiredRooms,
	})
}
