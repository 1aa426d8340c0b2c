package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"campusstay_echo/internal/services"
)

type BookingHandler struct {
	bookings *services.BookingService
}

func NewBookingHandler(bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// RecordCashPayment books a room for a student who paid the owner in cash
func (h *BookingHandler) RecordCashPayment(c echo.Context) error {
	var in services.CashPaymentInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{"success": false, "message": "Invalid form submission"})
	}

	result, err := h.bookings.RecordCashPayment(c.Request().Context(), principal(c), in)
	if err != nil {
		return respondError(c, err)
	}

	message := "Cash payment recorded and booking confirmed."
	if result.StudentInvited {
		message += " The student has been invited to activate their account."
	}
	return c.JSON(http.StatusCreated, apiResponse{
		"success":         true,
		"message":         message,
		"booking":         result.Booking,
		"payment":         result.Payment,
		"room_details":    result.Room,
		"student_invited": result.StudentInvited,
	})
}
