package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/models"
	"campusstay_echo/web/templates/pages"
)

type UserPreferenceHandler struct {
	DB *gorm.DB
}

func NewUserPreferenceHandler(db *gorm.DB) *UserPreferenceHandler {
	return &UserPreferenceHandler{DB: db}
}

// GetUserPreference returns the caller's notification preference form for HTMX
func (h *UserPreferenceHandler) GetUserPreference(c echo.Context) error {
	p := principal(c)
	db := h.DB.WithContext(c.Request().Context())

	pref := models.DefaultNotifPreference(p.UserID)
	err := db.Where("user_id = ?", p.UserID).First(&pref).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		applog.Log.Errorf("DB Error fetching preference for user %d: %v", p.UserID, err)
		return c.String(http.StatusInternalServerError, "Error fetching preference")
	}

	var user models.User
	if err := db.First(&user, p.UserID).Error; err != nil {
		return c.String(http.StatusNotFound, "User not found")
	}

	return pages.UserPreferencePopup(user, pref).Render(c.Request().Context(), c.Response())
}

// UpdateUserPreference handles the form submission
func (h *UserPreferenceHandler) UpdateUserPreference(c echo.Context) error {
	p := principal(c)
	db := h.DB.WithContext(c.Request().Context())

	channel := models.NotificationChannel(c.FormValue("channel"))
	switch channel {
	case models.NotificationChannelEmail, models.NotificationChannelWhatsapp, models.NotificationChannelSMS, models.NotificationChannelNone:
	default:
		return c.String(http.StatusBadRequest, "Unknown notification channel")
	}
	waTarget := c.FormValue("whatsapp_target_type")
	if waTarget != models.WhatsappTargetTypeGroup {
		waTarget = models.WhatsappTargetTypePersonal
	}

	var pref models.UserNotifPreference
	err := db.Where("user_id = ?", p.UserID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pref = models.UserNotifPreference{UserID: p.UserID}
	} else if err != nil {
		return c.String(http.StatusInternalServerError, "Database error")
	}

	pref.Channel = channel
	pref.WhatsappTargetType = waTarget
	pref.WhatsappGroupID = c.FormValue("whatsapp_group_id")

	if err := db.Save(&pref).Error; err != nil {
		applog.Log.Errorf("Failed to save preference for user %d: %v", p.UserID, err)
		return c.String(http.StatusInternalServerError, "Failed to save preference")
	}

	return pages.UserPreferenceSuccess().Render(c.Request().Context(), c.Response())
}
