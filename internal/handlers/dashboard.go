package handlers

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"campusstay_echo/internal/models"
	"campusstay_echo/internal/services"
	"campusstay_echo/web/templates/pages"
	"campusstay_echo/web/templates/shared"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	db      *gorm.DB
	flashes services.FlashStore
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(db *gorm.DB, flashes services.FlashStore) *DashboardHandler {
	return &DashboardHandler{db: db, flashes: flashes}
}

// OwnerDashboard renders the owner's properties, rooms and verification state
func (h *DashboardHandler) OwnerDashboard(c echo.Context) error {
	p := principal(c)
	ctx := c.Request().Context()
	db := h.db.WithContext(ctx)

	var properties []models.Property
	if err := db.Where("owner_id = ?", p.UserID).
		Preload("Rooms", func(tx *gorm.DB) *gorm.DB { return tx.Order("room_number") }).
		Order("name").
		Find(&properties).Error; err != nil {
		return err
	}

	props := pages.OwnerDashboardProps{
		Layout:     layout(c, "Dashboard", "dashboard", shared.Breadcrumb{Title: "Dashboard"}),
		Properties: properties,
	}

	now := time.Now().UTC()
	for _, prop := range properties {
		for _, room := range prop.Rooms {
			if room.LevyDue(now) {
				props.LevyDue++
			}
		}
	}

	var bundle models.OwnerDocumentBundle
	err := db.Where("owner_id = ?", p.UserID).First(&bundle).Error
	switch {
	case err == nil:
		props.Documents = &bundle
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	props.Flashes = popFlashes(ctx, h.flashes, p.UserID)
	return pages.OwnerDashboard(props).Render(ctx, c.Response())
}

// StudentDashboard renders the student's bookings and shared agreements
func (h *DashboardHandler) StudentDashboard(c echo.Context) error {
	p := principal(c)
	ctx := c.Request().Context()
	db := h.db.WithContext(ctx)

	var bookings []models.Booking
	if err := db.Where("student_id = ?", p.UserID).
		Preload("Property").Preload("Room").
		Order("start_date DESC").
		Find(&bookings).Error; err != nil {
		return err
	}

	var agreements []models.TenancyAgreement
	granted := db.Model(&models.StudentAgreementAccess{}).Select("agreement_id").Where("student_id = ?", p.UserID)
	if err := db.Where("id IN (?)", granted).
		Preload("Property").
		Order("created_at DESC").
		Find(&agreements).Error; err != nil {
		return err
	}

	props := pages.StudentDashboardProps{
		Layout:     layout(c, "My bookings", "dashboard", shared.Breadcrumb{Title: "Bookings"}),
		Bookings:   bookings,
		Agreements: agreements,
	}
	props.Flashes = popFlashes(ctx, h.flashes, p.UserID)
	return pages.StudentDashboard(props).Render(ctx, c.Response())
}
