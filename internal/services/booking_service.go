package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusstay_echo/internal/access"
	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/models"
)

const dateLayout = "2006-01-02"

// CashPaymentInput is the owner's form for a booking paid in cash
type CashPaymentInput struct {
	PropertyID     string `form:"property_id" validate:"required"`
	StudentName    string `form:"student_name" validate:"required,max=255"`
	StudentEmail   string `form:"student_email" validate:"required,email"`
	StudentPhone   string `form:"student_phone" validate:"required,max=50"`
	StudentNumber  string `form:"student_id" validate:"max=100"`
	RoomID         string `form:"room_id" validate:"required"`
	Amount         string `form:"amount" validate:"required"`
	StartDate      string `form:"start_date" validate:"required"`
	DurationMonths string `form:"duration_months" validate:"required"`
	TenantLocation string `form:"tenant_location" validate:"max=255"`
}

type cashPayment struct {
	propertyID uint
	roomID     uint
	amount     decimal.Decimal
	start      time.Time
	months     int
	email      string
}

// RoomDetails is the room state after a booking was recorded
type RoomDetails struct {
	ID               uint              `json:"id"`
	RoomNumber       string            `json:"room_number"`
	Capacity         int               `json:"capacity"`
	CurrentOccupancy int               `json:"current_occupancy"`
	Status           models.RoomStatus `json:"status"`
}

type CashPaymentResult struct {
	Booking        models.Booking `json:"booking"`
	Payment        models.Payment `json:"payment"`
	Room           RoomDetails    `json:"room_details"`
	StudentInvited bool           `json:"student_invited"`
}

type BookingService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBookingService(db *gorm.DB) *BookingService {
	return &BookingService{db: db, now: utcNow}
}

// EndDate is start plus the booked number of calendar months
func EndDate(start time.Time, months int) time.Time {
	return start.AddDate(0, months, 0)
}

func (s *BookingService) parseCashPayment(in CashPaymentInput, today time.Time) (cashPayment, error) {
	errs := ValidationErrors{}
	validateStruct(in, errs)

	out := cashPayment{email: strings.ToLower(strings.TrimSpace(in.StudentEmail))}
	if in.PropertyID != "" {
		id, err := strconv.ParseUint(strings.TrimSpace(in.PropertyID), 10, 64)
		if err != nil || id == 0 {
			errs.Add("property_id", "Invalid property")
		}
		out.propertyID = uint(id)
	}
	if in.RoomID != "" {
		id, err := strconv.ParseUint(strings.TrimSpace(in.RoomID), 10, 64)
		if err != nil || id == 0 {
			errs.Add("room_id", "Invalid room")
		}
		out.roomID = uint(id)
	}
	if in.Amount != "" {
		amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
		if err != nil || !amount.IsPositive() {
			errs.Add("amount", "Amount must be greater than zero")
		}
		out.amount = amount
	}
	if in.DurationMonths != "" {
		months, err := strconv.Atoi(strings.TrimSpace(in.DurationMonths))
		if err != nil || !slices.Contains(models.BookingDurations, months) {
			errs.Add("duration_months", "Duration must be 1, 3, 6, 9 or 12 months")
		}
		out.months = months
	}
	if in.StartDate != "" {
		start, err := time.Parse(dateLayout, strings.TrimSpace(in.StartDate))
		switch {
		case err != nil:
			errs.Add("start_date", "Start date must be in YYYY-MM-DD format")
		case start.Before(today):
			errs.Add("start_date", "Start date cannot be in the past")
		}
		out.start = start
	}
	return out, errs.Err()
}

// RecordCashPayment books a room for a student who paid the owner directly. The room row
// is locked while occupancy is checked and incremented.
func (s *BookingService) RecordCashPayment(ctx context.Context, p *access.Principal, in CashPaymentInput) (*CashPaymentResult, error) {
	if p == nil {
		return nil, newError(KindUnauthenticated, "unauthenticated", "Please log in to continue.")
	}
	if !p.HasRole(models.RolePropertyOwner) {
		return nil, newError(KindAuthorization, "forbidden", "Only property owners can record cash payments.")
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	form, err := s.parseCashPayment(in, today)
	if err != nil {
		return nil, err
	}

	var result CashPaymentResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.Room
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Joins("JOIN properties ON properties.id = rooms.property_id AND properties.deleted_at IS NULL").
			Where("rooms.id = ? AND rooms.property_id = ? AND properties.owner_id = ?", form.roomID, form.propertyID, p.UserID).
			First(&room).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "room_not_found", "Room not found in your property.")
		}
		if err != nil {
			return err
		}
		if room.CurrentOccupancy >= room.Capacity {
			return newError(KindConflict, "room_full", "Room is already at full capacity.")
		}
		if room.Status != models.RoomStatusAvailable {
			return newError(KindConflict, "room_unavailable", "Room is not available for booking.")
		}

		student, invited, err := s.upsertStudent(tx, in, form.email)
		if err != nil {
			return err
		}

		booking := models.Booking{
			StudentID:      student.ID,
			PropertyID:     form.propertyID,
			RoomID:         room.ID,
			StartDate:      form.start,
			EndDate:        EndDate(form.start, form.months),
			DurationMonths: form.months,
			Amount:         form.amount,
			Status:         models.BookingStatusPaid,
			PaymentMethod:  models.PaymentGatewayCash,
			TenantLocation: strings.TrimSpace(in.TenantLocation),
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		room.CurrentOccupancy++
		if room.CurrentOccupancy >= room.Capacity {
			room.Status = models.RoomStatusOccupied
		}
		if err := tx.Model(&room).Updates(map[string]interface{}{
			"current_occupancy": room.CurrentOccupancy,
			"status":            room.Status,
		}).Error; err != nil {
			return err
		}

		payment := models.Payment{
			BookingID:     booking.ID,
			StudentID:     student.ID,
			Amount:        form.amount,
			Status:        models.PaymentStatusCompleted,
			Method:        models.PaymentGatewayCash,
			TransactionID: fmt.Sprintf("CASH_%d_%d", now.Unix(), booking.ID),
			PaidAt:        now,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		if err := s.queueBookingNotifications(tx, p.UserID, student, room, booking, invited, now); err != nil {
			return err
		}

		result = CashPaymentResult{
			Booking: booking,
			Payment: payment,
			Room: RoomDetails{
				ID:               room.ID,
				RoomNumber:       room.RoomNumber,
				Capacity:         room.Capacity,
				CurrentOccupancy: room.CurrentOccupancy,
				Status:           room.Status,
			},
			StudentInvited: invited,
		}
		return nil
	})
	if err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			applog.Log.Errorf("Cash payment for room %d failed: %v", form.roomID, err)
		}
		return nil, asAppError(err)
	}

	applog.Log.Infof("Cash booking %d recorded for room %d (%d/%d)", result.Booking.ID, result.Room.ID, result.Room.CurrentOccupancy, result.Room.Capacity)
	return &result, nil
}

// upsertStudent finds the student by email or creates an invited account for them
func (s *BookingService) upsertStudent(tx *gorm.DB, in CashPaymentInput, email string) (*models.User, bool, error) {
	var student models.User
	err := tx.Where("LOWER(email) = ?", email).First(&student).Error
	if err == nil {
		if student.Role != models.RoleStudent {
			return nil, false, newError(KindConflict, "email_in_use", "This email belongs to an account that is not a student.")
		}
		updates := map[string]interface{}{
			"name":  strings.TrimSpace(in.StudentName),
			"phone": strings.TrimSpace(in.StudentPhone),
		}
		if v := strings.TrimSpace(in.StudentNumber); v != "" {
			updates["student_number"] = v
		}
		if v := strings.TrimSpace(in.TenantLocation); v != "" {
			updates["location"] = v
		}
		if err := tx.Model(&student).Updates(updates).Error; err != nil {
			return nil, false, err
		}
		return &student, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	student = models.User{
		Name:          strings.TrimSpace(in.StudentName),
		Email:         email,
		Phone:         strings.TrimSpace(in.StudentPhone),
		Role:          models.RoleStudent,
		AccountStatus: models.AccountStatusInvited,
		StudentNumber: strings.TrimSpace(in.StudentNumber),
		Location:      strings.TrimSpace(in.TenantLocation),
	}
	if err := tx.Create(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, newError(KindConflict, "email_in_use", "An account with this email already exists.")
		}
		return nil, false, err
	}
	return &student, true, nil
}

// queueBookingNotifications stores the booking messages and queues their delivery. The
// activation link for an invited student is minted by the notifier at send time.
func (s *BookingService) queueBookingNotifications(tx *gorm.DB, ownerID uint, student *models.User, room models.Room, booking models.Booking, invited bool, now time.Time) error {
	studentMsg := fmt.Sprintf("Your cash payment of %s for room %s has been recorded. Your stay runs from %s to %s.",
		booking.Amount.StringFixed(2), room.RoomNumber, booking.StartDate.Format(dateLayout), booking.EndDate.Format(dateLayout))

	notes := []models.Notification{
		{UserID: student.ID, Title: "Booking confirmed", Message: studentMsg, Type: "booking"},
	}
	if invited {
		notes = append(notes, models.Notification{
			UserID:  student.ID,
			Title:   "Activate your CampusStay account",
			Message: "Set a password to sign in and view your booking.",
			Type:    models.NotificationTypeAccountInvite,
		})
	}
	notes = append(notes, models.Notification{
		UserID: ownerID, Title: "Cash payment recorded", Message: fmt.Sprintf("Booking for %s in room %s was recorded.", student.Name, room.RoomNumber), Type: "booking",
	})
	for i := range notes {
		if err := tx.Create(&notes[i]).Error; err != nil {
			return err
		}
		if err := EnqueueNotification(tx, notes[i].ID, now); err != nil {
			return err
		}
	}
	return nil
}

// EnqueueNotification writes a delivery task for the worker in the caller's transaction
func EnqueueNotification(tx *gorm.DB, notificationID uint, due time.Time) error {
	task := models.ScheduledTask{
		TaskName:   TaskSendNotification,
		Arguments:  map[string]interface{}{"notification_id": notificationID},
		Due:        due,
		Status:     models.ScheduledTaskStatusActive,
		TaskType:   models.ScheduledTaskTypeOneTime,
		MaxAttempt: 3,
	}
	return tx.Create(&task).Error
}

// TaskSendNotification is the worker task that delivers one Notification row
const TaskSendNotification = "send_notification"
