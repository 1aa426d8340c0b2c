package tasks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/models"
	"campusstay_echo/internal/services"
)

// ExpireRoomLeviesTaskDef moves rooms whose levy period ended back to expired
// and tells their owners.
type ExpireRoomLeviesTaskDef struct{}

func (t *ExpireRoomLeviesTaskDef) TaskID() string {
	return "expire_room_levies"
}

type lapsedRoom struct {
	ID         uint
	RoomNumber string
	OwnerID    uint
}

func (t *ExpireRoomLeviesTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	now := time.Now().UTC()
	lapsedStatuses := []models.LevyStatus{models.LevyStatusPaid, models.LevyStatusApproved}

	var expired int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rooms []lapsedRoom
		if err := tx.Model(&models.Room{}).
			Select("rooms.id, rooms.room_number, properties.owner_id").
			Joins("JOIN properties ON properties.id = rooms.property_id").
			Where("rooms.levy_payment_status IN ? AND rooms.levy_expiry_date < ?", lapsedStatuses, now).
			Scan(&rooms).Error; err != nil {
			return err
		}
		if len(rooms) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(rooms))
		byOwner := make(map[uint][]string)
		for _, r := range rooms {
			ids = append(ids, r.ID)
			byOwner[r.OwnerID] = append(byOwner[r.OwnerID], r.RoomNumber)
		}
		if err := tx.Model(&models.Room{}).Where("id IN ?", ids).
			Update("levy_payment_status", models.LevyStatusExpired).Error; err != nil {
			return err
		}

		for ownerID, numbers := range byOwner {
			note := models.Notification{
				UserID:  ownerID,
				Title:   "Room levy expired",
				Message: fmt.Sprintf("The levy for %d room(s) has expired: %v. Renew it to keep the rooms listed.", len(numbers), numbers),
				Type:    "levy",
			}
			if err := tx.Create(&note).Error; err != nil {
				return err
			}
			if err := services.EnqueueNotification(tx, note.ID, now); err != nil {
				return err
			}
		}
		expired = len(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if expired > 0 {
		applog.Log.Infof("Expired levy on %d rooms", expired)
	}
	return map[string]interface{}{"status": "success", "expired_rooms": expired}, nil
}

var ExpireRoomLeviesTask = &ExpireRoomLeviesTaskDef{}

// ExpirePaymentIntentsTaskDef closes open intents that passed their expiry
type ExpirePaymentIntentsTaskDef struct{}

func (t *ExpirePaymentIntentsTaskDef) TaskID() string {
	return "expire_payment_intents"
}

func (t *ExpirePaymentIntentsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	res := db.WithContext(ctx).Model(&models.PaymentIntent{}).
		Where("status = ? AND expires_at <= ?", models.PaymentIntentStatusOpen, time.Now().UTC()).
		Update("status", models.PaymentIntentStatusExpired)
	if res.Error != nil {
		return nil, res.Error
	}
	return map[string]interface{}{"status": "success", "expired_intents": res.RowsAffected}, nil
}

var ExpirePaymentIntentsTask = &ExpirePaymentIntentsTaskDef{}
