package tasks

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"campusstay_echo/internal/models"
	"campusstay_echo/internal/services"
)

// NotificationDeliverer sends one stored notification
type NotificationDeliverer interface {
	Deliver(ctx context.Context, notificationID uint) (models.NotificationChannel, error)
}

// SendNotificationTaskDef delivers a Notification row written by a business transaction
type SendNotificationTaskDef struct {
	deliverer NotificationDeliverer
}

func NewSendNotificationTask(deliverer NotificationDeliverer) *SendNotificationTaskDef {
	return &SendNotificationTaskDef{deliverer: deliverer}
}

// TaskID returns the unique identifier for this task
func (t *SendNotificationTaskDef) TaskID() string {
	return services.TaskSendNotification
}

// HandleExecution delivers the notification named by the notification_id argument
func (t *SendNotificationTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	id, err := uintArg(task.Arguments, "notification_id")
	if err != nil {
		return nil, err
	}
	channel, err := t.deliverer.Deliver(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("deliver notification %d: %w", id, err)
	}
	return map[string]interface{}{
		"status":          "success",
		"notification_id": id,
		"channel":         string(channel),
	}, nil
}
