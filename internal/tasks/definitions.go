package tasks

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusstay_echo/internal/models"
)

// DefineTasks registers all available tasks
func DefineTasks(reg *Registry, deliverer NotificationDeliverer) {
	reg.Register(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)
	reg.Register(ExpireRoomLeviesTask.TaskID(), ExpireRoomLeviesTask.HandleExecution)
	reg.Register(ExpirePaymentIntentsTask.TaskID(), ExpirePaymentIntentsTask.HandleExecution)

	if deliverer != nil {
		notify := NewSendNotificationTask(deliverer)
		reg.Register(notify.TaskID(), notify.HandleExecution)
	}
}

type recurringTask struct {
	name string
	rule string
}

var housekeeping = []recurringTask{
	{name: "expire_room_levies", rule: "FREQ=HOURLY"},
	{name: "expire_payment_intents", rule: "FREQ=MINUTELY;INTERVAL=30"},
}

// EnsureRecurringTasks creates the housekeeping tasks once. Existing rows are left as they are.
func EnsureRecurringTasks(db *gorm.DB, now time.Time) error {
	var errs []error
	for _, rt := range housekeeping {
		rule := rt.rule
		task, err := BuildScheduledTask(rt.name, map[string]interface{}{}, now, &rule, models.ScheduledTaskTypeRecurring, 1)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		key := "recurring:" + rt.name
		task.UniqueKey = &key
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(task).Error; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
