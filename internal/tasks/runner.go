package tasks

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/models"
)

// Runner executes due scheduled tasks and records their history.
// Passes never overlap within one process.
type Runner struct {
	running    sync.Mutex
	db         *gorm.DB
	registry   *Registry
	retryDelay time.Duration
	now        func() time.Time
}

func NewRunner(db *gorm.DB, registry *Registry) *Runner {
	return &Runner{
		db:         db,
		registry:   registry,
		retryDelay: 5 * time.Minute,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ProcessDue runs every active task whose due time has passed and returns how many ran.
// It returns 0 straight away while another pass is still in progress.
func (r *Runner) ProcessDue(ctx context.Context) int {
	if !r.running.TryLock() {
		applog.Log.Warn("Previous task pass still running, skipping")
		return 0
	}
	defer r.running.Unlock()

	applog.Log.Debug("Checking for pending tasks...")

	var pendingTasks []models.ScheduledTask
	if err := r.db.WithContext(ctx).
		Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, r.now()).
		Order("due").
		Find(&pendingTasks).Error; err != nil {
		applog.Log.Errorf("Error fetching pending tasks: %v", err)
		return 0
	}

	if len(pendingTasks) == 0 {
		return 0
	}
	applog.Log.Infof("Found %d pending tasks.", len(pendingTasks))

	ran := 0
	for _, task := range pendingTasks {
		if ctx.Err() != nil {
			break
		}
		r.execute(ctx, task)
		ran++
	}
	return ran
}

func (r *Runner) execute(ctx context.Context, task models.ScheduledTask) {
	log := applog.Log.WithField("task", task.TaskName).WithField("task_id", task.ID)
	if task.Arguments == nil {
		task.Arguments = make(map[string]interface{})
	}
	attempt := attemptArg(task.Arguments)

	handler, found := r.registry.Get(task.TaskName)
	if !found {
		log.Warn("Task handler not found. Marking as failure.")
		now := r.now()
		r.db.Model(&task).Updates(models.ScheduledTask{Status: models.ScheduledTaskStatusFailure, LastRun: &now})
		r.db.Create(&models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           now,
			Status:          "handler_not_found",
			AttemptNumber:   attempt,
			Arguments:       task.Arguments,
			Result:          map[string]interface{}{"error": "Handler not found"},
		})
		return
	}

	startTime := r.now()
	result, err := handler(ctx, r.db, task)
	runtimeMs := int(time.Since(startTime).Milliseconds())

	status := "success"
	if err != nil {
		status = "failure"
		result = map[string]interface{}{"error": err.Error()}
		log.Errorf("Task failed on attempt %d: %v", attempt, err)
	} else {
		log.Debug("Task completed successfully.")
	}

	r.db.Create(&models.ScheduledTaskHistory{
		ScheduledTaskID: task.ID,
		TaskName:        task.TaskName,
		RunAt:           startTime,
		Runtime:         runtimeMs,
		Status:          status,
		AttemptNumber:   attempt,
		Arguments:       task.Arguments,
		Result:          result,
	})

	task.LastRun = &startTime
	switch {
	case err != nil && attempt < task.MaxAttempt:
		// Try again later
		args := copyArgs(task.Arguments)
		args["attempt"] = attempt + 1
		task.Arguments = args
		task.Due = startTime.Add(r.retryDelay)
	case err != nil && task.TaskType == models.ScheduledTaskTypeRecurring:
		// A failed run of a recurring task does not stop later runs
		task.Due = task.NextDue(startTime)
		task.Arguments = withoutAttempt(task.Arguments)
	case err != nil:
		task.Status = models.ScheduledTaskStatusFailure
	case task.TaskType == models.ScheduledTaskTypeRecurring:
		nextDue := task.NextDue(startTime)
		if nextDue.After(task.Due) {
			task.Due = nextDue
			task.Arguments = withoutAttempt(task.Arguments)
		} else {
			task.Status = models.ScheduledTaskStatusDone
		}
	default:
		task.Status = models.ScheduledTaskStatusDone
	}

	if err := r.db.Model(&task).Select("last_run", "due", "status", "arguments").Updates(&task).Error; err != nil {
		log.Errorf("Failed to update task state: %v", err)
	}
}

func copyArgs(args map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args)+1)
	for k, v := range args {
		out[k] = v
	}
	return out
}

func withoutAttempt(args map[string]interface{}) map[string]interface{} {
	out := copyArgs(args)
	delete(out, "attempt")
	return out
}
