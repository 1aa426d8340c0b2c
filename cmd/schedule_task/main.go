package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"campusstay_echo/internal/config"
	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/models"
	"campusstay_echo/internal/services"
	"campusstay_echo/internal/tasks"
)

func main() {
	taskName := flag.String("task_name", "", "Name of the task (mandatory)")
	argsStr := flag.String("arguments", "{}", "JSON arguments for the task")
	dueStr := flag.String("due", "", "Due date (mandatory, format: 2006-01-02 15:04 or RFC3339)")
	taskType := flag.String("tasktype", "onetime", "Task type: onetime or recurring")
	recurring := flag.String("recurring", "", "RRULE for recurring tasks, e.g. FREQ=DAILY")
	maxAttempt := flag.Int("max_attempt", 3, "Max attempts")

	flag.Parse()

	if *taskName == "" || *dueStr == "" {
		fmt.Println("Usage: schedule_task -task_name <name> -due <YYYY-MM-DD HH:MM> [-arguments <json>] [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	applog.Init("schedule_task")
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		applog.Log.Fatal("DATABASE_URL is not set")
	}

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(*argsStr), &args); err != nil {
		applog.Log.Fatalf("Invalid JSON arguments: %v", err)
	}

	due, err := time.Parse(time.RFC3339, *dueStr)
	if err != nil {
		due, err = time.ParseInLocation("2006-01-02 15:04", *dueStr, time.Local)
		if err != nil {
			applog.Log.Fatalf("Invalid due date format. Use '2006-01-02 15:04' (Local) or RFC3339: %v", err)
		}
	}

	kind := models.ScheduledTaskType(*taskType)
	if kind != models.ScheduledTaskTypeOneTime && kind != models.ScheduledTaskTypeRecurring {
		applog.Log.Fatalf("Unknown task type %q", *taskType)
	}
	var recurringPtr *string
	if *recurring != "" {
		recurringPtr = recurring
	}

	task, err := tasks.BuildScheduledTask(*taskName, args, due.UTC(), recurringPtr, kind, *maxAttempt)
	if err != nil {
		applog.Log.Fatalf("Failed to build task: %v", err)
	}

	db, err := services.InitDB(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		applog.Log.Fatalf("Failed to connect DB: %v", err)
	}
	if err := db.Create(task).Error; err != nil {
		applog.Log.Fatalf("Failed to create task: %v", err)
	}

	fmt.Printf("Successfully created task ID: %d\n", task.ID)
	fmt.Printf("Task: %s\nDue: %s\nType: %s\n", task.TaskName, task.Due, task.TaskType)
}
