package tasks

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"campusstay_echo/internal/models"
)

// BuildScheduledTask is a helper to build ScheduledTask records generically
func BuildScheduledTask(taskName string, args interface{}, due time.Time, recurringInterval *string, taskType models.ScheduledTaskType, maxAttempt int) (*models.ScheduledTask, error) {
	argsBytes, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var mapArgs map[string]interface{}
	if err := json.Unmarshal(argsBytes, &mapArgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into map: %w", err)
	}
	if mapArgs == nil {
		mapArgs = map[string]interface{}{}
	}

	return &models.ScheduledTask{
		TaskName:          taskName,
		Arguments:         mapArgs,
		Due:               due,
		RecurringInterval: recurringInterval,
		Status:            models.ScheduledTaskStatusActive,
		TaskType:          taskType,
		MaxAttempt:        maxAttempt,
	}, nil
}

// uintArg reads a numeric argument; JSON decoding yields float64 but callers may pass ints
func uintArg(args map[string]interface{}, key string) (uint, error) {
	switch v := args[key].(type) {
	case float64:
		if v > 0 {
			return uint(v), nil
		}
	case int:
		if v > 0 {
			return uint(v), nil
		}
	case uint:
		if v > 0 {
			return v, nil
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			return uint(n), nil
		}
	}
	return 0, fmt.Errorf("%s not provided or invalid", key)
}

func attemptArg(args map[string]interface{}) int {
	n, err := uintArg(args, "attempt")
	if err != nil {
		return 1
	}
	return int(n)
}
