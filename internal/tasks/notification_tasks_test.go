package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusstay_echo/internal/models"
)

type fakeDeliverer struct {
	delivered []uint
	err       error
}

func (f *fakeDeliverer) Deliver(_ context.Context, id uint) (models.NotificationChannel, error) {
	if f.err != nil {
		return "", f.err
	}
	f.delivered = append(f.delivered, id)
	return models.NotificationChannelEmail, nil
}

func TestSendNotificationTask(t *testing.T) {
	d := &fakeDeliverer{}
	task := NewSendNotificationTask(d)

	// Arguments read back from the JSON column are float64
	result, err := task.HandleExecution(context.Background(), nil, models.ScheduledTask{
		Arguments: map[string]interface{}{"notification_id": float64(42)},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{42}, d.delivered)
	assert.Equal(t, "email", result["channel"])
}

func TestSendNotificationTask_BadArguments(t *testing.T) {
	task := NewSendNotificationTask(&fakeDeliverer{})
	_, err := task.HandleExecution(context.Background(), nil, models.ScheduledTask{
		Arguments: map[string]interface{}{"notification_id": "abc"},
	})
	assert.Error(t, err)
}

func TestSendNotificationTask_DeliveryError(t *testing.T) {
	task := NewSendNotificationTask(&fakeDeliverer{err: errors.New("no channel")})
	_, err := task.HandleExecution(context.Background(), nil, models.ScheduledTask{
		Arguments: map[string]interface{}{"notification_id": float64(7)},
	})
	assert.ErrorContains(t, err, "no channel")
}
