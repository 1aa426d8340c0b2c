package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		expected int64
	}{
		{name: "whole amount", amount: "50", expected: 5000},
		{name: "with pesewas", amount: "12.34", expected: 1234},
		{name: "rounds half up", amount: "0.005", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MinorUnits(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestRoomLevyDue(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(48 * time.Hour)

	assert.True(t, Room{LevyPaymentStatus: LevyStatusPending}.LevyDue(now))
	assert.True(t, Room{LevyPaymentStatus: LevyStatusExpired}.LevyDue(now))
	assert.True(t, Room{LevyPaymentStatus: LevyStatusPaid, LevyExpiryDate: &past}.LevyDue(now))
	assert.False(t, Room{LevyPaymentStatus: LevyStatusPaid, LevyExpiryDate: &future}.LevyDue(now))
	assert.False(t, Room{LevyPaymentStatus: LevyStatusApproved}.LevyDue(now))
}

func TestRoomDaysUntilLevyExpiry(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	in30 := now.AddDate(0, 0, 30)
	past := now.AddDate(0, 0, -1)

	assert.Equal(t, 30, Room{LevyExpiryDate: &in30}.DaysUntilLevyExpiry(now))
	assert.Equal(t, 0, Room{LevyExpiryDate: &past}.DaysUntilLevyExpiry(now))
	assert.Equal(t, 0, Room{}.DaysUntilLevyExpiry(now))
}

func TestRoomHasVacancy(t *testing.T) {
	assert.True(t, Room{Status: RoomStatusAvailable, Capacity: 2, CurrentOccupancy: 1}.HasVacancy())
	assert.False(t, Room{Status: RoomStatusAvailable, Capacity: 2, CurrentOccupancy: 2}.HasVacancy())
	assert.False(t, Room{Status: RoomStatusOccupied, Capacity: 2, CurrentOccupancy: 1}.HasVacancy())
}

func TestScheduledTaskNextDue(t *testing.T) {
	due := time.Date(2026, 10, 1, 3, 0, 0, 0, time.UTC)
	daily := "FREQ=DAILY"

	onetime := ScheduledTask{TaskType: ScheduledTaskTypeOneTime, Due: due}
	assert.Equal(t, due, onetime.NextDue(due.AddDate(0, 0, 5)))

	recurring := ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &daily}
	assert.Equal(t, due.AddDate(0, 0, 1), recurring.NextDue(due))

	broken := "NOT A RULE"
	invalid := ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &broken}
	assert.Equal(t, due, invalid.NextDue(due))
}
