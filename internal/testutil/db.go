// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"campusstay_echo/internal/models"
)

// NewDB opens a migrated in-memory SQLite database. A single connection keeps every
// query on the same in-memory schema.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// CreateUser inserts an active user with the given role
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) models.User {
	t.Helper()
	u := models.User{
		Name:          email,
		Email:         email,
		Phone:         "0240000000",
		Role:          role,
		AccountStatus: models.AccountStatusActive,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// CreateProperty inserts a property owned by ownerID
func CreateProperty(t *testing.T, db *gorm.DB, ownerID uint, name string) models.Property {
	t.Helper()
	p := models.Property{OwnerID: ownerID, Name: name, Address: "Campus Road"}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// CreateRoom inserts a room with the given capacity and levy status
func CreateRoom(t *testing.T, db *gorm.DB, propertyID uint, number string, capacity int, levy models.LevyStatus) models.Room {
	t.Helper()
	r := models.Room{
		PropertyID:        propertyID,
		RoomNumber:        number,
		Capacity:          capacity,
		Gender:            models.RoomGenderFemale,
		Status:            models.RoomStatusAvailable,
		LevyPaymentStatus: levy,
		PaymentAmount:     decimal.Zero,
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

// Today returns midnight UTC of the current day
func Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
