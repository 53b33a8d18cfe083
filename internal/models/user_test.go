package models

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newUserTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))
	return db
}

func TestCreateUserOnFreshDatabase(t *testing.T) {
	db := newUserTestDB(t)

	user := User{
		Name:         "Camila Rodriguez",
		Email:        "camila@example.com",
		Password:     "secreto123",
		PasswordHash: "$2a$10$notarealhashbutlongenough1234567890abcdef",
		Role:         string(RoleOwner),
	}
	require.NoError(t, db.Create(&user).Error)

	var saved User
	require.NoError(t, db.First(&saved, user.ID).Error)
	require.Equal(t, "camila@example.com", saved.Email)
	require.Equal(t, user.PasswordHash, saved.PasswordHash)
	require.Empty(t, saved.Password)
}

func TestHashAndCheckPassword(t *testing.T) {
	user := User{Password: "secreto123"}
	require.NoError(t, user.HashPassword())
	require.NotEmpty(t, user.PasswordHash)
	require.NoError(t, user.CheckPassword("secreto123"))
	require.Error(t, user.CheckPassword("otraclave"))
}
