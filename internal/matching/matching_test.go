package matching

import (
	"fmt"
	"testing"
	"time"

	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Pet{},
		&models.WalkerProfile{},
		&models.DaycareProfile{},
		&models.VetProfile{},
		&models.ServiceRequest{},
		&models.InboxEntry{},
		&models.Booking{},
	))

	return db
}

func ptr(v float64) *float64 { return &v }

func seedWalker(t *testing.T, db *gorm.DB, lat, lng, radiusKm float64, capacity int) *models.WalkerProfile {
	t.Helper()

	user := models.User{
		Name:         fmt.Sprintf("Walker %d", time.Now().UnixNano()),
		Email:        fmt.Sprintf("walker%d@example.com", time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         string(models.RoleWalker),
	}
	require.NoError(t, db.Create(&user).Error)

	walker := models.WalkerProfile{
		UserID:          user.ID,
		Name:            user.Name,
		Latitude:        ptr(lat),
		Longitude:       ptr(lng),
		ServiceRadiusKm: radiusKm,
		IsActive:        true,
		PricePerWalk:    35000,
		CapacityMax:     capacity,
	}
	require.NoError(t, db.Create(&walker).Error)
	return &walker
}

func seedDaycare(t *testing.T, db *gorm.DB, lat, lng, radiusKm float64, capacity int) *models.DaycareProfile {
	t.Helper()

	user := models.User{
		Name:         fmt.Sprintf("Daycare %d", time.Now().UnixNano()),
		Email:        fmt.Sprintf("daycare%d@example.com", time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         string(models.RoleDaycare),
	}
	require.NoError(t, db.Create(&user).Error)

	daycare := models.DaycareProfile{
		UserID:         user.ID,
		Name:           user.Name,
		Latitude:       ptr(lat),
		Longitude:      ptr(lng),
		PickupRadiusKm: radiusKm,
		IsActive:       true,
		PricePerDay:    60000,
		CapacityTotal:  capacity,
	}
	require.NoError(t, db.Create(&daycare).Error)
	return &daycare
}

func seedRequest(t *testing.T, registry *Registry, serviceType models.ServiceType, matched []uint) *models.ServiceRequest {
	t.Helper()

	request, err := registry.Create(CreateInput{
		OwnerID:          1,
		PetID:            1,
		PetName:          "Rocky",
		PetBreed:         "Golden Retriever",
		ServiceType:      serviceType,
		Date:             "2026-09-05",
		Time:             "10:00",
		OwnerLat:         4.6951,
		OwnerLng:         -74.0621,
		MatchedProviders: matched,
	})
	require.NoError(t, err)
	return request
}

func forceExpiry(t *testing.T, db *gorm.DB, requestID uint) {
	t.Helper()
	err := db.Model(&models.ServiceRequest{}).
		Where("id = ?", requestID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error
	require.NoError(t, err)
}
