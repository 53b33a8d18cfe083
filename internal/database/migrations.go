package database

import (
	"github.com/pettrust/pettrust-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Pet{},
		&models.WalkerProfile{},
		&models.DaycareProfile{},
		&models.VetProfile{},
		&models.ServiceRequest{},
		&models.InboxEntry{},
		&models.Booking{},
		&models.Review{},
		&models.WellnessReport{},
		&models.TrackingPoint{},
		&models.SOSAlert{},
		&models.CheckIn{},
		&models.TripShare{},
	)
	if err != nil {
		return err
	}

	if db.Migrator().HasTable(&models.User{}) {
		db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_role_check`)
		db.Exec(`ALTER TABLE users ADD CONSTRAINT users_role_check CHECK (role IN ('owner', 'walker', 'daycare', 'vet'))`)
	}

	if db.Migrator().HasTable(&models.ServiceRequest{}) {
		db.Exec(`ALTER TABLE service_requests DROP CONSTRAINT IF EXISTS service_requests_status_check`)
		db.Exec(`ALTER TABLE service_requests ADD CONSTRAINT service_requests_status_check CHECK (status IN ('pending', 'accepted', 'expired'))`)
	}

	return nil
}
