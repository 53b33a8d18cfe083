package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleOwner   UserRole = "owner"
	RoleWalker  UserRole = "walker"
	RoleDaycare UserRole = "daycare"
	RoleVet     UserRole = "vet"
)

// IsProviderRole reports whether the role belongs to a service provider.
func IsProviderRole(role string) bool {
	switch UserRole(role) {
	case RoleWalker, RoleDaycare, RoleVet:
		return true
	}
	return false
}

type User struct {
	gorm.Model
	Name         string `json:"name" gorm:"column:name;not null"`
	Email        string `json:"email" gorm:"column:email;unique;not null"`
	Password     string `json:"-" gorm:"-"` // Plaintext input, never persisted
	PasswordHash string `json:"-" gorm:"column:password_hash;not null"`
	PhoneNumber  string `json:"phone,omitempty" gorm:"column:phone_number"`
	Role         string `json:"role" gorm:"column:role;not null;default:'owner'"`
	FCMToken     string `json:"-" gorm:"column:fcm_token"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
