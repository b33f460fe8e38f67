package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	UserTypeFarmer = "farmer"
	UserTypeBuyer  = "buyer"
)

type User struct {
	gorm.Model
	FullName       string     `gorm:"not null" json:"full_name"`
	Email          string     `gorm:"unique;not null" json:"email"`
	PhoneNumber    string     `gorm:"size:15" json:"phone_number"`
	Password       string     `gorm:"not null" json:"-"`
	UserType       string     `gorm:"not null" json:"user_type"` // "farmer" or "buyer"
	County         string     `json:"county"`
	Verified       bool       `gorm:"default:false" json:"verified"`
	OTP            string     `json:"-"`
	OTPGeneratedAt *time.Time `json:"-"`
	RefreshToken   string     `json:"-"`
	PushToken      string     `gorm:"column:push_token" json:"push_token"`
	LastLogoutAt   *time.Time `gorm:"column:last_logout_at" json:"-"`
}
