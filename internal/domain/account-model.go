package domain

import (
	"strings"
	"time"
)

type AccountStatus string

const (
	StatusPending   AccountStatus = "pending"
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusLocked    AccountStatus = "locked"
	StatusDeleted   AccountStatus = "deleted"
)

// Role ranks. Higher outranks lower; RoleAdmin and above unlock the admin surface.
const (
	RoleMember     = 1
	RoleSupport    = 2
	RoleAdmin      = 3
	RoleSuperAdmin = 4
	RoleOwner      = 5

	RoleMin = RoleMember
	RoleMax = RoleOwner

	// AdminThreshold gates read access to the admin surface (view is not
	// hierarchy-ranked, only thresholded).
	AdminThreshold = RoleAdmin
)

type Account struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(100);not null" json:"last_name"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Username  string `gorm:"uniqueIndex;not null" json:"username"`
	Phone     string `gorm:"uniqueIndex;not null" json:"phone"`

	Role int `gorm:"not null;default:1" json:"role"`

	EmailVerified bool `gorm:"not null;default:false" json:"email_verified"`
	PhoneVerified bool `gorm:"not null;default:false" json:"phone_verified"`

	Status AccountStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s AccountStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended, StatusLocked, StatusDeleted:
		return true
	}
	return false
}

func ValidRole(r int) bool {
	return r >= RoleMin && r <= RoleMax
}

func (a *Account) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
