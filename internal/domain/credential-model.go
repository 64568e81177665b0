package domain

import "time"

// Credential lives in its own table, one row per account, so password
// material never travels with the account row.
type Credential struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	AccountID uint   `gorm:"uniqueIndex;not null" json:"account_id"`
	Hash      string `gorm:"type:varchar(128);not null" json:"-"`
	Salt      string `gorm:"type:varchar(64);not null" json:"-"`

	// Generation goes up by one on every password change. Reset tokens carry
	// the generation they were issued against, so one successful reset
	// invalidates every other outstanding token.
	Generation int64 `gorm:"not null;default:1" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
