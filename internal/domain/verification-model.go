package domain

import "time"

const (
	EmailTokenTTL     = 48 * time.Hour
	EmailResendWindow = 5 * time.Minute

	PhoneCodeTTL      = 15 * time.Minute
	PhoneResendWindow = 1 * time.Minute
	MaxPhoneAttempts  = 3
)

// EmailVerification holds the active email-confirmation artifact for an
// account. Only the SHA-256 of the token is stored; the plaintext goes out in
// the mail and is never persisted.
type EmailVerification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"uniqueIndex;not null" json:"account_id"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (v *EmailVerification) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

// WithinResendWindow reports whether a new send would violate the 5 minute
// resend limit. The artifact's own created_at is the rate state; there is no
// separate counter.
func (v *EmailVerification) WithinResendWindow(now time.Time) bool {
	return now.Sub(v.CreatedAt) < EmailResendWindow
}

// PhoneVerification holds the active SMS code artifact for an account.
type PhoneVerification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"uniqueIndex;not null" json:"account_id"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (v *PhoneVerification) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

func (v *PhoneVerification) Exhausted() bool {
	return v.Attempts >= MaxPhoneAttempts
}

func (v *PhoneVerification) Remaining() int {
	if r := MaxPhoneAttempts - v.Attempts; r > 0 {
		return r
	}
	return 0
}

func (v *PhoneVerification) WithinResendWindow(now time.Time) bool {
	return now.Sub(v.CreatedAt) < PhoneResendWindow
}
