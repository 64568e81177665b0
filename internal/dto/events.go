package dto

import (
	"time"

	"github.com/segmentio/ksuid"
)

// Account lifecycle event types published to the broker.
const (
	EventAccountRegistered = "account.registered"
	EventAccountCreated    = "account.created"
	EventEmailVerified     = "account.email_verified"
	EventPhoneVerified     = "account.phone_verified"
	EventPasswordChanged   = "account.password_changed"
	EventRoleChanged       = "account.role_changed"
	EventStatusChanged     = "account.status_changed"
)

// AccountEvent is the envelope for every lifecycle message. EventID is a
// ksuid, so consumers can sort by creation time without parsing timestamps.
type AccountEvent struct {
	EventID    string `json:"event_id"`
	Type       string `json:"type"`
	AccountID  uint   `json:"account_id"`
	Email      string `json:"email,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

func NewAccountEvent(eventType string, accountID uint, email string) AccountEvent {
	return AccountEvent{
		EventID:    ksuid.New().String(),
		Type:       eventType,
		AccountID:  accountID,
		Email:      email,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
