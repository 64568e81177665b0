package repository

import (
	"gorm.io/gorm"
)

// TxRepos bundles transaction-bound repositories. Every repo in the bundle
// runs on the same *gorm.DB transaction, so a returned error rolls back all
// of them together.
type TxRepos struct {
	Accounts           AccountRepository
	Credentials        CredentialRepository
	EmailVerifications EmailVerificationRepository
	PhoneVerifications PhoneVerificationRepository
}

// Atomic runs multi-table work in a single database transaction.
type Atomic interface {
	Transaction(fn func(r TxRepos) error) error
}

type atomic struct {
	db *gorm.DB
}

func NewAtomic(db *gorm.DB) Atomic {
	return &atomic{db: db}
}

func (a *atomic) Transaction(fn func(r TxRepos) error) error {
	return a.db.Transaction(func(tx *gorm.DB) error {
		return fn(TxRepos{
			Accounts:           NewAccountRepository(tx),
			Credentials:        NewCredentialRepository(tx),
			EmailVerifications: NewEmailVerificationRepository(tx),
			PhoneVerifications: NewPhoneVerificationRepository(tx),
		})
	})
}
