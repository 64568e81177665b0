package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SundayYogurt/account_service/internal/apperr"
	"github.com/SundayYogurt/account_service/internal/domain"
)

type CredentialRepository interface {
	CreateCredential(cred *domain.Credential) error
	FindCredentialByAccountId(accountID uint) (*domain.Credential, error)
	RotateCredential(accountID uint, hash, salt string) error
}

type credentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) CreateCredential(cred *domain.Credential) error {
	if cred == nil {
		return errors.New("nil credential")
	}

	if err := r.db.Create(cred).Error; err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func (r *credentialRepository) FindCredentialByAccountId(accountID uint) (*domain.Credential, error) {
	cred := &domain.Credential{}

	if err := r.db.First(cred, "account_id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("find credential by account id: %w", err)
	}

	return cred, nil
}

// RotateCredential swaps in new password material and bumps the generation
// in the same statement, so outstanding reset tokens die with the old hash.
func (r *credentialRepository) RotateCredential(accountID uint, hash, salt string) error {
	res := r.db.Model(&domain.Credential{}).
		Where("account_id = ?", accountID).
		Updates(map[string]interface{}{
			"hash":       hash,
			"salt":       salt,
			"generation": gorm.Expr("generation + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("rotate credential: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
