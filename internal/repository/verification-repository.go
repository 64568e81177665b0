package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/SundayYogurt/account_service/internal/apperr"
	"github.com/SundayYogurt/account_service/internal/domain"
)

// lostReplaceRace reports whether an artifact insert collided with a row a
// concurrent replace just committed. The per-account unique index is what
// serializes two simultaneous sends; the loser surfaces as RateLimited.
func lostReplaceRace(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type EmailVerificationRepository interface {
	ReplaceEmailVerification(v *domain.EmailVerification) error
	FindEmailVerificationByAccountId(accountID uint) (*domain.EmailVerification, error)
	FindEmailVerificationByTokenHash(hash string) (*domain.EmailVerification, error)
	DeleteEmailVerificationByAccountId(accountID uint) error
}

type emailVerificationRepository struct {
	db *gorm.DB
}

func NewEmailVerificationRepository(db *gorm.DB) EmailVerificationRepository {
	return &emailVerificationRepository{db: db}
}

// ReplaceEmailVerification installs v as the only live artifact for its
// account: any previous row is deleted in the same transaction.
func (r *emailVerificationRepository) ReplaceEmailVerification(v *domain.EmailVerification) error {
	if v == nil || v.AccountID == 0 {
		return errors.New("invalid email verification")
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", v.AccountID).Delete(&domain.EmailVerification{}).Error; err != nil {
			return fmt.Errorf("clear email verification: %w", err)
		}
		if err := tx.Create(v).Error; err != nil {
			if lostReplaceRace(err) {
				return apperr.ErrRateLimited
			}
			return fmt.Errorf("create email verification: %w", err)
		}
		return nil
	})
}

func (r *emailVerificationRepository) FindEmailVerificationByAccountId(accountID uint) (*domain.EmailVerification, error) {
	v := &domain.EmailVerification{}

	if err := r.db.First(v, "account_id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("find email verification by account id: %w", err)
	}

	return v, nil
}

func (r *emailVerificationRepository) FindEmailVerificationByTokenHash(hash string) (*domain.EmailVerification, error) {
	v := &domain.EmailVerification{}

	if err := r.db.First(v, "token_hash = ?", hash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("find email verification by token hash: %w", err)
	}

	return v, nil
}

func (r *emailVerificationRepository) DeleteEmailVerificationByAccountId(accountID uint) error {
	if err := r.db.Where("account_id = ?", accountID).Delete(&domain.EmailVerification{}).Error; err != nil {
		return fmt.Errorf("delete email verification: %w", err)
	}
	return nil
}

type PhoneVerificationRepository interface {
	ReplacePhoneVerification(v *domain.PhoneVerification) error
	FindPhoneVerificationByAccountId(accountID uint) (*domain.PhoneVerification, error)
	IncrementPhoneAttempts(id uint) (*domain.PhoneVerification, error)
	DeletePhoneVerificationByAccountId(accountID uint) error
}

type phoneVerificationRepository struct {
	db *gorm.DB
}

func NewPhoneVerificationRepository(db *gorm.DB) PhoneVerificationRepository {
	return &phoneVerificationRepository{db: db}
}

func (r *phoneVerificationRepository) ReplacePhoneVerification(v *domain.PhoneVerification) error {
	if v == nil || v.AccountID == 0 {
		return errors.New("invalid phone verification")
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", v.AccountID).Delete(&domain.PhoneVerification{}).Error; err != nil {
			return fmt.Errorf("clear phone verification: %w", err)
		}
		if err := tx.Create(v).Error; err != nil {
			if lostReplaceRace(err) {
				return apperr.ErrRateLimited
			}
			return fmt.Errorf("create phone verification: %w", err)
		}
		return nil
	})
}

func (r *phoneVerificationRepository) FindPhoneVerificationByAccountId(accountID uint) (*domain.PhoneVerification, error) {
	v := &domain.PhoneVerification{}

	if err := r.db.First(v, "account_id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("find phone verification by account id: %w", err)
	}

	return v, nil
}

// IncrementPhoneAttempts bumps the attempt counter in the database, not in
// memory, so concurrent wrong guesses each count. Returns the row as it
// stands after the bump.
func (r *phoneVerificationRepository) IncrementPhoneAttempts(id uint) (*domain.PhoneVerification, error) {
	res := r.db.Model(&domain.PhoneVerification{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return nil, fmt.Errorf("increment phone attempts: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrNotFound
	}

	v := &domain.PhoneVerification{}
	if err := r.db.First(v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("reload phone verification: %w", err)
	}
	return v, nil
}

func (r *phoneVerificationRepository) DeletePhoneVerificationByAccountId(accountID uint) error {
	if err := r.db.Where("account_id = ?", accountID).Delete(&domain.PhoneVerification{}).Error; err != nil {
		return fmt.Errorf("delete phone verification: %w", err)
	}
	return nil
}
