package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/SundayYogurt/account_service/internal/apperr"
	"github.com/SundayYogurt/account_service/internal/domain"
)

type AccountRepository interface {
	CreateAccount(acct *domain.Account) (*domain.Account, error)
	FindAccountById(accountID uint) (*domain.Account, error)
	FindAccountByEmail(email string) (*domain.Account, error)
	SaveAccount(acct *domain.Account) error
	ListAccounts(limit, offset int) ([]domain.Account, int64, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) CreateAccount(acct *domain.Account) (*domain.Account, error) {
	if acct == nil {
		return nil, errors.New("nil account")
	}

	if err := r.db.Create(acct).Error; err != nil {
		if conflict := translateUniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return acct, nil
}

func (r *accountRepository) FindAccountById(accountID uint) (*domain.Account, error) {
	acct := &domain.Account{}

	if err := r.db.First(acct, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}

	return acct, nil
}

func (r *accountRepository) FindAccountByEmail(email string) (*domain.Account, error) {
	acct := &domain.Account{}

	if err := r.db.First(acct, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}

	return acct, nil
}

func (r *accountRepository) SaveAccount(acct *domain.Account) error {
	if acct == nil {
		return errors.New("nil account")
	}

	if err := r.db.Save(acct).Error; err != nil {
		if conflict := translateUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (r *accountRepository) ListAccounts(limit, offset int) ([]domain.Account, int64, error) {
	var (
		accounts []domain.Account
		total    int64
	)

	if err := r.db.Model(&domain.Account{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	err := r.db.
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}

	return accounts, total, nil
}

// uniqueViolation is the Postgres SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

// translateUniqueViolation maps a duplicate-key failure onto the account
// field whose unique index fired, so callers can report which value is taken.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}

	name := pgErr.ConstraintName
	switch {
	case strings.Contains(name, "email"):
		return apperr.NewConflict("email")
	case strings.Contains(name, "username"):
		return apperr.NewConflict("username")
	case strings.Contains(name, "phone"):
		return apperr.NewConflict("phone")
	}
	return apperr.NewConflict("account")
}
