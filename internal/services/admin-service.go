package services

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/SundayYogurt/account_service/internal/apperr"
	"github.com/SundayYogurt/account_service/internal/authz"
	"github.com/SundayYogurt/account_service/internal/domain"
	"github.com/SundayYogurt/account_service/internal/dto"
	"github.com/SundayYogurt/account_service/internal/helper"
	"github.com/SundayYogurt/account_service/internal/interfaces"
	"github.com/SundayYogurt/account_service/internal/repository"
)

// AdminService is the hierarchy-gated account surface. Every mutation runs
// through authz.Authorize; no method compares roles inline.
type AdminService interface {
	CreateAccount(actor *helper.AccessClaims, input dto.AdminCreateRequest) (*domain.Account, error)
	GetAccount(actor *helper.AccessClaims, targetID uint) (*domain.Account, error)
	ListAccounts(actor *helper.AccessClaims, limit, offset int) ([]domain.Account, int64, error)
	UpdateAccount(actor *helper.AccessClaims, targetID uint, input dto.AdminUpdateRequest) (*domain.Account, error)
	DeleteAccount(actor *helper.AccessClaims, targetID uint) error
	SetStatus(actor *helper.AccessClaims, targetID uint, status string) (*domain.Account, error)
	ChangeRole(actor *helper.AccessClaims, targetID uint, newRole int) (*domain.Account, error)
	ResetPassword(actor *helper.AccessClaims, targetID uint, newPassword string) error
}

type adminService struct {
	repo     repository.AccountRepository
	creds    repository.CredentialRepository
	atomic   repository.Atomic
	producer interfaces.ProducerHandler
	log      *zap.Logger
}

func NewAdminService(
	repo repository.AccountRepository,
	creds repository.CredentialRepository,
	atomic repository.Atomic,
	producer interfaces.ProducerHandler,
	log *zap.Logger,
) AdminService {
	return &adminService{
		repo:     repo,
		creds:    creds,
		atomic:   atomic,
		producer: producer,
		log:      log,
	}
}

func (s *adminService) CreateAccount(actor *helper.AccessClaims, input dto.AdminCreateRequest) (*domain.Account, error) {
	if actor == nil {
		return nil, apperr.ErrTokenInvalid
	}
	if !domain.ValidRole(input.Role) {
		return nil, errors.New("role must be between 1 and 5")
	}

	if err := authz.Authorize(authz.OpCreate, authz.Check{
		ActorID:   actor.AccountID,
		ActorRole: actor.Role,
		NewRole:   input.Role,
	}); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	username := strings.TrimSpace(strings.ToLower(input.Username))
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	phone := strings.TrimSpace(input.Phone)

	if email == "" || username == "" || firstName == "" || lastName == "" || phone == "" {
		return nil, errors.New("invalid inputs")
	}
	if len(input.Password) < minPasswordLen {
		return nil, errors.New("password must be at least 8 characters")
	}

	salt, err := helper.GenerateSalt()
	if err != nil {
		return nil, apperr.ErrInternal
	}

	// Admin-created accounts skip the email round trip: the operator vouches
	// for the address, so they start active rather than pending.
	acct := &domain.Account{
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		Username:      username,
		Phone:         phone,
		Role:          input.Role,
		EmailVerified: true,
		Status:        domain.StatusActive,
	}

	err = s.atomic.Transaction(func(r repository.TxRepos) error {
		created, err := r.Accounts.CreateAccount(acct)
		if err != nil {
			return err
		}
		return r.Credentials.CreateCredential(&domain.Credential{
			AccountID:  created.ID,
			Hash:       helper.HashPassword(input.Password, salt),
			Salt:       salt,
			Generation: 1,
		})
	})
	if err != nil {
		if _, ok := apperr.AsConflict(err); ok {
			return nil, err
		}
		s.log.Error("admin create account failed", zap.Uint("actor_id", actor.AccountID), zap.Error(err))
		return nil, apperr.ErrInternal
	}

	publish(s.producer, s.log, dto.NewAccountEvent(dto.EventAccountCreated, acct.ID, acct.Email))
	return acct, nil
}

func (s *adminService) GetAccount(actor *helper.AccessClaims, targetID uint) (*domain.Account, error) {
	if actor == nil {
		return nil, apperr.ErrTokenInvalid
	}

	// Reads are threshold-gated, not hierarchy-gated: any admin can see any
	// account, target rank does not matter.
	if err := authz.Authorize(authz.OpView, authz.Check{
		ActorID:   actor.AccountID,
		ActorRole: actor.Role,
	}); err != nil {
		return nil, err
	}

	return s.repo.FindAccountById(targetID)
}

func (s *adminService) ListAccounts(actor *helper.AccessClaims, limit, offset int) ([]domain.Account, int64, error) {
	if actor == nil {
		return nil, 0, apperr.ErrTokenInvalid
	}

	if err := authz.Authorize(authz.OpView, authz.Check{
		ActorID:   actor.AccountID,
		ActorRole: actor.Role,
	}); err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.ListAccounts(limit, offset)
}

func (s *adminService) UpdateAccount(actor *helper.AccessClaims, targetID uint, input dto.AdminUpdateRequest) (*domain.Account, error) {
	target, err := s.loadTarget(actor, targetID, authz.OpUpdate)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		fn := strings.TrimSpace(*input.FirstName)
		if fn == "" {
			return nil, errors.New("first_name cannot be empty")
		}
		target.FirstName = fn
	}

	if input.LastName != nil {
		ln := strings.TrimSpace(*input.LastName)
		if ln == "" {
			return nil, errors.New("last_name cannot be empty")
		}
		target.LastName = ln
	}

	if input.Username != nil {
		un := strings.TrimSpace(strings.ToLower(*input.Username))
		if un == "" {
			return nil, errors.New("username cannot be empty")
		}
		target.Username = un
	}

	// A changed address is an unproven address: drop the verified flag and
	// the artifact minted for the old value.
	emailChanged := false
	if input.Email != nil {
		em := strings.TrimSpace(strings.ToLower(*input.Email))
		if em == "" {
			return nil, errors.New("email cannot be empty")
		}
		if em != target.Email {
			target.Email = em
			target.EmailVerified = false
			emailChanged = true
		}
	}

	phoneChanged := false
	if input.Phone != nil {
		p := strings.TrimSpace(*input.Phone)
		if p == "" {
			return nil, errors.New("phone cannot be empty")
		}
		if p != target.Phone {
			target.Phone = p
			target.PhoneVerified = false
			phoneChanged = true
		}
	}

	err = s.atomic.Transaction(func(r repository.TxRepos) error {
		if err := r.Accounts.SaveAccount(target); err != nil {
			return err
		}
		if emailChanged {
			if err := r.EmailVerifications.DeleteEmailVerificationByAccountId(target.ID); err != nil {
				return err
			}
		}
		if phoneChanged {
			if err := r.PhoneVerifications.DeletePhoneVerificationByAccountId(target.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := apperr.AsConflict(err); ok {
			return nil, err
		}
		s.log.Error("admin update failed", zap.Uint("target_id", targetID), zap.Error(err))
		return nil, apperr.ErrInternal
	}

	return target, nil
}

// DeleteAccount marks the target deleted. The row stays: deleted is a
// terminal status, not a removal.
func (s *adminService) DeleteAccount(actor *helper.AccessClaims, targetID uint) error {
	target, err := s.loadTarget(actor, targetID, authz.OpDelete)
	if err != nil {
		return err
	}

	if target.Status == domain.StatusDeleted {
		return nil
	}

	target.Status = domain.StatusDeleted
	if err := s.repo.SaveAccount(target); err != nil {
		s.log.Error("admin delete failed", zap.Uint("target_id", targetID), zap.Error(err))
		return apperr.ErrInternal
	}

	publish(s.producer, s.log, dto.NewAccountEvent(dto.EventStatusChanged, target.ID, target.Email))
	return nil
}

func (s *adminService) SetStatus(actor *helper.AccessClaims, targetID uint, status string) (*domain.Account, error) {
	next := domain.AccountStatus(strings.TrimSpace(strings.ToLower(status)))
	if !next.Valid() {
		return nil, errors.New("invalid status")
	}

	target, err := s.loadTarget(actor, targetID, authz.OpUpdate)
	if err != nil {
		return nil, err
	}

	if target.Status == next {
		return target, nil
	}

	target.Status = next
	if err := s.repo.SaveAccount(target); err != nil {
		s.log.Error("admin set status failed", zap.Uint("target_id", targetID), zap.Error(err))
		return nil, apperr.ErrInternal
	}

	publish(s.producer, s.log, dto.NewAccountEvent(dto.EventStatusChanged, target.ID, target.Email))
	return target, nil
}

func (s *adminService) ChangeRole(actor *helper.AccessClaims, targetID uint, newRole int) (*domain.Account, error) {
	if actor == nil {
		return nil, apperr.ErrTokenInvalid
	}
	if !domain.ValidRole(newRole) {
		return nil, errors.New("role must be between 1 and 5")
	}

	target, err := s.repo.FindAccountById(targetID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(authz.OpChangeRole, authz.Check{
		ActorID:    actor.AccountID,
		ActorRole:  actor.Role,
		TargetID:   target.ID,
		TargetRole: target.Role,
		NewRole:    newRole,
	}); err != nil {
		return nil, err
	}

	if target.Role == newRole {
		return target, nil
	}

	target.Role = newRole
	if err := s.repo.SaveAccount(target); err != nil {
		s.log.Error("admin change role failed", zap.Uint("target_id", targetID), zap.Error(err))
		return nil, apperr.ErrInternal
	}

	publish(s.producer, s.log, dto.NewAccountEvent(dto.EventRoleChanged, target.ID, target.Email))
	return target, nil
}

// ResetPassword sets a new password without the old one. Rank replaces
// knowledge here, so the authorize gate is the whole protection.
func (s *adminService) ResetPassword(actor *helper.AccessClaims, targetID uint, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return errors.New("password must be at least 8 characters")
	}

	target, err := s.loadTarget(actor, targetID, authz.OpResetPassword)
	if err != nil {
		return err
	}

	cred, err := s.creds.FindCredentialByAccountId(target.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return apperr.ErrInternal
	}

	if helper.VerifyPassword(newPassword, cred.Salt, cred.Hash) {
		return apperr.ErrSamePassword
	}

	salt, err := helper.GenerateSalt()
	if err != nil {
		return apperr.ErrInternal
	}
	if err := s.creds.RotateCredential(target.ID, helper.HashPassword(newPassword, salt), salt); err != nil {
		s.log.Error("admin reset password failed", zap.Uint("target_id", targetID), zap.Error(err))
		return apperr.ErrInternal
	}

	publish(s.producer, s.log, dto.NewAccountEvent(dto.EventPasswordChanged, target.ID, ""))
	return nil
}

// loadTarget resolves the target account and runs the hierarchy check for op.
func (s *adminService) loadTarget(actor *helper.AccessClaims, targetID uint, op authz.Operation) (*domain.Account, error) {
	if actor == nil {
		return nil, apperr.ErrTokenInvalid
	}
	if targetID == 0 {
		return nil, apperr.ErrNotFound
	}

	target, err := s.repo.FindAccountById(targetID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(op, authz.Check{
		ActorID:    actor.AccountID,
		ActorRole:  actor.Role,
		TargetID:   target.ID,
		TargetRole: target.Role,
	}); err != nil {
		return nil, err
	}

	return target, nil
}
