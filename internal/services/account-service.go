package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SundayYogurt/account_service/internal/apperr"
	"github.com/SundayYogurt/account_service/internal/domain"
	"github.com/SundayYogurt/account_service/internal/dto"
	"github.com/SundayYogurt/account_service/internal/helper"
	"github.com/SundayYogurt/account_service/internal/interfaces"
	"github.com/SundayYogurt/account_service/internal/repository"
)

const (
	minPasswordLen = 8

	// Detached sends get their own deadline; the request context is gone by
	// the time they run.
	mailSendTimeout = 15 * time.Second
)

type AccountService interface {
	// Auth
	Register(input dto.RegisterRequest) (*domain.Account, error)
	Login(input dto.AccountLogin) (*dto.LoginResponse, error)
	Authenticate(claims *helper.AccessClaims) (*domain.Account, error)

	// Password lifecycle
	ChangePassword(accountID uint, input dto.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, email string) error
	SetPassword(input dto.SetPasswordRequest) error

	// Profile
	GetProfile(accountID uint) (*domain.Account, error)
	UpdateProfile(accountID uint, input dto.UpdateProfileRequest) (*domain.Account, error)
}

type accountService struct {
	repo     repository.AccountRepository
	creds    repository.CredentialRepository
	atomic   repository.Atomic
	auth     helper.Auth
	mailer   interfaces.Messenger
	producer interfaces.ProducerHandler
	log      *zap.Logger

	resetURL string
}

func NewAccountService(
	repo repository.AccountRepository,
	creds repository.CredentialRepository,
	atomic repository.Atomic,
	auth helper.Auth,
	mailer interfaces.Messenger,
	producer interfaces.ProducerHandler,
	log *zap.Logger,
	resetURL string,
) AccountService {
	return &accountService{
		repo:     repo,
		creds:    creds,
		atomic:   atomic,
		auth:     auth,
		mailer:   mailer,
		producer: producer,
		log:      log,
		resetURL: resetURL,
	}
}

// AUTH

func (s *accountService) Register(input dto.RegisterRequest) (*domain.Account, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	username := strings.TrimSpace(strings.ToLower(input.Username))
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	phone := strings.TrimSpace(input.Phone)
	password := input.Password

	if email == "" || username == "" || firstName == "" || lastName == "" || phone == "" {
		return nil, errors.New("invalid inputs")
	}
	if len(password) < minPasswordLen {
		return nil, errors.New("password must be at least 8 characters")
	}

	salt, err := helper.GenerateSalt()
	if err != nil {
		return nil, apperr.ErrInternal
	}
	hash := helper.HashPassword(password, salt)

	acct := &domain.Account{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Username:  username,
		Phone:     phone,
		Role:      domain.RoleMember,
		Status:    domain.StatusPending,
	}

	// Account and credential land together or not at all. Duplicate email,
	// username or phone surfaces as a Conflict from the store's unique
	// indexes; there is no check-then-insert race.
	err = s.atomic.Transaction(func(r repository.TxRepos) error {
		created, err := r.Accounts.CreateAccount(acct)
		if err != nil {
			return err
		}
		return r.Credentials.CreateCredential(&domain.Credential{
			AccountID:  created.ID,
			Hash:       hash,
			Salt:       salt,
			Generation: 1,
		})
	})
	if err != nil {
		if _, ok := apperr.AsConflict(err); ok {
			return nil, err
		}
		s.log.Error("register failed", zap.String("email", email), zap.Error(err))
		return nil, apperr.ErrInternal
	}

	publish(s.producer, s.log, dto.NewAccountEvent(dto.EventAccountRegistered, acct.ID, acct.Email))

	return acct, nil
}

func (s *accountService) Login(input dto.AccountLogin) (*dto.LoginResponse, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := input.Password

	if email == "" || password == "" {
		return nil, apperr.ErrInvalidCredentials
	}

	acct, err := s.repo.FindAccountByEmail(email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// Burn a digest so an unknown email costs the same as a wrong
			// password and both fail with the identical message.
			helper.BurnVerify(password)
			return nil, apperr.ErrInvalidCredentials
		}
		s.log.Error("login lookup failed", zap.Error(err))
		return nil, apperr.ErrInternal
	}

	cred, err := s.creds.FindCredentialByAccountId(acct.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			helper.BurnVerify(password)
			return nil, apperr.ErrInvalidCredentials
		}
		s.log.Error("login credential lookup failed", zap.Uint("account_id", acct.ID), zap.Error(err))
		return nil, apperr.ErrInternal
	}

	if !helper.VerifyPassword(password, cred.Salt, cred.Hash) {
		return nil, apperr.ErrInvalidCredentials
	}

	// State checks come after the password so they reveal nothing to a
	// caller who does not hold the credential.
	if !acct.EmailVerified {
		return nil, apperr.ErrEmailNotVerified
	}
	if acct.Status != domain.StatusActive {
		return nil, apperr.ErrAccountInactive
	}

	token, err := s.auth.IssueAccessToken(acct)
	if err != nil {
		s.log.Error("issue access token failed", zap.Uint("account_id", acct.ID), zap.Error(err))
		return nil, apperr.ErrInternal
	}

	return &dto.LoginResponse{
		Token:   token,
		Account: dto.ToAccountResponse(acct),
	}, nil
}

// Authenticate reconciles a verified token against current account state, so
// a suspension that happened after issuance still locks the holder out.
func (s *accountService) Authenticate(claims *helper.AccessClaims) (*domain.Account, error) {
	if claims == nil || claims.AccountID == 0 {
		return nil, apperr.ErrTokenInvalid
	}

	acct, err := s.repo.FindAccountById(claims.AccountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrTokenInvalid
		}
		return nil, apperr.ErrInternal
	}

	if acct.Status != domain.StatusActive {
		return nil, apperr.ErrAccountInactive
	}

	return acct, nil
}

// PASSWORD LIFECYCLE

func (s *accountService) ChangePassword(accountID uint, input dto.ChangePasswordRequest) error {
	if accountID == 0 {
		return apperr.ErrNotFound
	}
	if input.OldPassword == "" || len(input.NewPassword) < minPasswordLen {
		return errors.New("password must be at least 8 characters")
	}

	cred, err := s.creds.FindCredentialByAccountId(accountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return apperr.ErrInternal
	}

	if !helper.VerifyPassword(input.OldPassword, cred.Salt, cred.Hash) {
		return apperr.ErrIncorrectCredential
	}
	if input.NewPassword == input.OldPassword {
		return apperr.ErrSamePassword
	}

	if err := s.rotate(accountID, input.NewPassword); err != nil {
		return err
	}

	publish(s.producer, s.log, dto.NewAccountEvent(dto.EventPasswordChanged, accountID, ""))
	return nil
}

// ForgotPassword answers uniformly whether or not the email maps to an
// account, so the endpoint cannot be used to enumerate registrations. The
// reset mail goes out asynchronously for the same reason: delivery time must
// not show up in the response time.
func (s *accountService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil
	}

	acct, err := s.repo.FindAccountByEmail(email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.burnResetIssue()
			return nil
		}
		s.log.Error("forgot password lookup failed", zap.Error(err))
		return apperr.ErrInternal
	}

	// Reset links only go to addresses the owner has proven.
	if !acct.EmailVerified {
		s.burnResetIssue()
		return nil
	}

	cred, err := s.creds.FindCredentialByAccountId(acct.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.burnResetIssue()
			return nil
		}
		s.log.Error("forgot password credential lookup failed", zap.Uint("account_id", acct.ID), zap.Error(err))
		return apperr.ErrInternal
	}

	token, err := s.auth.IssueResetToken(acct.ID, cred.Generation)
	if err != nil {
		s.log.Error("issue reset token failed", zap.Uint("account_id", acct.ID), zap.Error(err))
		return apperr.ErrInternal
	}

	to := acct.Email
	link := s.resetURL + token
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), mailSendTimeout)
		defer cancel()
		body := "Someone requested a password reset for your account.\n\n" +
			"Reset your password within the next hour: " + link + "\n\n" +
			"If this was not you, ignore this message."
		if err := s.mailer.Send(sendCtx, to, "Reset your password", body); err != nil {
			s.log.Warn("reset mail delivery failed", zap.Error(err))
		}
	}()

	return nil
}

// burnResetIssue signs a token nobody will ever see. The ineligible
// branches of ForgotPassword call it so they cost about the same as the
// branch that mints a real claim. Generation 0 never matches a live
// credential, so the throwaway is useless even if it leaked.
func (s *accountService) burnResetIssue() {
	_, _ = s.auth.IssueResetToken(1, 0)
}

func (s *accountService) SetPassword(input dto.SetPasswordRequest) error {
	token := strings.TrimSpace(input.Token)
	if token == "" {
		return apperr.ErrTokenInvalid
	}
	if len(input.NewPassword) < minPasswordLen {
		return errors.New("password must be at least 8 characters")
	}

	claims, err := s.auth.VerifyResetToken(token)
	if err != nil {
		return err
	}

	var accountID uint
	err = s.atomic.Transaction(func(r repository.TxRepos) error {
		acct, err := r.Accounts.FindAccountById(claims.AccountID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.ErrTokenInvalid
			}
			return err
		}

		cred, err := r.Credentials.FindCredentialByAccountId(acct.ID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.ErrTokenInvalid
			}
			return err
		}

		// The token was minted against a specific credential generation. A
		// completed reset (or any password change) bumps the generation, so
		// every other outstanding token dies here.
		if cred.Generation != claims.Generation {
			return apperr.ErrClaimConsumed
		}

		if helper.VerifyPassword(input.NewPassword, cred.Salt, cred.Hash) {
			return apperr.ErrSamePassword
		}

		salt, err := helper.GenerateSalt()
		if err != nil {
			return err
		}
		if err := r.Credentials.RotateCredential(acct.ID, helper.HashPassword(input.NewPassword, salt), salt); err != nil {
			return err
		}

		accountID = acct.ID
		return r.Accounts.SaveAccount(acct)
	})
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrTokenInvalid),
			errors.Is(err, apperr.ErrClaimConsumed),
			errors.Is(err, apperr.ErrSamePassword):
			return err
		}
		s.log.Error("reset password failed", zap.Uint("account_id", claims.AccountID), zap.Error(err))
		return apperr.ErrInternal
	}

	publish(s.producer, s.log, dto.NewAccountEvent(dto.EventPasswordChanged, accountID, ""))
	return nil
}

// PROFILE

func (s *accountService) GetProfile(accountID uint) (*domain.Account, error) {
	if accountID == 0 {
		return nil, apperr.ErrNotFound
	}
	return s.repo.FindAccountById(accountID)
}

func (s *accountService) UpdateProfile(accountID uint, input dto.UpdateProfileRequest) (*domain.Account, error) {
	if accountID == 0 {
		return nil, apperr.ErrNotFound
	}

	acct, err := s.repo.FindAccountById(accountID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		fn := strings.TrimSpace(*input.FirstName)
		if fn == "" {
			return nil, errors.New("first_name cannot be empty")
		}
		acct.FirstName = fn
	}

	if input.LastName != nil {
		ln := strings.TrimSpace(*input.LastName)
		if ln == "" {
			return nil, errors.New("last_name cannot be empty")
		}
		acct.LastName = ln
	}

	if err := s.repo.SaveAccount(acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// rotate swaps in fresh password material. The generation bump rides along in
// the same statement.
func (s *accountService) rotate(accountID uint, newPassword string) error {
	salt, err := helper.GenerateSalt()
	if err != nil {
		return apperr.ErrInternal
	}

	if err := s.creds.RotateCredential(accountID, helper.HashPassword(newPassword, salt), salt); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFound
		}
		s.log.Error("rotate credential failed", zap.Uint("account_id", accountID), zap.Error(err))
		return apperr.ErrInternal
	}
	return nil
}
