package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SundayYogurt/account_service/internal/apperr"
	"github.com/SundayYogurt/account_service/internal/domain"
	"github.com/SundayYogurt/account_service/internal/dto"
	"github.com/SundayYogurt/account_service/internal/helper/utils"
	"github.com/SundayYogurt/account_service/internal/interfaces"
	"github.com/SundayYogurt/account_service/internal/repository"
)

const emailTokenBytes = 32

type VerificationService interface {
	// Email: unverified -> pending(token) -> verified
	SendEmailVerification(ctx context.Context, accountID uint) error
	ConfirmEmailVerification(token string) error

	// Phone: unverified -> pending(code, attempts) -> verified
	SendPhoneVerification(ctx context.Context, accountID uint, carrier string) error
	VerifyPhoneCode(accountID uint, code string) error
}

type verificationService struct {
	repo     repository.AccountRepository
	emails   repository.EmailVerificationRepository
	phones   repository.PhoneVerificationRepository
	atomic   repository.Atomic
	mailer   interfaces.Messenger
	sms      interfaces.CodeSender
	producer interfaces.ProducerHandler
	log      *zap.Logger

	verifyURL string
}

func NewVerificationService(
	repo repository.AccountRepository,
	emails repository.EmailVerificationRepository,
	phones repository.PhoneVerificationRepository,
	atomic repository.Atomic,
	mailer interfaces.Messenger,
	sms interfaces.CodeSender,
	producer interfaces.ProducerHandler,
	log *zap.Logger,
	verifyURL string,
) VerificationService {
	return &verificationService{
		repo:      repo,
		emails:    emails,
		phones:    phones,
		atomic:    atomic,
		mailer:    mailer,
		sms:       sms,
		producer:  producer,
		log:       log,
		verifyURL: verifyURL,
	}
}

// EMAIL

func (s *verificationService) SendEmailVerification(ctx context.Context, accountID uint) error {
	acct, err := s.repo.FindAccountById(accountID)
	if err != nil {
		return err
	}
	if acct.EmailVerified {
		return apperr.ErrAlreadyVerified
	}

	plain, err := utils.RandomToken(emailTokenBytes)
	if err != nil {
		s.log.Error("generate verification token failed", zap.Error(err))
		return apperr.ErrInternal
	}

	// Rate check and replacement commit together: two sends racing past the
	// window check serialize on the per-account unique index, and the loser
	// comes back RateLimited.
	now := time.Now()
	err = s.atomic.Transaction(func(r repository.TxRepos) error {
		existing, err := r.EmailVerifications.FindEmailVerificationByAccountId(accountID)
		if err == nil && existing.WithinResendWindow(now) {
			return apperr.ErrRateLimited
		}
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		return r.EmailVerifications.ReplaceEmailVerification(&domain.EmailVerification{
			AccountID: accountID,
			TokenHash: utils.Sha256Hex(plain),
			ExpiresAt: now.Add(domain.EmailTokenTTL),
		})
	})
	if err != nil {
		if errors.Is(err, apperr.ErrRateLimited) {
			return apperr.ErrRateLimited
		}
		s.log.Error("replace email verification failed", zap.Uint("account_id", accountID), zap.Error(err))
		return apperr.ErrInternal
	}

	// Delivery failure does not roll the artifact back; the caller can retry
	// the send once the resend window passes and reuse what was stored.
	body := "Welcome! Confirm your email address within 48 hours: " + s.verifyURL + plain
	if err := s.mailer.Send(ctx, acct.Email, "Verify your email", body); err != nil {
		s.log.Warn("verification mail delivery failed", zap.Uint("account_id", accountID), zap.Error(err))
		return apperr.ErrDeliveryFailed
	}

	return nil
}

func (s *verificationService) ConfirmEmailVerification(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.ErrTokenInvalid
	}

	artifact, err := s.emails.FindEmailVerificationByTokenHash(utils.Sha256Hex(token))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrTokenInvalid
		}
		return apperr.ErrInternal
	}

	acct, err := s.repo.FindAccountById(artifact.AccountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrTokenInvalid
		}
		return apperr.ErrInternal
	}
	if acct.EmailVerified {
		return apperr.ErrAlreadyVerified
	}

	// Expired artifacts stay put so this path keeps reporting expiry rather
	// than pretending the token never existed.
	if artifact.Expired(time.Now()) {
		return apperr.ErrTokenExpired
	}

	acct.EmailVerified = true
	if acct.Status == domain.StatusPending {
		acct.Status = domain.StatusActive
	}

	err = s.atomic.Transaction(func(r repository.TxRepos) error {
		if err := r.Accounts.SaveAccount(acct); err != nil {
			return err
		}
		return r.EmailVerifications.DeleteEmailVerificationByAccountId(acct.ID)
	})
	if err != nil {
		s.log.Error("confirm email failed", zap.Uint("account_id", acct.ID), zap.Error(err))
		return apperr.ErrInternal
	}

	publish(s.producer, s.log, dto.NewAccountEvent(dto.EventEmailVerified, acct.ID, acct.Email))
	return nil
}

// PHONE

func (s *verificationService) SendPhoneVerification(ctx context.Context, accountID uint, carrier string) error {
	acct, err := s.repo.FindAccountById(accountID)
	if err != nil {
		return err
	}
	if acct.PhoneVerified {
		return apperr.ErrAlreadyVerified
	}

	code, err := utils.RandomDigits(6)
	if err != nil {
		s.log.Error("generate phone code failed", zap.Error(err))
		return apperr.ErrInternal
	}

	now := time.Now()
	err = s.atomic.Transaction(func(r repository.TxRepos) error {
		existing, err := r.PhoneVerifications.FindPhoneVerificationByAccountId(accountID)
		if err == nil && existing.WithinResendWindow(now) {
			return apperr.ErrRateLimited
		}
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		return r.PhoneVerifications.ReplacePhoneVerification(&domain.PhoneVerification{
			AccountID: accountID,
			Code:      code,
			Attempts:  0,
			ExpiresAt: now.Add(domain.PhoneCodeTTL),
		})
	})
	if err != nil {
		if errors.Is(err, apperr.ErrRateLimited) {
			return apperr.ErrRateLimited
		}
		s.log.Error("replace phone verification failed", zap.Uint("account_id", accountID), zap.Error(err))
		return apperr.ErrInternal
	}

	if err := s.sms.SendCode(ctx, acct.Phone, carrier, code); err != nil {
		s.log.Warn("sms delivery failed", zap.Uint("account_id", accountID), zap.Error(err))
		return apperr.ErrDeliveryFailed
	}

	return nil
}

func (s *verificationService) VerifyPhoneCode(accountID uint, code string) error {
	code = strings.TrimSpace(code)
	if accountID == 0 || code == "" {
		return apperr.ErrNoCodeFound
	}

	artifact, err := s.phones.FindPhoneVerificationByAccountId(accountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNoCodeFound
		}
		return apperr.ErrInternal
	}

	acct, err := s.repo.FindAccountById(accountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNoCodeFound
		}
		return apperr.ErrInternal
	}
	if acct.PhoneVerified {
		return apperr.ErrAlreadyVerified
	}

	if artifact.Expired(time.Now()) {
		return apperr.ErrCodeExpired
	}

	// A burned-out artifact rejects everything, matching code included.
	// Requesting a new code is the only way back in.
	if artifact.Exhausted() {
		return apperr.ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(artifact.Code), []byte(code)) != 1 {
		updated, err := s.phones.IncrementPhoneAttempts(artifact.ID)
		if err != nil {
			s.log.Error("increment attempts failed", zap.Uint("account_id", accountID), zap.Error(err))
			return apperr.ErrInternal
		}
		return &apperr.InvalidCode{Remaining: updated.Remaining()}
	}

	acct.PhoneVerified = true

	err = s.atomic.Transaction(func(r repository.TxRepos) error {
		if err := r.Accounts.SaveAccount(acct); err != nil {
			return err
		}
		return r.PhoneVerifications.DeletePhoneVerificationByAccountId(accountID)
	})
	if err != nil {
		s.log.Error("confirm phone failed", zap.Uint("account_id", accountID), zap.Error(err))
		return apperr.ErrInternal
	}

	publish(s.producer, s.log, dto.NewAccountEvent(dto.EventPhoneVerified, acct.ID, acct.Email))
	return nil
}
