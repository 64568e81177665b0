package apperr

import (
	"errors"
	"fmt"
)

// Expected outcomes of core operations. Handlers translate these into HTTP
// statuses; anything outside this set is an internal failure and must be
// logged and surfaced opaquely.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrIncorrectCredential = errors.New("incorrect password")
	ErrSamePassword        = errors.New("new password must be different from the current one")
	ErrEmailNotVerified    = errors.New("please verify email")
	ErrAccountInactive     = errors.New("account is not active")
	ErrAlreadyVerified     = errors.New("already verified")
	ErrTokenInvalid        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrClaimConsumed       = errors.New("reset token already used")
	ErrRateLimited         = errors.New("please wait before requesting again")
	ErrNoCodeFound         = errors.New("no verification code requested")
	ErrCodeExpired         = errors.New("verification code expired")
	ErrTooManyAttempts     = errors.New("too many attempts, request a new code")
	ErrDeliveryFailed      = errors.New("could not deliver message")
	ErrInternal            = errors.New("internal error")
)

// Conflict reports a uniqueness violation on a single account field.
type Conflict struct {
	Field string
}

func (e *Conflict) Error() string {
	return e.Field + " already exists"
}

func NewConflict(field string) error {
	return &Conflict{Field: field}
}

// AsConflict unwraps err into a *Conflict if it is one.
func AsConflict(err error) (*Conflict, bool) {
	var c *Conflict
	if errors.As(err, &c) {
		return c, true
	}
	return nil, false
}

// InvalidCode is returned on a phone code mismatch and carries how many
// attempts remain before the artifact locks out.
type InvalidCode struct {
	Remaining int
}

func (e *InvalidCode) Error() string {
	return fmt.Sprintf("invalid code, %d attempt(s) remaining", e.Remaining)
}

// AsInvalidCode unwraps err into an *InvalidCode if it is one.
func AsInvalidCode(err error) (*InvalidCode, bool) {
	var ic *InvalidCode
	if errors.As(err, &ic) {
		return ic, true
	}
	return nil, false
}
