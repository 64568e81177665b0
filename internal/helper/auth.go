package helper

import (
	"errors"
	"strings"
	"time"

	"github.com/SundayYogurt/account_service/internal/apperr"
	"github.com/SundayYogurt/account_service/internal/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTokenTTL = 14 * 24 * time.Hour
	ResetTokenTTL  = time.Hour

	resetPurpose = "password_reset"
)

// AccessClaims is the payload of a login token. It carries everything the
// request path needs so no lookup happens on verification.
type AccessClaims struct {
	AccountID   uint   `json:"account_id"`
	DisplayName string `json:"display_name"`
	Role        int    `json:"role"`
	jwt.RegisteredClaims
}

// ResetClaims is the payload of a password-reset token. Generation pins the
// claim to the credential generation it was issued against; consuming a reset
// bumps the generation, which invalidates every other outstanding claim.
type ResetClaims struct {
	AccountID  uint   `json:"account_id"`
	Generation int64  `json:"generation"`
	Purpose    string `json:"purpose"`
	jwt.RegisteredClaims
}

// Auth signs and verifies both token kinds with one process-wide HS256 secret.
type Auth struct {
	Secret string
}

func SetupAuth(s string) Auth {
	return Auth{
		Secret: s,
	}
}

func (a Auth) IssueAccessToken(acct *domain.Account) (string, error) {
	if acct == nil || acct.ID == 0 {
		return "", errors.New("required inputs are missing to generate token")
	}

	now := time.Now()
	claims := AccessClaims{
		AccountID:   acct.ID,
		DisplayName: acct.DisplayName(),
		Role:        acct.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(a.Secret))
	if err != nil {
		return "", errors.New("unable to sign the token")
	}

	return tokenStr, nil
}

// VerifyAccessToken parses and validates a login token. An expired but
// properly signed token fails with ErrTokenExpired, anything else with
// ErrTokenInvalid, so callers can tell the two apart.
func (a Auth) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	tokenString, err := normalizeToken(tokenString)
	if err != nil {
		return nil, apperr.ErrTokenInvalid
	}

	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, a.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrTokenInvalid
	}
	if !token.Valid || claims.AccountID == 0 {
		return nil, apperr.ErrTokenInvalid
	}

	return claims, nil
}

func (a Auth) IssueResetToken(accountID uint, generation int64) (string, error) {
	if accountID == 0 {
		return "", errors.New("required inputs are missing to generate token")
	}

	now := time.Now()
	claims := ResetClaims{
		AccountID:  accountID,
		Generation: generation,
		Purpose:    resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ResetTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(a.Secret))
	if err != nil {
		return "", errors.New("unable to sign the token")
	}

	return tokenStr, nil
}

func (a Auth) VerifyResetToken(tokenString string) (*ResetClaims, error) {
	tokenString, err := normalizeToken(tokenString)
	if err != nil {
		return nil, apperr.ErrTokenInvalid
	}

	claims := &ResetClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, a.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrTokenInvalid
	}
	if !token.Valid || claims.AccountID == 0 || claims.Purpose != resetPurpose {
		return nil, apperr.ErrTokenInvalid
	}

	return claims, nil
}

// GetCurrentAccount returns the claims the auth middleware stored on the
// request, or nil when there are none.
func GetCurrentAccount(ctx *fiber.Ctx) *AccessClaims {
	claims, ok := ctx.Locals("account").(*AccessClaims)
	if !ok {
		return nil
	}
	return claims
}

func (a Auth) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return []byte(a.Secret), nil
}

// normalizeToken supports both:
// - "Bearer <token>"
// - "<token>"
func normalizeToken(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return "", errors.New("missing token")
	}

	if strings.HasPrefix(strings.ToLower(tokenString), "bearer ") {
		parts := strings.SplitN(tokenString, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			return "", errors.New("invalid token format")
		}
		tokenString = strings.TrimSpace(parts[1])
	}

	return tokenString, nil
}
