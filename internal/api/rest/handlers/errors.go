package handlers

import (
	"errors"

	"github.com/SundayYogurt/account_service/internal/apperr"
	"github.com/SundayYogurt/account_service/internal/authz"
	"github.com/SundayYogurt/account_service/internal/helper/utils"
	"github.com/gofiber/fiber/v2"
)

// respondServiceError maps expected service errors onto HTTP statuses.
// Anything unrecognized is answered opaquely; the service layer has already
// logged the cause.
func respondServiceError(ctx *fiber.Ctx, err error) error {
	if _, ok := authz.IsDenial(err); ok {
		return utils.ResponseError(ctx, fiber.StatusForbidden, err.Error())
	}
	if _, ok := apperr.AsConflict(err); ok {
		return utils.ResponseError(ctx, fiber.StatusConflict, err.Error())
	}
	if _, ok := apperr.AsInvalidCode(err); ok {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}

	switch {
	case errors.Is(err, apperr.ErrInvalidCredentials),
		errors.Is(err, apperr.ErrTokenInvalid),
		errors.Is(err, apperr.ErrTokenExpired),
		errors.Is(err, apperr.ErrClaimConsumed):
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())

	case errors.Is(err, apperr.ErrEmailNotVerified),
		errors.Is(err, apperr.ErrAccountInactive):
		return utils.ResponseError(ctx, fiber.StatusForbidden, err.Error())

	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrNoCodeFound):
		return utils.ResponseError(ctx, fiber.StatusNotFound, err.Error())

	case errors.Is(err, apperr.ErrRateLimited),
		errors.Is(err, apperr.ErrTooManyAttempts):
		return utils.ResponseError(ctx, fiber.StatusTooManyRequests, err.Error())

	case errors.Is(err, apperr.ErrSamePassword),
		errors.Is(err, apperr.ErrIncorrectCredential),
		errors.Is(err, apperr.ErrAlreadyVerified),
		errors.Is(err, apperr.ErrCodeExpired):
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())

	case errors.Is(err, apperr.ErrDeliveryFailed):
		return utils.ResponseError(ctx, fiber.StatusBadGateway, err.Error())
	}

	return utils.ResponseError(ctx, fiber.StatusInternalServerError, "internal error")
}
