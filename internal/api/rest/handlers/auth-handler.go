package handlers

import (
	"time"

	"github.com/SundayYogurt/account_service/internal/dto"
	"github.com/SundayYogurt/account_service/internal/helper"
	"github.com/SundayYogurt/account_service/internal/helper/utils"
	"github.com/SundayYogurt/account_service/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc          services.AccountService
	verification services.VerificationService
	log          *zap.Logger
}

func NewAuthHandler(svc services.AccountService, verification services.VerificationService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, verification: verification, log: log}
}

func (h *AuthHandler) Register(ctx *fiber.Ctx) error {
	var requestBody dto.RegisterRequest

	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	if requestBody.Email == "" || requestBody.Username == "" || requestBody.Password == "" ||
		requestBody.FirstName == "" || requestBody.LastName == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	acct, err := h.svc.Register(requestBody)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	// First verification mail rides on registration. Failure here must not
	// undo the signup; the account can always request a resend.
	if err := h.verification.SendEmailVerification(ctx.UserContext(), acct.ID); err != nil {
		h.log.Warn("post-register verification mail failed",
			zap.Uint("account_id", acct.ID), zap.Error(err))
	}

	return utils.ResponseSuccess(ctx, fiber.StatusCreated, dto.ToAccountResponse(acct))
}

func (h *AuthHandler) Login(ctx *fiber.Ctx) error {
	var requestBody dto.AccountLogin
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email and password are required")
	}
	if requestBody.Email == "" || requestBody.Password == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email and password are required")
	}

	resp, err := h.svc.Login(requestBody)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    resp.Token,
		Expires:  time.Now().Add(helper.AccessTokenTTL),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *AuthHandler) ForgotPassword(ctx *fiber.Ctx) error {
	var requestBody dto.ForgotPasswordRequest

	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Email == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid email id")
	}

	if err := h.svc.ForgotPassword(ctx.UserContext(), requestBody.Email); err != nil {
		return respondServiceError(ctx, err)
	}

	// Same answer whether or not the address exists.
	return utils.ResponseMessage(ctx, fiber.StatusOK, "If the account exists, a reset link has been sent")
}

func (h *AuthHandler) SetPassword(ctx *fiber.Ctx) error {
	var requestBody dto.SetPasswordRequest

	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Token == "" || requestBody.NewPassword == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid input")
	}

	if err := h.svc.SetPassword(requestBody); err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseMessage(ctx, fiber.StatusOK, "Password reset successfully")
}

func (h *AuthHandler) Me(ctx *fiber.Ctx) error {
	claims := helper.GetCurrentAccount(ctx)
	if claims == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	acct, err := h.svc.Authenticate(claims)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.ToAccountResponse(acct))
}

func (h *AuthHandler) UpdateProfile(ctx *fiber.Ctx) error {
	claims := helper.GetCurrentAccount(ctx)
	if claims == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.UpdateProfileRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	acct, err := h.svc.UpdateProfile(claims.AccountID, requestBody)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.ToAccountResponse(acct))
}

func (h *AuthHandler) ChangePassword(ctx *fiber.Ctx) error {
	claims := helper.GetCurrentAccount(ctx)
	if claims == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.ChangePasswordRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.OldPassword == "" || requestBody.NewPassword == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	if err := h.svc.ChangePassword(claims.AccountID, requestBody); err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseMessage(ctx, fiber.StatusOK, "Password changed successfully")
}
