package handlers

import (
	"github.com/SundayYogurt/account_service/internal/dto"
	"github.com/SundayYogurt/account_service/internal/helper"
	"github.com/SundayYogurt/account_service/internal/helper/utils"
	"github.com/SundayYogurt/account_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type VerificationHandler struct {
	svc services.VerificationService
}

func NewVerificationHandler(svc services.VerificationService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) SendEmail(ctx *fiber.Ctx) error {
	claims := helper.GetCurrentAccount(ctx)
	if claims == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.svc.SendEmailVerification(ctx.UserContext(), claims.AccountID); err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseMessage(ctx, fiber.StatusOK, "Verification email sent")
}

// ConfirmEmail handles the link from the verification mail, so the token
// arrives as a query parameter.
func (h *VerificationHandler) ConfirmEmail(ctx *fiber.Ctx) error {
	token := ctx.Query("token")
	if token == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid token")
	}

	if err := h.svc.ConfirmEmailVerification(token); err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseMessage(ctx, fiber.StatusOK, "Email verified successfully")
}

func (h *VerificationHandler) SendPhone(ctx *fiber.Ctx) error {
	claims := helper.GetCurrentAccount(ctx)
	if claims == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	// Body is optional; the carrier hint only shapes the gateway address.
	var requestBody dto.SendPhoneRequest
	_ = ctx.BodyParser(&requestBody)

	if err := h.svc.SendPhoneVerification(ctx.UserContext(), claims.AccountID, requestBody.Carrier); err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseMessage(ctx, fiber.StatusOK, "Verification code sent")
}

func (h *VerificationHandler) VerifyPhone(ctx *fiber.Ctx) error {
	claims := helper.GetCurrentAccount(ctx)
	if claims == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.VerifyPhoneRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Code == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid code")
	}

	if err := h.svc.VerifyPhoneCode(claims.AccountID, requestBody.Code); err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.VerifyPhoneResponse{Verified: true})
}
