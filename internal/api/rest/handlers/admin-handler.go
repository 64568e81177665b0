package handlers

import (
	"github.com/SundayYogurt/account_service/internal/dto"
	"github.com/SundayYogurt/account_service/internal/helper"
	"github.com/SundayYogurt/account_service/internal/helper/utils"
	"github.com/SundayYogurt/account_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	svc services.AdminService
}

func NewAdminHandler(svc services.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) CreateAccount(ctx *fiber.Ctx) error {
	actor := helper.GetCurrentAccount(ctx)
	if actor == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.AdminCreateRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	if requestBody.Email == "" || requestBody.Username == "" || requestBody.Password == "" ||
		requestBody.FirstName == "" || requestBody.LastName == "" || requestBody.Role == 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	acct, err := h.svc.CreateAccount(actor, requestBody)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseSuccess(ctx, fiber.StatusCreated, dto.ToAccountResponse(acct))
}

func (h *AdminHandler) ListAccounts(ctx *fiber.Ctx) error {
	actor := helper.GetCurrentAccount(ctx)
	if actor == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	accounts, total, err := h.svc.ListAccounts(actor, limit, offset)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	out := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, dto.ToAccountResponse(&accounts[i]))
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.ListAccountsResponse{
		Accounts: out,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

func (h *AdminHandler) GetAccount(ctx *fiber.Ctx) error {
	actor := helper.GetCurrentAccount(ctx)
	if actor == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	targetID, err := paramAccountID(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid account id")
	}

	acct, err := h.svc.GetAccount(actor, targetID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.ToAccountResponse(acct))
}

func (h *AdminHandler) UpdateAccount(ctx *fiber.Ctx) error {
	actor := helper.GetCurrentAccount(ctx)
	if actor == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	targetID, err := paramAccountID(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid account id")
	}

	var requestBody dto.AdminUpdateRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	acct, err := h.svc.UpdateAccount(actor, targetID, requestBody)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.ToAccountResponse(acct))
}

func (h *AdminHandler) DeleteAccount(ctx *fiber.Ctx) error {
	actor := helper.GetCurrentAccount(ctx)
	if actor == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	targetID, err := paramAccountID(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid account id")
	}

	if err := h.svc.DeleteAccount(actor, targetID); err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseMessage(ctx, fiber.StatusOK, "Account deleted")
}

func (h *AdminHandler) SetStatus(ctx *fiber.Ctx) error {
	actor := helper.GetCurrentAccount(ctx)
	if actor == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	targetID, err := paramAccountID(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid account id")
	}

	var requestBody dto.SetStatusRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Status == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid status")
	}

	acct, err := h.svc.SetStatus(actor, targetID, requestBody.Status)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.ToAccountResponse(acct))
}

func (h *AdminHandler) ChangeRole(ctx *fiber.Ctx) error {
	actor := helper.GetCurrentAccount(ctx)
	if actor == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	targetID, err := paramAccountID(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid account id")
	}

	var requestBody dto.ChangeRoleRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Role == 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid role")
	}

	acct, err := h.svc.ChangeRole(actor, targetID, requestBody.Role)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.ToAccountResponse(acct))
}

func (h *AdminHandler) ResetPassword(ctx *fiber.Ctx) error {
	actor := helper.GetCurrentAccount(ctx)
	if actor == nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	targetID, err := paramAccountID(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid account id")
	}

	var requestBody dto.AdminResetPasswordRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.NewPassword == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid password")
	}

	if err := h.svc.ResetPassword(actor, targetID, requestBody.NewPassword); err != nil {
		return respondServiceError(ctx, err)
	}

	return utils.ResponseMessage(ctx, fiber.StatusOK, "Password reset successfully")
}

func paramAccountID(ctx *fiber.Ctx) (uint, error) {
	id, err := ctx.ParamsInt("accountID")
	if err != nil || id <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}
