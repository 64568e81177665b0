package handlers

import (
	"github.com/SundayYogurt/account_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/account_service/internal/helper"
	"github.com/gofiber/fiber/v2"
)

// Public endpoints share one bucket per IP; everything on this surface is a
// guessing target (credentials, reset tokens, verification links).
const (
	defaultPublicRPM = 300
	publicBurst      = 10
)

func SetupRoutes(app *fiber.App, auth helper.Auth, publicRPM int, authH *AuthHandler, verifyH *VerificationHandler, adminH *AdminHandler) {
	if publicRPM <= 0 {
		publicRPM = defaultPublicRPM
	}

	api := app.Group("/api")

	// =========================
	// AUTH (public)
	// =========================
	public := api.Group("/auth", middleware.RateLimit(float64(publicRPM)/60, publicBurst))
	public.Post("/register", authH.Register)
	public.Post("/login", authH.Login)
	public.Post("/forgot-password", authH.ForgotPassword)
	public.Post("/reset-password", authH.SetPassword)
	public.Get("/verify-email", verifyH.ConfirmEmail) // link target from the mail

	// =========================
	// ACCOUNT (authenticated)
	// =========================
	account := api.Group("/account", middleware.AuthMiddleware(auth))
	account.Get("/me", authH.Me)
	account.Patch("/me", authH.UpdateProfile)
	account.Post("/change-password", authH.ChangePassword)
	account.Post("/verify-email/send", verifyH.SendEmail)
	account.Post("/verify-phone/send", verifyH.SendPhone)
	account.Post("/verify-phone", verifyH.VerifyPhone)

	// =========================
	// ADMIN (role-gated)
	// =========================
	admin := api.Group("/admin", middleware.AuthMiddleware(auth), middleware.RequireAdmin())
	admin.Post("/accounts", adminH.CreateAccount)
	admin.Get("/accounts", adminH.ListAccounts)
	admin.Get("/accounts/:accountID", adminH.GetAccount)
	admin.Patch("/accounts/:accountID", adminH.UpdateAccount)
	admin.Delete("/accounts/:accountID", adminH.DeleteAccount)
	admin.Patch("/accounts/:accountID/status", adminH.SetStatus)
	admin.Patch("/accounts/:accountID/role", adminH.ChangeRole)
	admin.Post("/accounts/:accountID/reset-password", adminH.ResetPassword)
}
