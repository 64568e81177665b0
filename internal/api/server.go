package api

import (
	"errors"
	"log"
	"strings"

	"github.com/SundayYogurt/account_service/config"
	"github.com/SundayYogurt/account_service/infra/queue"
	"github.com/SundayYogurt/account_service/internal/api/rest/handlers"
	"github.com/SundayYogurt/account_service/internal/domain"
	"github.com/SundayYogurt/account_service/internal/helper"
	"github.com/SundayYogurt/account_service/internal/repository"
	"github.com/SundayYogurt/account_service/internal/services"
	"github.com/SundayYogurt/account_service/pkg/logger"
	"github.com/SundayYogurt/account_service/pkg/mailer"
	"github.com/SundayYogurt/account_service/pkg/sms"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func StartServer(cfg config.Config) {
	logg, err := logger.Init(logger.Config{
		Level: cfg.LogLevel,
		Dev:   cfg.LogDev,
		File:  cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	app := fiber.New()

	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.BaseURL,
		AllowHeaders:     "Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// ---------- DB ----------
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		logg.Fatal("database connection error", zap.Error(err))
	}
	logg.Info("database connected")

	// ---------- MIGRATION + SEED (guarded by advisory lock) ----------
	// Same fixed id in every instance, so only one of them runs the migration.
	const migrateLockID int64 = 20260601

	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		logg.Fatal("migration lock error", zap.Error(err))
	}
	defer func() {
		_ = db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error
	}()

	if err := db.AutoMigrate(
		&domain.Account{},
		&domain.Credential{},
		&domain.EmailVerification{},
		&domain.PhoneVerification{},
	); err != nil {
		logg.Fatal("migration error", zap.Error(err))
	}
	logg.Info("migration successful")

	seedOwner(db, cfg, logg)

	// ---------- Infra ----------
	kafkaProducer := queue.NewProducer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
	)
	mail := mailer.NewMailer(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		FromName: cfg.MailFromName,
	}, logg)
	texter := sms.NewTexter(cfg.SMSGatewayDomain, mail, logg)

	authHelper := helper.SetupAuth(cfg.AccessSecret)

	// ---------- Repositories ----------
	accountRepo := repository.NewAccountRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	emailRepo := repository.NewEmailVerificationRepository(db)
	phoneRepo := repository.NewPhoneVerificationRepository(db)
	atomic := repository.NewAtomic(db)

	// ---------- Service ----------
	accountSvc := services.NewAccountService(
		accountRepo,
		credentialRepo,
		atomic,
		authHelper,
		mail,
		kafkaProducer,
		logg,
		cfg.ResetURL,
	)
	verificationSvc := services.NewVerificationService(
		accountRepo,
		emailRepo,
		phoneRepo,
		atomic,
		mail,
		texter,
		kafkaProducer,
		logg,
		cfg.VerifyURL,
	)
	adminSvc := services.NewAdminService(
		accountRepo,
		credentialRepo,
		atomic,
		kafkaProducer,
		logg,
	)

	// ---------- Handler ----------
	authHandler := handlers.NewAuthHandler(accountSvc, verificationSvc, logg)
	verificationHandler := handlers.NewVerificationHandler(verificationSvc)
	adminHandler := handlers.NewAdminHandler(adminSvc)
	handlers.SetupRoutes(app, authHelper, cfg.RateLimitRPM, authHandler, verificationHandler, adminHandler)

	// ---------- Health ----------
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ---------- Listen ----------
	logg.Info("listening", zap.String("addr", cfg.ServerPort))
	if err := app.Listen(cfg.ServerPort); err != nil {
		logg.Fatal("server stopped", zap.Error(err))
	}
}

// seedOwner makes sure one role-5 account exists so the admin surface is
// reachable on a fresh database. It never touches an existing account.
func seedOwner(db *gorm.DB, cfg config.Config, logg *zap.Logger) {
	if cfg.OwnerEmail == "" || cfg.OwnerPassword == "" || cfg.OwnerUsername == "" {
		logg.Debug("owner seed skipped, no credentials configured")
		return
	}

	email := strings.ToLower(strings.TrimSpace(cfg.OwnerEmail))

	var existing domain.Account
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logg.Warn("owner seed lookup failed", zap.Error(err))
		return
	}

	salt, err := helper.GenerateSalt()
	if err != nil {
		logg.Warn("owner seed salt failed", zap.Error(err))
		return
	}

	firstName, lastName := cfg.OwnerFirstName, cfg.OwnerLastName
	if firstName == "" {
		firstName = "System"
	}
	if lastName == "" {
		lastName = "Owner"
	}

	acct := domain.Account{
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		Username:      strings.ToLower(strings.TrimSpace(cfg.OwnerUsername)),
		Phone:         cfg.OwnerPhone,
		Role:          domain.RoleOwner,
		Status:        domain.StatusActive,
		EmailVerified: true,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&acct).Error; err != nil {
			return err
		}
		return tx.Create(&domain.Credential{
			AccountID:  acct.ID,
			Hash:       helper.HashPassword(cfg.OwnerPassword, salt),
			Salt:       salt,
			Generation: 1,
		}).Error
	})
	if err != nil {
		logg.Warn("owner seed failed", zap.Error(err))
		return
	}

	logg.Info("owner account seeded", zap.Uint("account_id", acct.ID))
}
