package app

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tradeboard_backend/database"
	"tradeboard_backend/internal/auth"
	"tradeboard_backend/internal/config"
	"tradeboard_backend/internal/handlers"
	"tradeboard_backend/internal/logger"
	"tradeboard_backend/internal/middleware"
	"tradeboard_backend/internal/payments"
	"tradeboard_backend/internal/pkg/email"
	"tradeboard_backend/internal/repositories"
	"tradeboard_backend/internal/routes"
	"tradeboard_backend/internal/services"
	"tradeboard_backend/internal/storage"
	"tradeboard_backend/internal/validator"
	"tradeboard_backend/internal/workers"
	"tradeboard_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("logger initialized", "env", cfg.Server.Env)
	apperrors.SetDebug(cfg.Server.Env != "production")

	// TranslateError turns driver unique-violation errors into
	// gorm.ErrDuplicatedKey, which the repositories rely on.
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("failed to get *sql.DB from GORM", "error", err)
	}
	if err := sqlDB.Ping(); err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	logger.Info("database connected")

	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("migration failed", "error", err)
	}

	notifier, sweeper, router := SetupRouter(cfg, gormDB)
	notifier.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if sweeper != nil {
		sweeper.Start(ctx)
		logger.Info("sweep worker enabled")
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{Addr: address, Handler: router}

	go func() {
		logger.Info("server starting", "address", address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	notifier.Stop()
	logger.Info("server stopped")
}

// SetupRouter wires repositories, services and handlers into a Gin
// engine. Split from Run so handler tests can build the full router
// against fakes. The returned sweep worker is nil when disabled; the
// caller owns starting it so its lifetime follows the server's.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*services.Notifier, *workers.SweepWorker, *gin.Engine) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.NewStorage(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}

	sender := buildEmailSender(cfg)
	notifier := services.NewNotifier(sender)

	provider := payments.NewStripeProvider(cfg.Payment.SecretKey, cfg.Payment.WebhookSecret)
	prices := services.PlanPrices{
		Starter:      cfg.Payment.PriceStarter,
		Growth:       cfg.Payment.PriceGrowth,
		Professional: cfg.Payment.PriceProfessional,
		Enterprise:   cfg.Payment.PriceEnterprise,
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)

	userRepo := repositories.NewUserRepository(gormDB)
	jobRepo := repositories.NewJobRepository(gormDB)
	appRepo := repositories.NewApplicationRepository(gormDB)
	subRepo := repositories.NewSubscriptionRepository(gormDB)
	creditRepo := repositories.NewCreditRepository(gormDB)
	unlockRepo := repositories.NewUnlockRepository(gormDB)

	entitlementService := services.NewEntitlementService(subRepo, creditRepo, userRepo, provider, prices)
	authService := services.NewAuthService(userRepo, tokens, notifier)
	jobService := services.NewJobService(jobRepo, appRepo, userRepo, entitlementService, notifier)
	applicationService := services.NewApplicationService(appRepo, jobRepo, userRepo, unlockRepo, notifier)
	creditService := services.NewCreditService(creditRepo, entitlementService)
	resumeService := services.NewResumeService(userRepo, unlockRepo, creditRepo, creditService,
		store, cfg.Upload.MaxResumeSize, cfg.Upload.AllowedTypes)
	paymentService := services.NewPaymentService(userRepo, subRepo, creditRepo, unlockRepo,
		jobService, provider, prices, cfg.Server.BaseURL, cfg.Payment.Currency)

	v := validator.New()
	base := handlers.NewBaseHandler(v)

	appHandlers := &routes.AppHandlers{
		Auth:        handlers.NewAuthHandler(base, authService),
		Job:         handlers.NewJobHandler(base, jobService),
		Application: handlers.NewApplicationHandler(base, applicationService),
		Billing:     handlers.NewBillingHandler(base, paymentService, creditService, entitlementService, cfg.Payment.Currency),
		Resume:      handlers.NewResumeHandler(base, resumeService),
		Maintenance: handlers.NewMaintenanceHandler(base, jobService, paymentService, cfg.Maintenance.CronToken),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())

	routes.RegisterRoutes(router, appHandlers, tokens)

	var sweeper *workers.SweepWorker
	if cfg.Maintenance.EnableWorker {
		sweeper = workers.NewSweepWorker(jobService, time.Hour)
	}

	return notifier, sweeper, router
}

// buildEmailSender returns a real SMTP sender when the config is complete
// and a log-only sender otherwise, so environments without SMTP still run.
func buildEmailSender(cfg *config.Config) email.Sender {
	emailCfg := email.Config{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		Username:     cfg.Email.SMTPUsername,
		Password:     cfg.Email.SMTPPassword,
		FromEmail:    cfg.Email.FromEmail,
		FromName:     cfg.Email.FromName,
		TemplatePath: cfg.Email.TemplatesDir,
		BaseURL:      cfg.Server.BaseURL,
	}
	if !emailCfg.Configured() {
		logger.Warn("email not configured, falling back to log sender")
		return email.NewLogSender()
	}
	sender, err := email.NewSMTPSender(emailCfg)
	if err != nil {
		logger.WithError(err).Warn("smtp sender init failed, falling back to log sender")
		return email.NewLogSender()
	}
	return sender
}
