package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valisyam/shub/docs"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/config"
	"github.com/valisyam/shub/internal/database"
	"github.com/valisyam/shub/internal/http/handler"
	"github.com/valisyam/shub/internal/http/middleware"
	"github.com/valisyam/shub/internal/http/router"
	"github.com/valisyam/shub/internal/idgen"
	"github.com/valisyam/shub/internal/jobs"
	"github.com/valisyam/shub/internal/logger"
	"github.com/valisyam/shub/internal/mailer"
	"github.com/valisyam/shub/internal/realtime"
	"github.com/valisyam/shub/internal/repository"
	"github.com/valisyam/shub/internal/service"
	"github.com/valisyam/shub/internal/storage"
	"go.uber.org/zap"
)

// @title S-Hub API
// @version 1.0
// @description Manufacturing quoting portal connecting customers, suppliers and administrators

// @contact.name S-Hub Support

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.Environment == "development" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	} else {
		docs.SwaggerInfo.Host = ""
	}

	// In staging/production secrets may come from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	mail, err := mailer.NewMailer(&cfg.Email, log)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}
	log.Info("Mailer initialized", zap.String("provider", cfg.Email.Provider))

	ids, err := idgen.NewGenerator(cfg.App.NodeID)
	if err != nil {
		return err
	}

	hub := realtime.NewHub(log)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	pendingRepo := repository.NewPendingRegistrationRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	rfqRepo := repository.NewRfqRepository(db)
	quoteRepo := repository.NewSalesQuoteRepository(db)
	orderRepo := repository.NewSalesOrderRepository(db)
	shipmentRepo := repository.NewShipmentRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	assignRepo := repository.NewRfqAssignmentRepository(db)
	supplierQuoteRepo := repository.NewSupplierQuoteRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	fileRepo := repository.NewFileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Shared services
	numbering := service.NewNumberingService(db, log)
	emailService := service.NewEmailService(mail, mailer.NewRenderer(), cfg, log)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, hub, log)
	uploader := service.NewUploader(fileStorage, cfg.Storage.MaxUploadBytes(), log)
	tokens := auth.NewTokenManager(&cfg.Auth)

	// Domain services
	authService := service.NewAuthService(db, userRepo, pendingRepo, numbering, tokens, emailService, &cfg.Auth, log)
	companyService := service.NewCompanyService(db, companyRepo, userRepo, numbering, log)
	userService := service.NewUserService(db, userRepo, companyRepo, numbering, emailService, log)
	rfqService := service.NewRfqService(db, rfqRepo, orderRepo, assignRepo, userRepo, numbering, notificationService, emailService, log)
	quoteService := service.NewSalesQuoteService(db, quoteRepo, rfqRepo, orderRepo, userRepo, numbering, uploader, notificationService, emailService, log)
	orderService := service.NewSalesOrderService(db, orderRepo, rfqRepo, quoteRepo, shipmentRepo, invoiceRepo, userRepo, numbering, notificationService, emailService, log)
	supplierQuoteService := service.NewSupplierQuoteService(db, supplierQuoteRepo, assignRepo, rfqRepo, notificationService, log)
	poService := service.NewPurchaseOrderService(db, poRepo, supplierQuoteRepo, numbering, uploader, notificationService, emailService, log)
	fileService := service.NewFileService(fileRepo, rfqRepo, orderRepo, supplierQuoteRepo, assignRepo, uploader, log)
	messageService := service.NewMessageService(messageRepo, userRepo, ids, uploader, notificationService, log)
	reminderService := service.NewReminderService(messageRepo, emailService, log)
	exportService := service.NewExportService(rfqRepo, orderRepo, poRepo, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(tokens, userRepo, log)
	companyScope := middleware.NewCompanyScopeMiddleware(userRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	maxUpload := cfg.Storage.MaxUploadBytes()
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		companyScope,
		rateLimiter,
		router.Handlers{
			Auth:          handler.NewAuthHandler(authService, log),
			Company:       handler.NewCompanyHandler(companyService, log),
			User:          handler.NewUserHandler(userService, log),
			Rfq:           handler.NewRfqHandler(rfqService, log),
			Quote:         handler.NewQuoteHandler(quoteService, maxUpload, log),
			Order:         handler.NewOrderHandler(orderService, log),
			Supplier:      handler.NewSupplierHandler(supplierQuoteService, poService, maxUpload, log),
			PurchaseOrder: handler.NewPurchaseOrderHandler(poService, log),
			File:          handler.NewFileHandler(fileService, maxUpload, log),
			Notification:  handler.NewNotificationHandler(notificationService, log),
			Message:       handler.NewMessageHandler(messageService, maxUpload, log),
			Realtime:      handler.NewRealtimeHandler(hub, authMiddleware, log),
			Admin:         handler.NewAdminHandler(exportService, numbering, log),
		},
	)

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)
		timeout := cfg.Jobs.JobTimeout()

		registrations := []struct {
			cron string
			job  jobs.Job
		}{
			{cfg.Jobs.MessageReminderCron, jobs.NewMessageReminderJob(reminderService, cfg.Jobs.MessageReminderAge(), timeout, log)},
			{cfg.Jobs.RegistrationCleanupCron, jobs.NewRegistrationCleanupJob(authService, timeout, log)},
			{cfg.Jobs.AssignmentExpiryCron, jobs.NewAssignmentExpiryJob(supplierQuoteService, timeout, log)},
		}
		for _, reg := range registrations {
			if err := scheduler.Register(reg.cron, reg.job); err != nil {
				log.Error("Failed to register job", zap.String("job", reg.job.Name()), zap.Error(err))
			}
		}
		scheduler.Start()
	} else {
		log.Info("Background jobs disabled")
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.App.Port),
		Handler:     rt.Setup(),
		ReadTimeout: cfg.Server.ReadTimeoutDuration(),
		// No WriteTimeout: websocket connections are long-lived
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
