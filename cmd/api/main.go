package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edutour/sales-crm/docs"
	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/config"
	"github.com/edutour/sales-crm/internal/database"
	"github.com/edutour/sales-crm/internal/http/handler"
	"github.com/edutour/sales-crm/internal/http/middleware"
	"github.com/edutour/sales-crm/internal/http/router"
	"github.com/edutour/sales-crm/internal/logger"
	"github.com/edutour/sales-crm/internal/mailer"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

// @title School Tour Sales CRM API
// @version 1.0
// @description Sales CRM for school tour operators: schools, visits, offers, sales, targets and commissions.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token
// @Security BearerAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for logging setup
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

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Full configuration: environment in development, Key Vault in staging/production
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("name", cfg.Database.Name),
	)

	mail := mailer.New(&cfg.Mail, log)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	targetRepo := repository.NewSalesTargetRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	leaveRepo := repository.NewLeaveRequestRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)
	templateRepo := repository.NewEmailTemplateRepository(db)

	// Services
	auditLogService := service.NewAuditLogService(auditLogRepo, log)
	userService := service.NewUserService(userRepo, teamRepo, log)
	schoolService := service.NewSchoolService(schoolRepo, auditLogService, log)
	visitService := service.NewVisitService(visitRepo, schoolRepo, auditLogService, log)
	offerService := service.NewOfferService(offerRepo, saleRepo, appointmentRepo, schoolRepo, visitRepo, templateRepo, mail, auditLogService, log, db)
	saleService := service.NewSaleService(saleRepo, expenseRepo, schoolRepo, auditLogService, log)
	expenseService := service.NewExpenseService(expenseRepo, saleRepo, auditLogService, log)
	appointmentService := service.NewAppointmentService(appointmentRepo, schoolRepo, saleRepo, auditLogService, log)
	announcementService := service.NewAnnouncementService(announcementRepo, auditLogService, log)
	targetService := service.NewSalesTargetService(targetRepo, userRepo, auditLogService, log)
	commissionService := service.NewCommissionService(commissionRepo, userRepo, auditLogService, log)
	leaveService := service.NewLeaveRequestService(leaveRepo, auditLogService, log)
	attachmentService := service.NewAttachmentService(attachmentRepo, schoolRepo, visitRepo, offerRepo, saleRepo, auditLogService, log)
	dashboardService := service.NewDashboardService(visitRepo, offerRepo, saleRepo, appointmentRepo, targetRepo, userRepo, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(&cfg.Auth, userRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, db, authMiddleware, rateLimiter, router.Handlers{
		User:         handler.NewUserHandler(userService, log),
		School:       handler.NewSchoolHandler(schoolService, log),
		Visit:        handler.NewVisitHandler(visitService, log),
		Offer:        handler.NewOfferHandler(offerService, log),
		Sale:         handler.NewSaleHandler(saleService, expenseService, log),
		Appointment:  handler.NewAppointmentHandler(appointmentService, log),
		Announcement: handler.NewAnnouncementHandler(announcementService, log),
		SalesTarget:  handler.NewSalesTargetHandler(targetService, log),
		Commission:   handler.NewCommissionHandler(commissionService, log),
		LeaveRequest: handler.NewLeaveRequestHandler(leaveService, log),
		Attachment:   handler.NewAttachmentHandler(attachmentService, log),
		Dashboard:    handler.NewDashboardHandler(dashboardService, log),
		Audit:        handler.NewAuditHandler(auditLogService, log),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
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
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn("Error closing database connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
