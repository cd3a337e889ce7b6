package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/campusops/admissions-api/api/swagger"
	"github.com/campusops/admissions-api/internal/handler"
	"github.com/campusops/admissions-api/internal/middleware"
	"github.com/campusops/admissions-api/internal/models"
	"github.com/campusops/admissions-api/internal/repository"
	"github.com/campusops/admissions-api/internal/service"
	"github.com/campusops/admissions-api/pkg/cache"
	"github.com/campusops/admissions-api/pkg/config"
	"github.com/campusops/admissions-api/pkg/database"
	"github.com/campusops/admissions-api/pkg/export"
	"github.com/campusops/admissions-api/pkg/jobs"
	"github.com/campusops/admissions-api/pkg/logger"
	corsmiddleware "github.com/campusops/admissions-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusops/admissions-api/pkg/middleware/requestid"
	"github.com/campusops/admissions-api/pkg/slip"
	"github.com/campusops/admissions-api/pkg/sms"
	"github.com/campusops/admissions-api/pkg/storage"
)

// @title Campus Admissions API
// @version 1.0.0
// @description Student admission, verification and document desk for the campus back office
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	documentVault, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare document storage", "error", err)
	}
	slipVault, err := storage.NewLocalStorage(cfg.Slips.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare slip storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	var smsProvider sms.Provider
	if cfg.SMS.Enabled {
		smsProvider, err = sms.NewTwilioProvider(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber)
		if err != nil {
			logr.Sugar().Fatalw("failed to init twilio provider", "error", err)
		}
	} else {
		smsProvider = sms.NewLogProvider(logr)
	}

	validate := validator.New()

	adminRepo := repository.NewAdminRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	otpRepo := repository.NewOTPRepository(redisClient)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Roster.CacheTTL, logr, true)

	authSvc := service.NewAuthService(adminRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      "admissions-api",
	})

	otpSvc := service.NewOTPService(otpRepo, smsProvider, metricsSvc, logr, service.OTPConfig{
		TTL:            cfg.OTP.TTL,
		ResendCooldown: cfg.OTP.ResendCooldown,
	})

	slipSvc := service.NewSlipService(studentRepo, documentRepo, slipVault, slip.NewRenderer(cfg.Slips.CollegeName, cfg.Slips.CollegeAddress), signer, adminRepo, cacheSvc, metricsSvc, jobs.QueueConfig{
		Workers:    cfg.Slips.WorkerConcurrency,
		MaxRetries: cfg.Slips.WorkerRetries,
		Logger:     logr,
	}, logr)

	registrationSvc := service.NewRegistrationService(studentRepo, otpSvc, adminRepo, documentVault, cacheSvc, metricsSvc, validate, logr, service.RegistrationConfig{
		MaxFileSizeBytes:        cfg.Documents.MaxFileSizeBytes,
		AllowedExtensions:       cfg.Documents.AllowedExtensions,
		AllowUnverifiedFallback: cfg.OTP.AllowUnverifiedFallback,
	})

	studentSvc := service.NewStudentService(studentRepo, adminRepo, documentVault, slipSvc, cacheSvc, metricsSvc, logr)
	verificationSvc := service.NewVerificationService(documentRepo, studentRepo, adminRepo, slipSvc, signer, cacheSvc, metricsSvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(studentRepo, adminRepo, cacheSvc, logr)
	statsSvc := service.NewStatsService(studentRepo, cacheSvc, metricsSvc, logr)
	exportSvc := service.NewExportService(studentRepo, metricsSvc, logr, export.NewCSVExporter(), export.NewPDFExporter())

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authSvc.EnsureBootstrapAdmin(bootCtx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword); err != nil {
		cancelBoot()
		logr.Sugar().Fatalw("failed to seed bootstrap admin", "error", err)
	}
	cancelBoot()

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	slipSvc.Start(workerCtx)

	authHandler := handler.NewAuthHandler(authSvc)
	auditHandler := handler.NewAuditHandler(adminRepo)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc, studentSvc)
	otpHandler := handler.NewOTPHandler(otpSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, authSvc)
	verificationHandler := handler.NewVerificationHandler(verificationSvc, authSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, authSvc)
	slipHandler := handler.NewSlipHandler(slipSvc, authSvc)
	statsHandler := handler.NewStatsHandler(statsSvc, authSvc)
	exportHandler := handler.NewExportHandler(exportSvc, authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)

	// Public surface: the registration desk and status kiosk run
	// without a session.
	api.POST("/admin/login", authHandler.Login)
	api.GET("/departments", registrationHandler.Departments)
	api.POST("/students/register", registrationHandler.Register)
	api.POST("/students/status", studentHandler.StatusLookup)
	api.POST("/send-otp", otpHandler.Send)
	api.POST("/verify-otp", otpHandler.Verify)
	api.GET("/documents/:token", slipHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/admin/verify-token", authHandler.VerifyToken)
	authed.GET("/students", studentHandler.List)
	authed.POST("/attendance/mark", attendanceHandler.Mark)

	desk := authed.Group("")
	desk.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleDepartmentAdmin))
	desk.GET("/students/department/:department/pending-verification", studentHandler.PendingVerification)
	desk.GET("/students/:id/documents", verificationHandler.Documents)
	desk.PUT("/students/:id/documents", verificationHandler.SaveDocuments)
	desk.PUT("/students/:id/status", studentHandler.UpdateStatus)
	desk.POST("/students/bulk-verify-documents", verificationHandler.BulkVerify)
	desk.GET("/students/:id/print-document", slipHandler.Print)
	desk.GET("/admin/department-stats/:department", statsHandler.DepartmentStats)

	photo := authed.Group("")
	photo.Use(middleware.RequireRoles(models.RolePhotoAdmin, models.RoleSuperAdmin))
	photo.POST("/students/:id/photo", studentHandler.UploadPhoto)

	super := authed.Group("")
	super.Use(middleware.RequireRoles(models.RoleSuperAdmin))
	super.GET("/students/export", middleware.Audit(adminRepo, models.AuditActionRosterExport, "students"), exportHandler.Roster)
	super.GET("/admin/audit-logs", auditHandler.List)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logr.Sugar().Infow("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}

	stopWorkers()
	slipSvc.Stop()
}
