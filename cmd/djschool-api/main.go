package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/djschool-api/api/swagger"
	"github.com/noah-isme/djschool-api/internal/handler"
	"github.com/noah-isme/djschool-api/internal/middleware"
	"github.com/noah-isme/djschool-api/internal/repository"
	"github.com/noah-isme/djschool-api/internal/service"
	"github.com/noah-isme/djschool-api/pkg/cache"
	"github.com/noah-isme/djschool-api/pkg/config"
	"github.com/noah-isme/djschool-api/pkg/database"
	"github.com/noah-isme/djschool-api/pkg/jobs"
	"github.com/noah-isme/djschool-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/djschool-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/djschool-api/pkg/middleware/requestid"
	"github.com/noah-isme/djschool-api/pkg/storage"
)

// @title DJ School API
// @version 1.0.0
// @description Students, instructors, classes, attendance, curriculum and payments for a DJ school.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, serving uncached reads", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client, "djschool", logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.CollectionTTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var coordinator *service.RefreshCoordinator
	refreshQueue := jobs.NewQueue("refresh", jobs.Handlers{
		service.JobTypeRefresh: func(ctx context.Context, job jobs.Job) error {
			return coordinator.HandleRefreshJob(ctx, job)
		},
	}.Dispatch(), jobs.QueueConfig{
		Workers:    cfg.Refresh.Workers,
		MaxRetries: cfg.Refresh.MaxRetries,
		Logger:     logr,
	})
	coordinator = service.NewRefreshCoordinator(service.RefreshCoordinatorConfig{
		Cache:          cacheSvc,
		Queue:          refreshQueue,
		FollowUpDelays: cfg.Refresh.FollowUpDelays,
		Metrics:        metrics,
		Logger:         logr,
	})
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()

	validate := service.NewValidator()
	collections := service.NewCollections(db, service.CollectionOptions{Cache: cacheSvc, TTL: cfg.Cache.CollectionTTL, Logger: logr})

	profileRepo := repository.NewProfileRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	sessions := service.NewSessionService(logr)

	authSvc := service.NewAuthService(service.AuthDeps{
		Profiles:    profileRepo,
		Tokens:      repository.NewTokenRepository(db),
		Accounts:    accountRepo,
		Sessions:    sessions,
		Coordinator: coordinator,
		Validator:   validate,
		Logger:      logr,
	}, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.Auth.SingleSession,
		PasswordMinLength:  cfg.Auth.PasswordMinLength,
	})
	profileSvc := service.NewProfileService(profileRepo, authSvc, sessions, coordinator, validate)
	studentSvc := service.NewStudentService(collections, repository.NewStudentRepository(db), accountRepo, coordinator, validate, logr, cfg.Auth.PasswordMinLength)
	instructorSvc := service.NewInstructorService(collections, repository.NewInstructorRepository(db), accountRepo, coordinator, validate, logr, cfg.Auth.PasswordMinLength)
	availabilitySvc := service.NewAvailabilityService(collections, repository.NewAvailabilityRepository(db), coordinator, validate)
	classSvc := service.NewClassService(collections, repository.NewClassRepository(db), coordinator, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(collections, repository.NewEnrollmentRepository(db), coordinator, validate, logr)
	attendanceSvc := service.NewAttendanceService(collections, repository.NewAttendanceRepository(db), coordinator, validate, logr)
	skillSvc := service.NewSkillService(collections, repository.NewSkillRepository(db), coordinator, validate)
	announcementSvc := service.NewAnnouncementService(collections, repository.NewAnnouncementRepository(db), coordinator, validate, logr, service.AnnouncementOptions{
		NewWindow:       cfg.Announcements.NewWindow,
		StudentReceipts: cfg.Announcements.StudentReceipts,
	})
	paymentSvc := service.NewPaymentService(collections, repository.NewPaymentRepository(db), coordinator, validate, logr)
	exportSvc := service.NewExportService(paymentSvc, logr, nil, nil)
	curriculumSvc := service.NewCurriculumService(collections, repository.NewCurriculumRepository(db), coordinator, validate)

	mediaStore, err := storage.NewLocalStorage(cfg.Media.StorageDir)
	if err != nil {
		logr.Fatal("media storage unavailable", zap.Error(err))
	}
	mediaSvc := service.NewMediaService(mediaStore, storage.NewLinkSigner(cfg.Media.SignedURLSecret, cfg.Media.SignedURLTTL), service.MediaConfig{
		APIPrefix:    cfg.APIPrefix,
		MaxBytes:     cfg.Media.MaxFileSizeBytes,
		AllowedTypes: cfg.Media.AllowedMIMEs,
	}, logr)

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Collections:   collections,
		Students:      studentSvc,
		Instructors:   instructorSvc,
		Classes:       classSvc,
		Enrollments:   enrollmentSvc,
		Attendance:    attendanceSvc,
		Skills:        skillSvc,
		Announcements: announcementSvc,
		Payments:      paymentSvc,
		Sessions:      sessions,
		Cache:         cacheSvc,
		Logger:        logr,
		Config:        service.DashboardServiceConfig{CacheTTL: cfg.Cache.DashboardTTL},
	})
	stopForgetting := dashboardSvc.ForgetSessions(sessions)
	defer stopForgetting()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())
	r.MaxMultipartMemory = 8 << 20

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Profile:       handler.NewProfileHandler(profileSvc),
		Students:      handler.NewStudentHandler(studentSvc),
		Instructors:   handler.NewInstructorHandler(instructorSvc, availabilitySvc),
		Classes:       handler.NewClassHandler(classSvc),
		Enrollments:   handler.NewEnrollmentHandler(enrollmentSvc),
		Attendance:    handler.NewAttendanceHandler(attendanceSvc),
		Skills:        handler.NewSkillHandler(skillSvc),
		Announcements: handler.NewAnnouncementHandler(announcementSvc),
		Payments:      handler.NewPaymentHandler(paymentSvc, exportSvc),
		Curriculum:    handler.NewCurriculumHandler(curriculumSvc),
		Media:         handler.NewMediaHandler(mediaSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		Metrics:       metricsHandler,
	}, handler.RouteDeps{Tokens: authSvc, Audit: profileRepo})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
