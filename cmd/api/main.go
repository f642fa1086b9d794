package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/headoffice-api/internal/access"
	"github.com/headoffice-api/internal/config"
	"github.com/headoffice-api/internal/handler"
	"github.com/headoffice-api/internal/notify"
	"github.com/headoffice-api/internal/onboarding"
	"github.com/headoffice-api/internal/outbox"
	"github.com/headoffice-api/internal/repository"
	"github.com/headoffice-api/internal/service"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

func main() {
	// Загрузка конфигурации
	cfg := config.Load()

	// Инициализация логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Подключение к БД
	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("failed to get sql.DB", slog.Any("error", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Запуск миграций
	if err := runMigrations(sqlDB); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	template, err := onboarding.Default()
	if err != nil {
		logger.Error("failed to load onboarding template", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация репозиториев
	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	candidateRepo := repository.NewCandidateRepository(db)
	onboardingRepo := repository.NewOnboardingRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	probationRepo := repository.NewProbationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Инициализация сервисов
	checker := access.NewChecker(userRepo)
	audit := service.NewAuditLogger(auditRepo, logger)
	provisioner := service.NewProvisioner(userRepo, candidateRepo, onboardingRepo, outboxRepo, template)

	reviewService := service.NewReviewService(tx, reviewRepo, userRepo, notificationRepo, outboxRepo, checker, audit, logger)
	recruitmentService := service.NewRecruitmentService(tx, candidateRepo, outboxRepo, provisioner, checker, audit)
	recordsService := service.NewCandidateRecordsService(candidateRepo, onboardingRepo, policyRepo, checker, audit)
	promotionService := service.NewPromotionService(tx, candidateRepo, onboardingRepo, policyRepo, probationRepo, userRepo, outboxRepo, provisioner, checker, audit)

	// Диспетчер доменных событий
	var locker outbox.Locker = outbox.LocalLocker{}
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		locker = outbox.NewRedisLocker(rdb)
	}

	var mailer notify.Sender = notify.NopSender{}
	if cfg.SMTP.Enabled() {
		mailer = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	hostname, _ := os.Hostname()
	dispatcher := outbox.NewDispatcher(outboxRepo, notificationRepo, mailer, locker, logger, outbox.Config{
		WorkerID:    fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		BatchSize:   cfg.Outbox.BatchSize,
		Interval:    cfg.Outbox.Interval,
		LockTTL:     cfg.Outbox.LockTTL,
		MaxAttempts: cfg.Outbox.MaxAttempts,
	})

	dispatchCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		dispatcher.Run(dispatchCtx)
	}()

	// Инициализация хендлеров
	reviewHandler := handler.NewReviewHandler(reviewService, logger)
	candidateHandler := handler.NewCandidateHandler(recruitmentService, recordsService, promotionService, logger)

	// Настройка роутера
	router := handler.NewRouter(reviewHandler, candidateHandler, []byte(cfg.Auth.JWTSecret), logger)
	httpHandler := router.Setup()

	// Настройка HTTP сервера
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("could not gracefully shutdown the server", slog.Any("error", err))
		}

		stopDispatcher()
		select {
		case <-dispatcherDone:
		case <-ctx.Done():
			logger.Warn("outbox dispatcher did not stop in time")
		}
		close(done)
	}()

	logger.Info("server is starting", slog.String("port", cfg.Server.Port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("could not listen on port", slog.String("port", cfg.Server.Port), slog.Any("error", err))
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}

func connectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for range 30 {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
			TranslateError: true,
		})
		if err == nil {
			sqlDB, _ := db.DB()
			if sqlDB.Ping() == nil {
				return db, nil
			}
		}
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("failed to connect to database after 30 attempts: %w", err)
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
