package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/config"
	"github.com/noah-isme/learnhub-api/internal/database"
	"github.com/noah-isme/learnhub-api/internal/handler"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/repository"
	"github.com/noah-isme/learnhub-api/internal/router"
	"github.com/noah-isme/learnhub-api/internal/service"
	cloud "github.com/noah-isme/learnhub-api/pkg/cloudinary"
	"github.com/noah-isme/learnhub-api/pkg/mailer"
	"github.com/noah-isme/learnhub-api/pkg/storage"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "learnhub-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()
	}

	fileStorage, staticDir, staticPath := buildStorage(cfg, logger)

	var mailSender service.MailSender
	if cfg.SMTP.Host != "" {
		smtpMailer, err := mailer.New(mailer.Config{
			Host:          cfg.SMTP.Host,
			Port:          cfg.SMTP.Port,
			Username:      cfg.SMTP.Username,
			Password:      cfg.SMTP.Password,
			From:          cfg.SMTP.From,
			SkipTLSVerify: cfg.SMTP.SkipTLSVerify,
			Timeout:       cfg.SMTP.Timeout,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure smtp mailer")
		}
		mailSender = smtpMailer
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	rankingRepo := repository.NewRankingRepository(db)
	activityRepo := repository.NewSubmissionActivityRepository(db)

	rankingService := service.NewRankingService(rankingRepo, redisClient, cfg.RankingCacheTTL, validate, logger)
	activityService := service.NewActivityService(activityRepo, logger)
	reviewEvents := service.NewReviewEventService(redisClient, cfg.EventChannel, natsConn, mailSender, logger)
	artifactService := service.NewArtifactService(fileStorage, cfg.UploadMaxMB, logger)
	accountService := service.NewAccountService(accountRepo, logger)
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		Submissions: submissionRepo,
		Accounts:    accountRepo,
		Artifacts:   artifactService,
		Rankings:    rankingService,
		Activity:    activityService,
		Events:      reviewEvents,
		Validator:   validate,
		Logger:      logger,
	})

	eventsCtx, stopEvents := context.WithCancel(context.Background())
	defer stopEvents()
	reviewEvents.Start(eventsCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.AllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler:  handler.NewSubmissionHandler(submissionService, activityService, logger),
		ReviewEventHandler: handler.NewReviewEventHandler(reviewEvents, logger, 30*time.Second),
		RankingHandler:     handler.NewRankingHandler(rankingService, logger),
		AccountHandler:     handler.NewAccountHandler(accountService, logger),
		HealthChecks:       healthChecks(db, redisClient, natsConn),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
		UploadRateLimiter:  middleware.RateLimit("submission-upload", cfg.UploadRateMax, cfg.UploadRateWindow),
		StaticUploadsDir:   staticDir,
		StaticUploadsPath:  staticPath,
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("starting http server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, cfg.ShutdownTimeout, reviewEvents, stopEvents, logger)
}

func buildStorage(cfg config.Config, logger zerolog.Logger) (service.FileStorage, string, string) {
	if cfg.Storage.Driver == config.StorageCloudinary {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.Storage.CloudinaryCloudName,
			APIKey:    cfg.Storage.CloudinaryAPIKey,
			APISecret: cfg.Storage.CloudinaryAPISecret,
			Folder:    cfg.Storage.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		return uploader, "", ""
	}

	local, err := storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.LocalPublicPrefix)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare local storage")
	}
	return local, cfg.Storage.LocalDir, cfg.Storage.LocalPublicPrefix
}

func healthChecks(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.DependencyCheck {
	checks := map[string]handler.DependencyCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		checks["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}
	return checks
}

func waitForShutdown(app *fiber.App, timeout time.Duration, reviewEvents service.ReviewEventService, stopEvents context.CancelFunc, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopEvents()

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := reviewEvents.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("pending review mail dropped")
	}

	logger.Info().Msg("server stopped")
}
