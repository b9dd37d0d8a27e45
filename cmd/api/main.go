package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/config"
	"github.com/noah-isme/gema-judge-api/internal/database"
	"github.com/noah-isme/gema-judge-api/internal/evaluation"
	"github.com/noah-isme/gema-judge-api/internal/handler"
	"github.com/noah-isme/gema-judge-api/internal/middleware"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/repository"
	"github.com/noah-isme/gema-judge-api/internal/router"
	"github.com/noah-isme/gema-judge-api/internal/service"
	"github.com/noah-isme/gema-judge-api/pkg/judge"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Problem{}, &models.TestCase{}, &models.ReferenceSolution{}, &models.Submission{}, &models.SolvedProblem{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, submission events go to redis only")
		} else {
			defer natsConn.Drain()
		}
	}

	judgeClient, err := judge.NewClient(judge.Config{
		BaseURL:      cfg.JudgeBaseURL,
		APIKey:       cfg.JudgeAPIKey,
		APIHost:      cfg.JudgeAPIHost,
		AuthToken:    cfg.JudgeAuthToken,
		HTTPTimeout:  cfg.JudgeHTTPTimeout,
		PollInterval: cfg.JudgePollInterval,
		PollDeadline: cfg.JudgePollDeadline,
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("failed to create judge client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	engine := evaluation.NewEngine(judgeClient, evaluation.Config{
		PollInterval: cfg.JudgePollInterval,
		PollDeadline: cfg.JudgePollDeadline,
	}, logger)

	problemRepo := repository.NewProblemRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	solvedRepo := repository.NewSolvedProblemRepository(db)

	events := service.NewSubmissionEventPublisher(natsConn, redisClient, cfg.NATSSubject)
	cooldown := service.NewCooldownGuard(redisClient, cfg.SubmitCooldown, logger)

	problemService := service.NewProblemService(problemRepo, solvedRepo, engine, validate, logger)
	submissionService := service.NewSubmissionService(problemRepo, submissionRepo, solvedRepo, engine, events, validate, logger)

	problemHandler := handler.NewProblemHandler(problemService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ReadTimeout:  cfg.JudgePollDeadline + 15*time.Second,
		WriteTimeout: cfg.JudgePollDeadline + 15*time.Second,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		ProblemHandler:    problemHandler,
		SubmissionHandler: submissionHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		AuthorGuard:       middleware.RequireRole(middleware.AuthorRoles...),
		RunLimiter:        middleware.RateLimit("run", cfg.RunRateLimit, cfg.RunRateWindow),
		SubmitCooldown:    middleware.SubmitCooldown(cooldown, handler.SubmitIdentity, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("addr", cfg.HTTPAddress()).Str("judge", cfg.JudgeBaseURL).Msg("judge api started")
	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
