package main

import (
	"context"

	"clauseguard-backend/config"
	"clauseguard-backend/handlers"
	"clauseguard-backend/llm"
	"clauseguard-backend/notify"
	"clauseguard-backend/repository"
	"clauseguard-backend/service"
	"clauseguard-backend/storage"
	"clauseguard-backend/trace"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load .env from the working directory or the project root.
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			logrus.Warn("No .env file found, using environment variables")
		}
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger := logrus.StandardLogger()

	cfg := config.Load()

	// Postgres is optional. Without it, document metadata is not persisted
	// and the precedent store must use the embedded backend.
	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err := initPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Postgres")
		}
		db = pool
		defer db.Close()
	} else {
		logger.Info("DATABASE_URL not set, running without Postgres")
	}

	docStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}
	logger.Info("Storage initialized")

	var docRepo *repository.DocumentRepository
	if db != nil {
		docRepo = repository.NewDocumentRepository(db)
		if err := docRepo.EnsureSchema(context.Background()); err != nil {
			logger.WithError(err).Fatal("Failed to create documents schema")
		}
	}

	// Precedent lookup is best effort. A missing embedder key or an
	// unreachable backend degrades to analyses without precedent context.
	var precedentStore repository.PrecedentStore
	embedder, err := llm.NewGeminiEmbedder(cfg.GeminiAPIKey)
	if err != nil {
		logger.WithError(err).Warn("Embedder unavailable, analyses will run without precedent context")
	} else {
		precedentStore, err = repository.NewPrecedentStoreFromEnv(db, embedder)
		if err != nil {
			logger.WithError(err).Warn("Precedent store unavailable, analyses will run without precedent context")
			precedentStore = nil
		}
	}

	chatClient, err := llm.NewGroqClient(llm.GroqConfig{
		APIKey:  cfg.GroqAPIKey,
		Model:   cfg.GroqModel,
		BaseURL: cfg.GroqBaseURL,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize Groq client")
	}

	var recorder trace.Recorder = trace.NopRecorder{}
	if cfg.TraceEnabled {
		fileRecorder, err := trace.NewFileRecorder(cfg.LogDir)
		if err != nil {
			logger.WithError(err).Warn("Failed to open trace log, tracing disabled")
		} else {
			recorder = fileRecorder
			defer fileRecorder.Close()
		}
	}

	riskService := service.NewRiskService(
		service.RiskWithChatClient(chatClient),
		service.RiskWithRecorder(recorder),
		service.RiskWithConfig(service.RiskConfig{
			MaxRetries:    cfg.LLMMaxRetries,
			RetryDelay:    cfg.LLMRetryDelay,
			ThrottleDelay: cfg.LLMThrottleDelay,
		}),
	)

	analysisService := service.NewAnalysisService(
		service.AnalysisWithRiskService(riskService),
		service.AnalysisWithPrecedentStore(precedentStore),
		service.AnalysisWithLogger(logger),
	)

	notifier := buildNotifier(cfg, logger)

	documentHandler := handlers.NewDocumentHandler(analysisService, docRepo, docStorage)
	reportHandler := handlers.NewReportHandler(notifier, precedentStore)

	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		api.POST("/documents/analyze", documentHandler.AnalyzeDocument)
		api.GET("/documents/:id", documentHandler.GetDocument)

		api.POST("/reports/email", reportHandler.EmailReport)

		api.POST("/precedents", reportHandler.UpsertPrecedent)
	}

	logger.WithField("port", cfg.Port).Info("Server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Failed to start server")
	}
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		logrus.WithError(err).Warn("Failed to create pgvector extension, may require superuser privileges")
	} else {
		logrus.Info("pgvector extension enabled")
	}

	logrus.Info("Postgres connection established")
	return pool, nil
}

func buildNotifier(cfg *config.Config, logger *logrus.Logger) *notify.Notifier {
	smtpConfigured := cfg.SMTPHost != "" && cfg.SMTPUser != ""
	var smtpTransport *notify.SMTPTransport
	if smtpConfigured {
		smtpTransport = notify.NewSMTPTransport(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
		})
	}

	// EMAIL_BACKEND=smtp makes SMTP the primary with no fallback.
	if cfg.EmailBackend == "smtp" {
		if !smtpConfigured {
			logger.Fatal("EMAIL_BACKEND=smtp requires SMTP_HOST and SMTP_USER")
		}
		return notify.NewNotifier(smtpTransport, cfg.SMTPUser,
			notify.WithLogger(logger),
		)
	}

	opts := []notify.NotifierOption{
		notify.WithOwnerEmail(cfg.ResendOwner),
		notify.WithLogger(logger),
	}
	if smtpConfigured {
		opts = append(opts, notify.WithFallback(smtpTransport))
	}
	return notify.NewNotifier(notify.NewResendTransport(cfg.ResendAPIKey), cfg.ResendFromEmail, opts...)
}
