package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicalsetu/clinicalsetu/internal/config"
	"github.com/clinicalsetu/clinicalsetu/internal/domain/agent"
	"github.com/clinicalsetu/clinicalsetu/internal/domain/consultation"
	"github.com/clinicalsetu/clinicalsetu/internal/domain/trials"
	"github.com/clinicalsetu/clinicalsetu/internal/platform/auth"
	"github.com/clinicalsetu/clinicalsetu/internal/platform/bedrock"
	"github.com/clinicalsetu/clinicalsetu/internal/platform/db"
	"github.com/clinicalsetu/clinicalsetu/internal/platform/middleware"
	"github.com/clinicalsetu/clinicalsetu/internal/platform/retrieval"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicalsetu-server",
		Short: "ClinicalSetu clinical documentation API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(serveToolsCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the ClinicalSetu API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func serveToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-tools",
		Short: "Start only the agent tool-executor endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToolServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	// AWS clients
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load AWS config")
	}
	invoker := bedrock.NewRuntimeClient(bedrockruntime.NewFromConfig(awsCfg))
	agentRuntime := bedrockagentruntime.NewFromConfig(awsCfg)
	augmenter := retrieval.NewAugmenter(agentRuntime, cfg.KnowledgeBaseID, cfg.AWSRegion, cfg.BedrockModelID, logger)

	// Storage — Postgres when configured, otherwise the file-backed trial
	// catalog with no consultation audit trail.
	var trialRepo trials.Repository
	var recordRepo consultation.RecordRepository
	if cfg.HasDatabase() {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		trialRepo = trials.NewRepoPG(pool)
		recordRepo = consultation.NewRecordRepoPG(pool)
		logger.Info().Msg("connected to database")
	} else {
		trialRepo = trials.NewRepoFile(cfg.TrialsFile)
		logger.Info().Str("file", cfg.TrialsFile).Msg("running without a database")
	}

	trialsSvc := trials.NewService(trialRepo, logger)
	pipeline := consultation.NewPipeline(invoker, augmenter, trialsSvc, recordRepo, cfg.BedrockModelID, logger)

	// Agent mode — only wired when an agent id and alias are configured.
	executor := agent.NewExecutor(invoker, augmenter, trialsSvc, cfg.BedrockModelID, logger)
	var agentSvc *agent.Service
	if cfg.HasAgent() {
		agentSvc = agent.NewService(agent.NewRuntimeInvoker(agentRuntime), cfg.BedrockAgentID, cfg.BedrockAgentAliasID, cfg.BedrockModelID, logger)
		logger.Info().Str("agent_id", cfg.BedrockAgentID).Msg("agent mode enabled")
	} else {
		logger.Info().Msg("agent mode disabled")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
	// The full pipeline makes four sequential Bedrock calls.
	e.Use(middleware.RequestTimeout(5 * time.Minute))
	e.Use(auth.Middleware(cfg.AuthJWTSecret))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// API routes
	apiV1 := e.Group("/api/v1")
	consultation.NewHandler(pipeline, recordRepo).RegisterRoutes(apiV1)
	trials.NewHandler(trialsSvc).RegisterRoutes(apiV1)
	agent.NewHandler(agentSvc, executor).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// runToolServer starts a stripped-down server exposing only the agent
// tool-executor endpoint. The agent path calls the tools over this surface,
// so it can be scaled and deployed separately from the main API.
func runToolServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load AWS config")
	}
	invoker := bedrock.NewRuntimeClient(bedrockruntime.NewFromConfig(awsCfg))
	agentRuntime := bedrockagentruntime.NewFromConfig(awsCfg)
	augmenter := retrieval.NewAugmenter(agentRuntime, cfg.KnowledgeBaseID, cfg.AWSRegion, cfg.BedrockModelID, logger)

	var trialRepo trials.Repository
	if cfg.HasDatabase() {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		trialRepo = trials.NewRepoPG(pool)
	} else {
		trialRepo = trials.NewRepoFile(cfg.TrialsFile)
	}
	trialsSvc := trials.NewService(trialRepo, logger)

	executor := agent.NewExecutor(invoker, augmenter, trialsSvc, cfg.BedrockModelID, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(5 * time.Minute))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	apiV1 := e.Group("/api/v1")
	agent.NewHandler(nil, executor).RegisterRoutes(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting tool server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down tool server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("tool server stopped")
	return nil
}
