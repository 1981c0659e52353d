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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medcdss/cdss/internal/config"
	"github.com/medcdss/cdss/internal/domain/chat"
	"github.com/medcdss/cdss/internal/domain/complications"
	"github.com/medcdss/cdss/internal/domain/imaging"
	"github.com/medcdss/cdss/internal/domain/labresult"
	"github.com/medcdss/cdss/internal/domain/patient"
	"github.com/medcdss/cdss/internal/domain/prediction"
	"github.com/medcdss/cdss/internal/domain/staff"
	"github.com/medcdss/cdss/internal/domain/stroke"
	"github.com/medcdss/cdss/internal/platform/auth"
	"github.com/medcdss/cdss/internal/platform/db"
	"github.com/medcdss/cdss/internal/platform/middleware"
	"github.com/medcdss/cdss/internal/platform/orthanc"
	"github.com/medcdss/cdss/internal/platform/registry"
	"github.com/medcdss/cdss/internal/platform/websocket"
)

// predictionQueueSize bounds the number of assessments waiting for a worker.
// Submissions past this bound are rejected with 503 instead of piling up.
const predictionQueueSize = 64

func main() {
	rootCmd := &cobra.Command{
		Use:   "cdss-server",
		Short: "Stroke CDSS API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the CDSS API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool).Apply(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool).Status(ctx)
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
	})

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

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Upstream integrations
	registryClient := registry.NewClient(cfg.RegistryBaseURL, cfg.RegistryUsername, cfg.RegistryPassword)
	pacsClient := orthanc.NewClient(cfg.OrthancURL, cfg.OrthancUsername, cfg.OrthancPassword)

	// Token issuer and realtime hub
	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), time.Duration(cfg.TokenTTLHours)*time.Hour)
	hub := websocket.NewHub(logger)

	// Repositories and services
	staffRepo := staff.NewRepoPG(pool)
	staffSvc := staff.NewService(staffRepo, issuer)

	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo, registryClient, hub, patient.SyncConfig{
		Query: cfg.SyncQuery,
		Limit: cfg.SyncLimit,
		Max:   cfg.SyncMax,
	}, logger)

	labSvc := labresult.NewService(labresult.NewRepoPG(pool), patientSvc)
	strokeSvc := stroke.NewService(stroke.NewRepoPG(pool), patientSvc, logger)
	compSvc := complications.NewService(complications.NewRepoPG(pool), patientSvc, logger)
	chatSvc := chat.NewService(chat.NewRepoPG(pool), staffSvc, hub, logger)
	imagingSvc := imaging.NewService(pacsClient, patientSvc, logger)

	predRepo := prediction.NewRepoPG(pool)
	predPool := prediction.NewPool(predRepo, cfg.PredictionWorkers, predictionQueueSize, logger)
	predSvc := prediction.NewService(predRepo, patientSvc, predPool, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(middleware.BodyLimit("1M", "64M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		status := db.CheckHealth(c.Request().Context(), pool)
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, status)
	})

	// API groups. The public group carries registration, login, and the
	// websocket endpoint (which authenticates via its token query param);
	// everything else requires a bearer token.
	public := e.Group("/api/v1")
	authed := e.Group("/api/v1", issuer.Middleware())

	staff.NewHandler(staffSvc).RegisterRoutes(public, authed)
	patient.NewHandler(patientSvc).RegisterRoutes(authed)
	labresult.NewHandler(labSvc).RegisterRoutes(authed)
	stroke.NewHandler(strokeSvc).RegisterRoutes(authed)
	complications.NewHandler(compSvc).RegisterRoutes(authed)
	chat.NewHandler(chatSvc).RegisterRoutes(authed)
	imaging.NewHandler(imagingSvc).RegisterRoutes(authed)
	prediction.NewHandler(predSvc).RegisterRoutes(authed)

	websocket.NewHandler(hub, issuer).RegisterRoutes(public)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown: stop accepting requests, then drain the prediction
	// queue so no task is left PROCESSING.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	predPool.Close()
	return nil
}
