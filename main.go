package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"clinic-dashboard-server/internal/config"
	"clinic-dashboard-server/internal/logging"
	"clinic-dashboard-server/internal/metrics"
	"clinic-dashboard-server/internal/middleware"
	"clinic-dashboard-server/internal/models"
	"clinic-dashboard-server/internal/routes"
	"clinic-dashboard-server/internal/schedule"
	"clinic-dashboard-server/internal/store"
	"clinic-dashboard-server/internal/utils"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-dashboard",
		Short: "Front-desk appointment dashboard server",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is fine outside development.
			_ = godotenv.Load()
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Fetch appointments once and print the summary statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			status, _ := cmd.Flags().GetString("status")
			search, _ := cmd.Flags().GetString("search")
			filter := schedule.Filter{Status: status, SearchTerm: search}
			if err := filter.Validate(); err != nil {
				return err
			}

			s, _, cleanup, err := openStore(cfg, zerolog.Nop())
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			list, err := s.FetchAll(ctx)
			if err != nil {
				return fmt.Errorf("fetch appointments: %w", err)
			}

			now := time.Now()
			out := struct {
				Stats    schedule.SummaryStats `json:"stats"`
				Matching int                   `json:"matching"`
			}{
				Stats:    schedule.Summarize(list, now),
				Matching: len(schedule.FilterAppointments(list, filter, now)),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().String("status", schedule.StatusAll, "Status filter (all, pending, confirmed, cancelled, completed)")
	cmd.Flags().String("search", "", "Search term matched against patient, doctor and notes")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a dashboard operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			user, _ := cmd.Flags().GetString("user")
			role, _ := cmd.Flags().GetString("role")
			token, err := utils.GenerateToken(user, models.ParseRole(role), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("user", "", "Operator id placed in the token subject")
	cmd.Flags().String("role", string(models.RoleReceptionist), "Operator role (receptionist or admin)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runServer() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	s, dir, cleanup, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open appointment store")
	}
	defer cleanup()
	logger.Info().Str("driver", cfg.StoreDriver).Msg("appointment store ready")

	dashboard := schedule.NewDashboard(schedule.Deps{
		Store:     s,
		Directory: dir,
		Metrics:   metrics.NewDashboardMetrics(prometheus.DefaultRegisterer),
		Logger:    &logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Remote.Timeout+5*time.Second)
	if err := dashboard.Refresh(ctx); err != nil {
		// The first dashboard request retries the load.
		logger.Warn().Err(err).Msg("initial appointment load failed")
	}
	cancel()

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(logger), middleware.RequestID(), middleware.Logger(logger))

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Deps{Config: cfg, Dashboard: dashboard})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// openStore builds the appointment store and directory for the configured
// driver, with the redis directory cache in front when REDIS_ADDR is set.
func openStore(cfg *config.Config, logger zerolog.Logger) (store.Store, store.Directory, func(), error) {
	var (
		s       store.Store
		dir     store.Directory
		closers []func()
	)

	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN, Migrate: cfg.Database.Migrate})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
		s = store.NewDatabaseStore(db)
		dir = store.NewDatabaseDirectory(db)
	default:
		remote := store.RemoteConfig{
			BaseURL: cfg.Remote.URL,
			Token:   cfg.Remote.Token,
			Timeout: cfg.Remote.Timeout,
		}
		s = store.NewRemoteStore(remote)
		dir = store.NewRemoteDirectory(remote)
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, directory cache will fall through")
		}
		cancel()
		closers = append(closers, func() { _ = client.Close() })
		dir = store.NewCachedDirectory(dir, client, cfg.Redis.CacheTTL)
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return s, dir, cleanup, nil
}
