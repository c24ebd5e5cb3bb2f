// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hudumia/hudumia/internal/auth"
	authpg "github.com/hudumia/hudumia/internal/auth/postgres"
	"github.com/hudumia/hudumia/internal/config"
	"github.com/hudumia/hudumia/internal/httpapi"
	"github.com/hudumia/hudumia/internal/logging"
	"github.com/hudumia/hudumia/internal/mail"
	"github.com/hudumia/hudumia/internal/observability"
	"github.com/hudumia/hudumia/internal/store"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the credential service",
		Long: `Start the HTTP API for sign-up, sign-in, and password resets,
plus the metrics and health endpoint server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd)
		},
	}

	// Flags mirror config keys so posflag can merge them.
	cmd.Flags().String("http.addr", "", "API listen address")
	cmd.Flags().String("observability.addr", "", "metrics/health listen address")
	cmd.Flags().String("log.format", "", "log format (json or text)")
	cmd.Flags().String("log.level", "", "log level (debug, info, warn, error)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	logging.SetDefault("hudumia", version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))

	slog.Info("starting credential service",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Observability.Addr,
	)

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	slog.Info("connected to database")

	mailer, err := mail.NewSMTPMailer(
		cfg.SMTP.Host, cfg.SMTP.Port,
		cfg.SMTP.Username, cfg.SMTP.Password,
		cfg.SMTP.From,
	)
	if err != nil {
		return fmt.Errorf("failed to configure mailer: %w", err)
	}

	tokens, err := auth.NewJWTIssuer([]byte(cfg.Auth.JWTSecret), nil)
	if err != nil {
		return fmt.Errorf("failed to configure token issuer: %w", err)
	}

	svc, err := auth.NewService(
		authpg.NewDoctorRepository(pool),
		auth.NewArgon2idHasher(),
		auth.NewTOTPIssuer(cfg.Auth.TOTPIssuer, nil),
		tokens,
		mailer,
		cfg.HTTP.ResetBaseURL,
	)
	if err != nil {
		return fmt.Errorf("failed to build credential service: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Ready once the database answers a ping.
	obsServer := observability.NewServer(cfg.Observability.Addr, func() bool {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer pingCancel()
		return pool.Ping(pingCtx) == nil
	})
	obsErrChan, err := obsServer.Start()
	if err != nil {
		return fmt.Errorf("failed to start observability server: %w", err)
	}
	go monitorServerErrors(ctx, cancel, obsErrChan, "observability")

	handler := httpapi.NewHandler(svc, obsServer.Metrics())
	router := httpapi.NewRouter(handler, obsServer.Metrics(), cfg.HTTP.CORSOrigins)
	apiServer := httpapi.NewServer(cfg.HTTP.Addr, router)

	apiErrChan, err := apiServer.Start()
	if err != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if stopErr := obsServer.Stop(shutdownCtx); stopErr != nil {
			slog.Warn("failed to stop observability server during cleanup", "error", stopErr)
		}
		return fmt.Errorf("failed to start api server: %w", err)
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "api")

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Credential service started")
	slog.Info("credential service ready",
		"api_addr", apiServer.Addr(),
		"metrics_addr", obsServer.Addr(),
	)

	// Wait for shutdown signal or server failure
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	// Graceful shutdown
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping api server", "error", err)
	}
	if err := obsServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// This ensures that server failures trigger graceful shutdown of the entire process.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
		// Context cancelled, exit monitoring
	}
}
