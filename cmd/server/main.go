// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/slapshotlabs/rinkside/internal/api/auth"
	"github.com/slapshotlabs/rinkside/internal/api/authz"
	"github.com/slapshotlabs/rinkside/internal/config"
	"github.com/slapshotlabs/rinkside/internal/db"
	"github.com/slapshotlabs/rinkside/internal/email"
	"github.com/slapshotlabs/rinkside/internal/identity"
	"github.com/slapshotlabs/rinkside/internal/provision"
	"github.com/slapshotlabs/rinkside/internal/ratelimit"
	"github.com/slapshotlabs/rinkside/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config/config.yaml"
}

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	identityClient, err := identity.NewClient(cfg.Identity.PoolID, cfg.Identity.ClientID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create identity client")
	}

	var emailClient email.EmailSender
	if cfg.Email.Sender != "" {
		sesClient, err := email.NewSESClient(cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create email client")
		}
		emailClient = sesClient
	} else {
		log.Warn().Msg("Email sender not configured; welcome emails disabled")
	}

	sessions, err := auth.NewSessionManager(cfg.App.SecretKey, database.Store, cfg.App.Environment != "development")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session manager")
	}

	resolver := authz.NewResolver(database.Store)
	provisioner := provision.NewService(identityClient, database.Store, database.Store,
		provision.WithStepTimeout(cfg.StepTimeout()))
	limiter := ratelimit.New(nil)

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if err := scheduler.RegisterSessionPruneJob(database.Store); err != nil {
		log.Fatal().Err(err).Msg("Failed to register session prune job")
	}

	server := newServer(cfg, &deps{
		database:    database,
		identity:    identityClient,
		email:       emailClient,
		sessions:    sessions,
		resolver:    resolver,
		provisioner: provisioner,
		limiter:     limiter,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("scheduler error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
