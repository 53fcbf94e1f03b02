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

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/harentsoaR/clinic-api/internal/auth"
	"github.com/harentsoaR/clinic-api/internal/config"
	"github.com/harentsoaR/clinic-api/internal/handlers"
	"github.com/harentsoaR/clinic-api/internal/logger"
	"github.com/harentsoaR/clinic-api/internal/metrics"
	"github.com/harentsoaR/clinic-api/internal/server"
	"github.com/harentsoaR/clinic-api/internal/services"
	"github.com/harentsoaR/clinic-api/internal/store"
	"github.com/harentsoaR/clinic-api/internal/store/memstore"
	"github.com/harentsoaR/clinic-api/internal/store/mongostore"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// bootstrap loads config and opens the store shared by every command.
func bootstrap(ctx context.Context) (*config.Config, zerolog.Logger, store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Dev:    cfg.IsDev(),
	})

	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory store, data is lost on exit")
		return cfg, log, memstore.New(), nil
	default:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		st, err := mongostore.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, log, nil, fmt.Errorf("connect to mongodb: %w", err)
		}
		if err := st.EnsureIndexes(connectCtx); err != nil {
			_ = st.Close(context.Background())
			return nil, log, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongodb")
		return cfg, log, st, nil
	}
}

func newServices(cfg *config.Config, st store.Store, notifier services.Notifier, m *metrics.Metrics, log zerolog.Logger) (*services.Services, *auth.TokenManager, error) {
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, nil, err
	}
	svc := services.New(st, tokens, auth.NewPasswordHasher(cfg.BcryptCost), services.Options{
		AllowAdminSignup: cfg.AllowAdminSignup,
		Notifier:         notifier,
		Metrics:          m,
		Logger:           log,
	})
	return svc, tokens, nil
}

func runServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, st, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("store close failed")
		}
	}()

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New("clinic")
	notifier := services.NewNotificationService(services.NotificationConfig{
		TextbeltKey:  cfg.TextbeltAPIKey,
		TextbeltURL:  cfg.TextbeltURL,
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUsername: cfg.SMTPUsername,
		SMTPPassword: cfg.SMTPPassword,
		SMTPFrom:     cfg.SMTPFrom,
	}, log)

	svc, tokens, err := newServices(cfg, st, notifier, m, log)
	if err != nil {
		return err
	}
	router := server.NewRouter(server.Deps{
		Config:  cfg,
		Handler: handlers.NewHandler(svc, st, log),
		Tokens:  tokens,
		Metrics: m,
		Log:     log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
