package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	adapthttp "weightlog/internal/adapter/http"
	"weightlog/internal/adapter/rediscache"
	"weightlog/internal/app"
	"weightlog/internal/config"
	"weightlog/internal/logging"
	"weightlog/internal/storage"
)

const shutdownGracePeriod = 15 * time.Second

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(logging.Config{
		Service: "weightlog",
		Version: cfg.App.Version,
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
	})

	if err := run(cfg, logger); err != nil {
		logger.Error("weightlog stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() { _ = store.Close() }()

	creds, err := app.NewCredentials(app.CredentialsConfig{
		TokenKey: cfg.Auth.TokenKey,
		TokenTTL: cfg.Auth.TokenTTL,
		HashCost: cfg.Auth.BcryptCost,
	})
	if err != nil {
		return err
	}

	proxies, err := adapthttp.ParseTrustedProxies(cfg.HTTP.TrustedProxies)
	if err != nil {
		return err
	}

	auth, err := app.NewAuthService(store, creds, creds)
	if err != nil {
		return err
	}

	var cache app.ChartCache
	if cfg.Redis.URL != "" {
		rdb, err := rediscache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		cache = rediscache.New(rdb, cfg.Redis.ChartTTL)
		logger.Info("chart cache enabled", "ttl", cfg.Redis.ChartTTL)
	}

	srv := adapthttp.New(
		auth,
		app.NewAccountService(store, creds),
		app.NewEntryService(store),
		app.NewChartsService(store, store, cache),
		adapthttp.Config{
			CORSOrigins:    cfg.HTTP.CORSOrigins,
			MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
			LoginLimit:     cfg.Auth.LoginRateLimit,
			LoginWindow:    cfg.Auth.LoginWindow,
			TrustedProxies: proxies,
			Logger:         logger,
		},
	)
	if cfg.OIDC.Enabled() {
		sso, err := adapthttp.NewSSO(ctx, adapthttp.SSOConfig{
			Issuer:       cfg.OIDC.Issuer,
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  cfg.OIDC.RedirectURL,
		})
		if err != nil {
			return err
		}
		srv.WithSSO(sso)
		logger.Info("sso enabled", "issuer", cfg.OIDC.Issuer)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr, "db_driver", cfg.DB.Driver)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
		return httpServer.Close()
	}
	logger.Info("weightlog stopped")
	return nil
}
