package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetai/internal/auth"
	"budgetai/internal/backend"
	"budgetai/internal/cache"
	"budgetai/internal/cli"
	apphttp "budgetai/internal/http"
	"budgetai/internal/log"
	"budgetai/internal/metrics"
	"budgetai/internal/search"
	"budgetai/internal/services"
	"budgetai/internal/session"
	"budgetai/internal/templates"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	tmpl, err := loadTemplates(cfg.TemplatesFile)
	if err != nil {
		logger.Error("Failed to load account templates", log.FieldError, err, "path", cfg.TemplatesFile)
		os.Exit(1)
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	repo := result.Repository

	m := metrics.New()

	pw := auth.NewPasswordAuthenticator(repo)
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	resets := auth.NewResetManager(repo, repo, pw, cfg.ResetTokenTTL)
	accounts := services.NewAccountService(repo, pw, tokens, resets, tmpl)

	if cfg.SeedDemo {
		user, created, err := accounts.SeedDemo(context.Background())
		if err != nil {
			logger.Error("Failed to seed demo account", log.FieldError, err)
			os.Exit(1)
		}
		if created {
			logger.Info("Seeded demo account", log.FieldUserID, user.ID, "email", user.Email)
		}
	}

	searcher := search.NewService(search.NewSeededSource(cfg.SearchSeed),
		search.WithCache(1000, cfg.SearchCacheTTL),
		search.WithTimeout(cfg.SearchTimeout),
		search.WithObserver(m.ObserveSearch),
	)

	sessions := session.NewManager(repo, cfg.SessionCacheSize, cfg.SessionTTL,
		session.WithSizeHook(m.SetSessions),
		session.WithSessionOptions(
			session.WithSearcher(searcher),
			session.WithSaveFailureHook(m.PersistenceFailed),
		),
	)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Accounts:           accounts,
		Tokens:             tokens,
		Sessions:           sessions,
		Metrics:            m,
		Ready:              result.Ping,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	janitor := cache.NewJanitor(time.Minute, func(removed int) {
		logger.Debug("Expired sessions removed", "removed", removed)
	}, sessions.Cleaner())
	go janitor.Run(ctx)

	logger.Info("Starting budgetai server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

func loadTemplates(path string) (*templates.Set, error) {
	if path == "" {
		return templates.Default()
	}
	return templates.Load(path)
}
