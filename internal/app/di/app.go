// Package di wires the application components together.
package di

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"account_portal/internal/app/config"
	"account_portal/internal/app/router"
	"account_portal/internal/app/web"
	accountadapters "account_portal/internal/feature/account/adapters"
	accounthandler "account_portal/internal/feature/account/transport/handler"
	accountmw "account_portal/internal/feature/account/transport/middleware"
	accountusecase "account_portal/internal/feature/account/usecase"
	homehandler "account_portal/internal/feature/home/transport/handler"
	sessionadapters "account_portal/internal/feature/session/adapters"
	sessionmw "account_portal/internal/feature/session/transport/middleware"
	sessionusecase "account_portal/internal/feature/session/usecase"
	"account_portal/internal/platform/csrf"
	"account_portal/internal/platform/hash"
	platformhandler "account_portal/internal/platform/http/handler"
	"account_portal/internal/platform/mail"
	"account_portal/internal/platform/metrics"
	platformredis "account_portal/internal/platform/redis"
)

// App is the assembled application.
type App struct {
	Router   *gin.Engine
	Sessions *sessionusecase.SessionUsecase
	Metrics  *metrics.Metrics

	stores *Stores
	redis  *redis.Client
}

// Options overrides components NewApp would otherwise build from the config.
type Options struct {
	Logger *slog.Logger
	// Mail replaces the sender selected by SMTP_HOST.
	Mail   mail.Sender
	// Redis replaces the client dialed from REDIS_ADDR.
	Redis  *redis.Client
}

// NewApp opens the stores and builds the router.
func NewApp(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stores, err := OpenStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{stores: stores, Metrics: metrics.NewMetrics()}

	// Redis (任意)
	app.redis = opts.Redis
	if app.redis == nil && cfg.RedisAddr != "" {
		rdb, err := platformredis.NewRedisClient(ctx, platformredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			_ = app.Close(ctx)
			return nil, err
		}
		app.redis = rdb
	}

	// Repository
	sessionRepo := NewSessionRepository(app.redis, stores.Mongo, stores.SQL)
	if app.redis == nil && stores.Mongo != nil {
		if err := sessionadapters.NewSessionMongo(stores.Mongo).EnsureIndexes(ctx); err != nil {
			_ = app.Close(ctx)
			return nil, err
		}
	}

	// Mail
	sender := opts.Mail
	if sender == nil {
		sender, err = NewMailSender(cfg, logger)
		if err != nil {
			_ = app.Close(ctx)
			return nil, err
		}
	}
	notifier := NewNotifier(cfg, sender, app.Metrics)

	// Usecase
	hasher := hash.NewBcrypt(cfg.BcryptCost)
	accountUC := accountusecase.NewAccountUsecase(stores.Accounts, hasher)
	resetUC := accountusecase.NewResetUsecase(stores.Accounts, hasher, notifier)
	app.Sessions = sessionusecase.NewSessionUsecase(sessionRepo, cfg.SessionTTL, cfg.MaxSessionsPerAccount)

	// Web
	templates, err := web.LoadTemplates()
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	sessions := sessionmw.NewSessions(app.Sessions, sessionmw.CookieConfig{Secure: cfg.SessionSecureCookie})
	renderer := web.NewRenderer(cfg.AppName, sessions.Flashes)
	sessions.OnError(renderer.Error)

	guard, err := csrf.NewGuard(csrf.Config{
		Secret: cfg.CSRFSecret,
		TTL:    cfg.SessionTTL,
		Secure: cfg.SessionSecureCookie,
	})
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	// Handler
	accountH := accounthandler.NewAccountHandler(accountUC, resetUC, sessions, renderer, cfg.BaseURL).
		WithRecorder(app.Metrics)
	homeH := homehandler.NewHomeHandler(renderer)
	healthH := platformhandler.NewHealthHandler(app.healthChecks()...)
	staticH, err := platformhandler.NewStaticHandler(router.StaticPrefix, web.Static(), platformhandler.StaticMaxAge)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	app.Router = router.NewRouter(router.Deps{
		Logger:      logger,
		Templates:   templates,
		Metrics:     app.Metrics,
		Sessions:    sessions,
		LoadAccount: accountmw.LoadAccount(accountUC, sessions.AccountID),
		CSRF:        guard,
		Home:        homeH,
		Account:     accountH,
		Health:      healthH,
		Static:      staticH,
	})
	return app, nil
}

func (a *App) healthChecks() []platformhandler.Check {
	checks := []platformhandler.Check{{Name: "database", Ping: a.stores.Ping}}
	if a.redis != nil {
		rdb := a.redis
		checks = append(checks, platformhandler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}
	return checks
}

// Close releases the Redis client and the database connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.stores != nil {
		errs = append(errs, a.stores.Close(ctx))
	}
	return errors.Join(errs...)
}

var _ accounthandler.Recorder = (*metrics.Metrics)(nil)
var _ accountadapters.MailRecorder = (*metrics.Metrics)(nil)
