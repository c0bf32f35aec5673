package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/oakmart/storecore/api"
	"github.com/oakmart/storecore/auth"
	"github.com/oakmart/storecore/checkout"
	"github.com/oakmart/storecore/config"
	"github.com/oakmart/storecore/health"
	"github.com/oakmart/storecore/logger"
	"github.com/oakmart/storecore/notify"
	"github.com/oakmart/storecore/payment"
	"github.com/oakmart/storecore/persistence"
	"github.com/oakmart/storecore/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	defer logger.Log.Sync()

	logger.Log.Info("starting storecore",
		zap.Int("port", cfg.Port),
		zap.String("db_type", cfg.DBType),
	)

	repo, err := persistence.Open(cfg.DBType, cfg.DSN, nil, !cfg.SkipAutoMigrate)
	if err != nil {
		logger.Log.Fatal("failed to initialize repository", zap.Error(err))
	}

	var notifier notify.Notifier
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host: cfg.SMTP.Host,
			Port: cfg.SMTP.Port,
			User: cfg.SMTP.User,
			Pass: cfg.SMTP.Pass,
			From: cfg.SMTP.From,
		})
	} else {
		logger.Log.Warn("SMTP not configured, logging notifications instead")
		notifier = notify.NewLogNotifier(logger.Log)
	}

	var limiter auth.RateLimiter = auth.NewStoreRateLimiter(repo)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiter = auth.NewRedisRateLimiter(client, "")
		logger.Log.Info("using redis resend cool-down store", zap.String("addr", cfg.RedisAddr))
	}

	hasher := auth.NewBcryptHasher(14)
	issuer := auth.NewIssuer(repo, limiter, notifier, cfg.BaseURL, logger.Log)
	verifier := auth.NewVerifier(repo, logger.Log)

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	sessions := session.NewManager(session.NewHS256Strategy(cfg.SessionSecret, sessionTTL))

	paymentVerifier := payment.NewVerifier(cfg.PaymentSecret)
	coordinator := checkout.NewCoordinator(repo, logger.Log)

	h := api.NewHandler(repo, hasher, issuer, verifier, sessions, paymentVerifier, coordinator)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	g := e.Group("/api/v1")
	h.RegisterRoutes(g)

	hm := health.NewManager("1.0.0", 5*time.Second)
	hm.Register(health.NewChecker("database", func(ctx context.Context) error {
		sqlDB, err := repo.DB().DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}))
	e.GET("/healthz", echo.WrapHandler(hm.LiveHandler()))
	e.GET("/ready", echo.WrapHandler(hm.ReadyHandler()))

	logger.Log.Info("server is starting", zap.Int("port", cfg.Port))
	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Log.Fatal("server failed to start", zap.Error(err))
	}
}
