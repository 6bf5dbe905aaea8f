package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/sentinel-console/internal/audit"
	"github.com/xela07ax/sentinel-console/internal/identity"
	"github.com/xela07ax/sentinel-console/internal/infra"
	"github.com/xela07ax/sentinel-console/internal/infra/auth"
	"github.com/xela07ax/sentinel-console/internal/portal"
	"github.com/xela07ax/sentinel-console/internal/repository/postgres"
	"github.com/xela07ax/sentinel-console/internal/store/redisstore"
	"github.com/xela07ax/sentinel-console/internal/tokend/client"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 2. Инфраструктура и ресурсы
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	docStore := redisstore.New(rdb, logger)

	userRepo := postgres.NewUserRepo(cfg.Database.URL)
	auditRepo := postgres.NewAuditRepo(cfg.Database.URL)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := docStore.Ping(pingCtx); err != nil {
		logger.Fatal("Redis unreachable", zap.Error(err))
	}
	if err := userRepo.Ping(pingCtx); err != nil {
		logger.Fatal("Database unreachable", zap.Error(err))
	}
	pingCancel()

	trail := audit.NewTrail(auditRepo, logger, cfg.Audit.BufferSize, cfg.Audit.FlushInterval)
	trail.Start()
	defer trail.Stop()

	// 3. Identity Provider: пароли в Postgres, сессии подписываем RS256
	privateKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("failed to parse private key", zap.Error(err))
	}
	publicKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("failed to parse public key", zap.Error(err))
	}
	provider := identity.NewPGProvider(userRepo, privateKey, publicKey, cfg.Auth.SessionTTL)
	session := identity.NewSession()

	// 4. Клиент tokend: таймаут и предохранитель, без ретраев
	tokendClient := client.New(cfg.Portal.TokendURL, cfg.Portal.TokenTimeout, logger)

	// 5. Сборка слоев (Dependency Injection)
	reg := prometheus.NewRegistry()
	metrics := portal.NewMetrics(reg)

	service := portal.NewService(provider, session, docStore, tokendClient, trail, metrics, cfg.Portal, logger)
	handler := portal.NewHandler(service, logger)
	server := portal.NewServer(handler, reg, logger)

	srv := &http.Server{
		Addr:         cfg.Portal.Addr,
		Handler:      server,
		ReadTimeout:  cfg.Portal.ReadTimeout,
		WriteTimeout: cfg.Portal.WriteTimeout,
	}

	// 6. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Login portal started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("Login portal stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("Login portal exited properly")
}
