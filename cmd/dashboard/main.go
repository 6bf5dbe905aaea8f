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
	"github.com/xela07ax/sentinel-console/internal/binder"
	"github.com/xela07ax/sentinel-console/internal/dashboard"
	"github.com/xela07ax/sentinel-console/internal/identity"
	"github.com/xela07ax/sentinel-console/internal/infra"
	"github.com/xela07ax/sentinel-console/internal/infra/auth"
	"github.com/xela07ax/sentinel-console/internal/repository/postgres"
	"github.com/xela07ax/sentinel-console/internal/store/redisstore"
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

	auditRepo := postgres.NewAuditRepo(cfg.Database.URL)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := docStore.Ping(pingCtx); err != nil {
		logger.Fatal("Redis unreachable", zap.Error(err))
	}
	if err := auditRepo.Ping(pingCtx); err != nil {
		logger.Fatal("Database unreachable", zap.Error(err))
	}
	pingCancel()

	trail := audit.NewTrail(auditRepo, logger, cfg.Audit.BufferSize, cfg.Audit.FlushInterval)
	trail.Start()
	defer trail.Stop()

	// 3. Identity: дашборду нужна только проверка кастомных токенов
	privateKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("failed to parse private key", zap.Error(err))
	}
	publicKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("failed to parse public key", zap.Error(err))
	}
	provider := identity.NewPGProvider(nil, privateKey, publicKey, cfg.Auth.SessionTTL)
	session := identity.NewSession()

	// 4. Живой наблюдатель: подписки на хранилище и пересчет агрегатов
	// Контекст управляет жизнью фоновых слушателей Pub/Sub
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	b := binder.New(docStore, binder.NewMetrics(reg), logger)
	if err := b.Bind(appCtx); err != nil {
		logger.Fatal("failed to bind live view", zap.Error(err))
	}
	defer b.Close()

	// 5. Сборка слоев (Dependency Injection)
	handler := dashboard.NewHandler(provider, session, b, trail, logger)
	server := dashboard.NewServer(handler, reg, logger)

	srv := &http.Server{
		Addr:         cfg.Dashboard.Addr,
		Handler:      server,
		ReadTimeout:  cfg.Dashboard.ReadTimeout,
		WriteTimeout: cfg.Dashboard.WriteTimeout,
	}

	// 6. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Monitoring console started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("Monitoring console stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("Monitoring console exited properly")
}
