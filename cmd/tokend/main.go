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
	"go.uber.org/zap"

	"github.com/xela07ax/sentinel-console/internal/audit"
	"github.com/xela07ax/sentinel-console/internal/domain"
	"github.com/xela07ax/sentinel-console/internal/infra"
	"github.com/xela07ax/sentinel-console/internal/infra/auth"
	"github.com/xela07ax/sentinel-console/internal/repository/postgres"
	"github.com/xela07ax/sentinel-console/internal/tokend"
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

	// 2. Криптография: подписываем приватным, проверяем публичным
	privateKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("failed to parse private key", zap.Error(err))
	}
	publicKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("failed to parse public key", zap.Error(err))
	}

	// 3. Журнал аудита (батчи в Postgres)
	auditRepo := postgres.NewAuditRepo(cfg.Database.URL)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := auditRepo.Ping(pingCtx); err != nil {
		logger.Fatal("audit database unreachable", zap.Error(err))
	}
	pingCancel()
	trail := audit.NewTrail(auditRepo, logger, cfg.Audit.BufferSize, cfg.Audit.FlushInterval)
	trail.Start()
	defer trail.Stop()

	// 4. Сборка слоев (Dependency Injection)
	reg := prometheus.NewRegistry()
	metrics := tokend.NewMetrics(reg)

	issuer := tokend.NewIssuer(privateKey, cfg.Auth.CustomTokenTTL)
	handler := tokend.NewHandler(issuer, trail, metrics, logger)
	// Вызывающий предъявляет сессионный токен портала
	validator := auth.NewBaseValidator(publicKey, domain.IssuerPortal)

	server := tokend.NewServer(cfg.Tokend, handler, validator, metrics, reg, logger)

	srv := &http.Server{
		Addr:         cfg.Tokend.Addr,
		Handler:      server,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// 5. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Token issuer started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("Token issuer stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("Token issuer exited properly")
}
