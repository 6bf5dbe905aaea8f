// Сидер демо-данных: заводит учетки в Postgres и наполняет Document
// Store активностью и аномалиями. Заменяет внешний детекторный
// конвейер в dev/demo окружении.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/sentinel-console/internal/domain"
	"github.com/xela07ax/sentinel-console/internal/infra"
	"github.com/xela07ax/sentinel-console/internal/repository/postgres"
	"github.com/xela07ax/sentinel-console/internal/store"
	"github.com/xela07ax/sentinel-console/internal/store/redisstore"
)

var demoEmails = []string{
	"john.smith@corp.com",
	"jane.doe@corp.com",
	"bob.wilson@corp.com",
	"alice.brown@corp.com",
	"charlie.davis@corp.com",
	"eva.martinez@corp.com",
	"frank.miller@corp.com",
	"grace.lee@corp.com",
}

func main() {
	var (
		password  = flag.String("password", "password123", "password for all demo accounts")
		anomalies = flag.Int("anomalies", 3, "how many users get an anomaly record")
	)
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	docStore := redisstore.New(rdb, logger)
	userRepo := postgres.NewUserRepo(cfg.Database.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := docStore.Ping(ctx); err != nil {
		logger.Fatal("Redis unreachable", zap.Error(err))
	}
	if err := userRepo.Ping(ctx); err != nil {
		logger.Fatal("Database unreachable", zap.Error(err))
	}

	if *anomalies > len(demoEmails) {
		*anomalies = len(demoEmails)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("bcrypt failed", zap.Error(err))
	}

	// 1. Учетки
	for _, email := range demoEmails {
		user := &domain.User{
			ID:           uuid.New().String(),
			Email:        email,
			PasswordHash: string(hash),
			Role:         "analyst",
		}
		if err := withRetry(ctx, func() error { return userRepo.CreateUser(ctx, user) }); err != nil {
			logger.Fatal("failed to create user", zap.String("email", email), zap.Error(err))
		}
	}
	logger.Info("demo accounts created", zap.Int("count", len(demoEmails)))

	// 2. Активность
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for _, email := range demoEmails {
		if err := seedActivity(ctx, docStore, rng, email); err != nil {
			logger.Fatal("failed to seed activity", zap.String("email", email), zap.Error(err))
		}
	}

	// 3. Аномалии для первых N пользователей
	for i := 0; i < *anomalies; i++ {
		if err := seedAnomaly(ctx, docStore, rng, demoEmails[i]); err != nil {
			logger.Fatal("failed to seed anomaly", zap.String("email", demoEmails[i]), zap.Error(err))
		}
	}

	// 4. Счетчик наблюдаемых: под наблюдением каждая демо-учетка
	err = withRetry(ctx, func() error {
		return docStore.Merge(ctx, infra.CollectionCounters, infra.CounterMonitoredUsers, map[string]string{
			domain.FieldCount: fmt.Sprintf("%d", len(demoEmails)),
		})
	})
	if err != nil {
		logger.Fatal("failed to set monitored counter", zap.Error(err))
	}

	logger.Info("seeding complete",
		zap.Int("users", len(demoEmails)),
		zap.Int("anomalies", *anomalies))
}

func seedActivity(ctx context.Context, docStore store.DocumentStore, rng *rand.Rand, email string) error {
	lastLogin := time.Now().Add(-time.Duration(rng.Intn(72)) * time.Hour)
	return withRetry(ctx, func() error {
		return docStore.Merge(ctx, infra.CollectionUserActivities, email, map[string]string{
			domain.FieldEmail:           email,
			domain.FieldLoginCount:      fmt.Sprintf("%d", 1+rng.Intn(30)),
			domain.FieldFilesDownloaded: fmt.Sprintf("%d", rng.Intn(50)),
			domain.FieldFailedLogin:     fmt.Sprintf("%d", rng.Intn(4)),
			domain.FieldLastLogin:       lastLogin.Format(time.RFC3339),
		})
	})
}

func seedAnomaly(ctx context.Context, docStore store.DocumentStore, rng *rand.Rand, email string) error {
	bucket := fmt.Sprintf("%02d:00", 8+rng.Intn(10))
	return withRetry(ctx, func() error {
		return docStore.Merge(ctx, infra.CollectionAnomalies, email, map[string]string{
			domain.FieldEmail:       email,
			domain.FieldType:        domain.AnomalyLoginAnomaly,
			domain.FieldSeverity:    domain.SeverityHigh,
			domain.FieldDescription: domain.DefaultAnomalyDescription,
			domain.FieldTime:        bucket,
		})
	})
}

// withRetry повторяет идемпотентные записи сидера. Рабочий auth-флоу
// повторов не делает, сидеру они безвредны.
func withRetry(ctx context.Context, fn func() error) error {
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(3),
	)
	return r.Do(fn)
}
