// Package portal реализует бэкенд портала входа: проверка пароля,
// учет активности пользователя и обмен сессии на кастомный токен
// для перехода в консоль мониторинга.
package portal

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/sentinel-console/internal/audit"
	"github.com/xela07ax/sentinel-console/internal/domain"
	"github.com/xela07ax/sentinel-console/internal/identity"
	"github.com/xela07ax/sentinel-console/internal/infra"
	"github.com/xela07ax/sentinel-console/internal/store"
	"go.uber.org/zap"
)

// Ошибки валидации формы. Тексты показываются пользователю как есть.
var (
	ErrEmailFormat    = errors.New("Please enter a valid email")
	ErrPasswordLength = errors.New("Password must be at least 6 characters")
)

// TokenClient — клиент сервиса выпуска токенов (см. tokend/client).
type TokenClient interface {
	GenerateToken(ctx context.Context, sessionToken, uid, email string) (string, error)
}

type Service struct {
	provider identity.Provider
	session  *identity.Session
	store    store.DocumentStore
	tokend   TokenClient
	trail    audit.Recorder
	logger   *zap.Logger
	metrics  *Metrics

	dashboardURL string
	tokenTimeout time.Duration
}

func NewService(
	provider identity.Provider,
	session *identity.Session,
	docStore store.DocumentStore,
	tokend TokenClient,
	trail audit.Recorder,
	metrics *Metrics,
	cfg infra.PortalConfig,
	logger *zap.Logger,
) *Service {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Service{
		provider:     provider,
		session:      session,
		store:        docStore,
		tokend:       tokend,
		trail:        trail,
		logger:       logger.Named("portal"),
		metrics:      metrics,
		dashboardURL: cfg.DashboardURL,
		tokenTimeout: cfg.TokenTimeout,
	}
}

// ValidateCredentials повторяет клиентскую проверку формы на сервере.
// Это не граница безопасности, а защита от мусорных запросов.
func ValidateCredentials(email, password string) error {
	if !strings.Contains(email, "@") {
		return ErrEmailFormat
	}
	if len(password) < 6 {
		return ErrPasswordLength
	}
	return nil
}

// Login проводит полный цикл входа и возвращает URL перехода в консоль.
//
// Порядок жесткий: сначала аутентификация и учет активности, потом
// запрос токена. Отказ tokend НЕ откатывает уже записанный учет,
// вход просто не завершается переходом.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return "", err
	}

	// 1. Аутентификация
	user, sessionToken, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.metrics.LoginFailed.Inc()
		s.recordFailedAttempt(ctx, email)
		s.record(audit.ActionLoginFailed, email, err.Error())
		return "", err
	}

	s.session.Establish(user)

	// 2. Учет успешного входа (best-effort, отказы не валят вход)
	s.recordSuccessfulLogin(ctx, user.Email)
	s.metrics.LoginSuccess.Inc()
	s.record(audit.ActionLoginSuccess, user.Email, "")

	// 3. Кастомный токен для консоли. Таймаут наш, повторов нет.
	tokenCtx, cancel := context.WithTimeout(ctx, s.tokenTimeout)
	defer cancel()

	token, err := s.tokend.GenerateToken(tokenCtx, sessionToken, user.ID, user.Email)
	if err != nil {
		s.metrics.TokenFailures.Inc()
		s.logger.Error("custom token request failed after successful login",
			zap.String("email", user.Email), zap.Error(err))
		return "", err
	}

	return s.dashboardURL + "?token=" + url.QueryEscape(token), nil
}

// RegisterVisit учитывает загрузку страницы портала (fire-and-forget).
func (s *Service) RegisterVisit(ctx context.Context) {
	_, err := s.store.Increment(ctx, infra.CollectionCounters, infra.CounterUserCount, domain.FieldCount, 1)
	if err != nil {
		s.logger.Warn("visit counter increment failed", zap.Error(err))
	}
}

// recordSuccessfulLogin инкрементирует счетчик входов, фиксирует время
// и сбрасывает счетчик неудач. Каждый шаг best-effort.
func (s *Service) recordSuccessfulLogin(ctx context.Context, email string) {
	now := time.Now().Format(time.RFC3339)

	if _, err := s.store.Increment(ctx, infra.CollectionUserActivities, email, domain.FieldLoginCount, 1); err != nil {
		s.logger.Warn("login_count increment failed", zap.String("email", email), zap.Error(err))
	}
	err := s.store.Merge(ctx, infra.CollectionUserActivities, email, map[string]string{
		domain.FieldLastLogin: now,
		domain.FieldEmail:     email,
	})
	if err != nil {
		s.logger.Warn("lastLogin merge failed", zap.String("email", email), zap.Error(err))
	}

	// Сброс неудачных попыток отдельной записью: ее отказ не трогает
	// уже зафиксированный вход
	err = s.store.Merge(ctx, infra.CollectionUserActivities, email, map[string]string{
		domain.FieldFailedLogin: "0",
	})
	if err != nil {
		s.logger.Warn("failed_login reset failed", zap.String("email", email), zap.Error(err))
	}
}

// recordFailedAttempt учитывает неудачную попытку под введенным email,
// существует такая учетка или нет.
func (s *Service) recordFailedAttempt(ctx context.Context, email string) {
	if _, err := s.store.Increment(ctx, infra.CollectionUserActivities, email, domain.FieldFailedLogin, 1); err != nil {
		s.logger.Warn("failed_login increment failed", zap.String("email", email), zap.Error(err))
	}
	err := s.store.Merge(ctx, infra.CollectionUserActivities, email, map[string]string{
		domain.FieldLastFailedAttempt: time.Now().Format(time.RFC3339),
		domain.FieldEmail:             email,
	})
	if err != nil {
		s.logger.Warn("lastFailedAttempt merge failed", zap.String("email", email), zap.Error(err))
	}
}

func (s *Service) record(action, email, errMsg string) {
	status := "OK"
	if errMsg != "" {
		status = "ERROR"
	}
	s.trail.Record(audit.Event{
		ID:        uuid.New().String(),
		Email:     email,
		Action:    action,
		Status:    status,
		Error:     errMsg,
		Timestamp: time.Now(),
	})
}
