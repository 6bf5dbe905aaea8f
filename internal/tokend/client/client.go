// Package client содержит HTTP-клиент сервиса выпуска токенов.
// Клиент намеренно не делает повторных попыток: неудачный выпуск
// токена фиксируется вызывающей стороной как финальный отказ.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"github.com/xela07ax/sentinel-console/internal/domain"
	"go.uber.org/zap"
)

// ErrTokenIssue — единственная ошибка, которую видит вызывающая сторона.
// Детали отказа остаются в логах, наружу уходит обобщенный текст.
var ErrTokenIssue = errors.New("Failed to create token")

type Client struct {
	httpClient *http.Client
	url        string
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "tokend",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        baseURL + "/generateToken",
		cb:         cb,
		logger:     logger.Named("tokend-client"),
	}
}

// GenerateToken запрашивает кастомный токен для указанной личности.
// sessionToken подтверждает, что запрос делает уже аутентифицированный
// вызывающий и что запрошенная личность совпадает с его собственной.
func (c *Client) GenerateToken(ctx context.Context, sessionToken, uid, email string) (string, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, sessionToken, uid, email)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("Token request rejected by circuit breaker", zap.Error(err))
		} else {
			c.logger.Error("Token request failed", zap.String("uid", uid), zap.Error(err))
		}
		return "", ErrTokenIssue
	}
	return result.(string), nil
}

func (c *Client) doRequest(ctx context.Context, sessionToken, uid, email string) (string, error) {
	body, err := json.Marshal(domain.TokenRequest{UID: uid, Email: email})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tokend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tokend returned status %d", resp.StatusCode)
	}

	var tr domain.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if tr.Token == "" {
		return "", errors.New("tokend returned empty token")
	}
	return tr.Token, nil
}
