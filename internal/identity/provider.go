package identity

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/sentinel-console/internal/domain"
	"github.com/xela07ax/sentinel-console/internal/infra/auth"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials возвращается как есть: текст показывается
// пользователю, не уточняя, что именно неверно (защита от перебора).
var ErrInvalidCredentials = errors.New("invalid credentials")

// Provider — контракт Identity Provider: вход по паролю с выпуском
// сессионного токена и обмен кастомного токена на сессию.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*domain.User, string, error)
	SignInWithCustomToken(ctx context.Context, token string) (*domain.User, error)
}

// UserSource описывает требования провайдера к хранилищу учетных записей.
type UserSource interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// PGProvider — провайдер поверх Postgres (источник правды по учеткам).
// Сессионные токены подписывает тем же RSA ключом, что и tokend, но с
// issuer портала: валидаторы по issuer не дают перепутать типы токенов.
type PGProvider struct {
	repo       UserSource
	privateKey *rsa.PrivateKey
	sessionTTL time.Duration

	// Проверка кастомных токенов, выпущенных tokend
	customValidator *auth.BaseValidator
}

var _ Provider = (*PGProvider)(nil)

func NewPGProvider(repo UserSource, privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, sessionTTL time.Duration) *PGProvider {
	return &PGProvider{
		repo:            repo,
		privateKey:      privateKey,
		sessionTTL:      sessionTTL,
		customValidator: auth.NewBaseValidator(publicKey, domain.IssuerTokend),
	}
}

// SignInWithPassword аутентифицирует пользователя и выпускает сессионный токен.
func (p *PGProvider) SignInWithPassword(ctx context.Context, email, password string) (*domain.User, string, error) {
	// 1. Аутентификация (источник правды — Postgres)
	user, err := p.repo.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, "", ErrInvalidCredentials
	}

	// 2. Проверка пароля (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	// 3. Короткоживущий сессионный токен портала
	token, err := p.mintSessionToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return user, token, nil
}

// SignInWithCustomToken обменивает кастомный токен tokend на сессию дашборда.
func (p *PGProvider) SignInWithCustomToken(_ context.Context, token string) (*domain.User, error) {
	claims, err := p.customValidator.VerifyToken(token)
	if err != nil {
		return nil, fmt.Errorf("custom token exchange rejected: %w", err)
	}

	// Идентичность целиком берется из подписанных claims — поход в базу
	// на каждый обмен не нужен
	return &domain.User{
		ID:    claims.UserID,
		Email: claims.Email,
	}, nil
}

func (p *PGProvider) mintSessionToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := &domain.CustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    domain.IssuerPortal,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}
