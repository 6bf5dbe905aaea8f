package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/sentinel-console/internal/domain"
	"github.com/xela07ax/sentinel-console/internal/infra/auth"
	"golang.org/x/crypto/bcrypt"
)

func mintTestToken(t *testing.T, key *rsa.PrivateKey, issuer string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := &domain.CustomClaims{
		UserID: "user-1",
		Email:  "john@corp.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Second)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

type stubUserSource struct {
	users map[string]*domain.User
}

func (s *stubUserSource) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.users[email], nil
}

func newTestProvider(t *testing.T) (*PGProvider, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	source := &stubUserSource{users: map[string]*domain.User{
		"john@corp.com": {ID: "user-1", Email: "john@corp.com", PasswordHash: string(hash)},
	}}
	return NewPGProvider(source, key, &key.PublicKey, time.Minute), key
}

func TestSignInWithPassword_IssuesPortalSessionToken(t *testing.T) {
	provider, key := newTestProvider(t)

	user, token, err := provider.SignInWithPassword(context.Background(), "john@corp.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user-1", user.ID)

	// Сессионный токен валиден только для issuer портала
	portalValidator := auth.NewBaseValidator(&key.PublicKey, domain.IssuerPortal)
	claims, err := portalValidator.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "john@corp.com", claims.Email)

	tokendValidator := auth.NewBaseValidator(&key.PublicKey, domain.IssuerTokend)
	_, err = tokendValidator.VerifyToken(token)
	assert.Error(t, err)
}

func TestSignInWithPassword_RejectsWrongPassword(t *testing.T) {
	provider, _ := newTestProvider(t)

	_, _, err := provider.SignInWithPassword(context.Background(), "john@corp.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInWithPassword_RejectsUnknownUser(t *testing.T) {
	provider, _ := newTestProvider(t)

	// Текст ошибки одинаковый для несуществующей учетки и неверного
	// пароля: ответ не выдает, какая именно часть не совпала
	_, _, err := provider.SignInWithPassword(context.Background(), "ghost@corp.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInWithCustomToken_RoundTrip(t *testing.T) {
	provider, key := newTestProvider(t)

	// Кастомный токен той же пары ключей, но с issuer tokend
	token := mintTestToken(t, key, domain.IssuerTokend, time.Minute)
	user, err := provider.SignInWithCustomToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "john@corp.com", user.Email)
}

func TestSignInWithCustomToken_RejectsSessionToken(t *testing.T) {
	provider, key := newTestProvider(t)

	token := mintTestToken(t, key, domain.IssuerPortal, time.Minute)
	_, err := provider.SignInWithCustomToken(context.Background(), token)
	assert.Error(t, err)
}

func TestSignInWithCustomToken_RejectsExpired(t *testing.T) {
	provider, key := newTestProvider(t)

	token := mintTestToken(t, key, domain.IssuerTokend, -time.Minute)
	_, err := provider.SignInWithCustomToken(context.Background(), token)
	assert.Error(t, err)
}

func TestSession_EstablishClearAndObserve(t *testing.T) {
	s := NewSession()
	assert.Nil(t, s.Current())

	changes := s.Changes()

	user := &domain.User{ID: "user-1", Email: "john@corp.com"}
	s.Establish(user)
	assert.Equal(t, user, s.Current())
	assert.Equal(t, user, <-changes)

	s.Clear()
	assert.Nil(t, s.Current())
	assert.Nil(t, <-changes)
}

func TestSession_SlowObserverSeesLatestState(t *testing.T) {
	s := NewSession()
	changes := s.Changes()

	// Наблюдатель не читал: промежуточные состояния вытесняются
	s.Establish(&domain.User{ID: "user-1"})
	s.Establish(&domain.User{ID: "user-2"})
	s.Clear()

	assert.Nil(t, <-changes)
}
