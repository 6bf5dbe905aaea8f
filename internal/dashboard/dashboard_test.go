package dashboard

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/sentinel-console/internal/audit"
	"github.com/xela07ax/sentinel-console/internal/binder"
	"github.com/xela07ax/sentinel-console/internal/domain"
	"github.com/xela07ax/sentinel-console/internal/identity"
	"github.com/xela07ax/sentinel-console/internal/infra"
	"github.com/xela07ax/sentinel-console/internal/store/memstore"
	"go.uber.org/zap"
)

type dashEnv struct {
	key     *rsa.PrivateKey
	store   *memstore.Store
	session *identity.Session
	binder  *binder.Binder
	server  *Server
}

func newDashEnv(t *testing.T) *dashEnv {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	logger := zap.NewNop()
	docStore := memstore.New()
	session := identity.NewSession()

	// Провайдеру дашборда нужна только проверка кастомных токенов
	provider := identity.NewPGProvider(nil, key, &key.PublicKey, time.Minute)

	b := binder.New(docStore, binder.NewMetrics(nil), logger)
	require.NoError(t, b.Bind(context.Background()))
	t.Cleanup(b.Close)

	handler := NewHandler(provider, session, b, audit.NopRecorder{}, logger)
	return &dashEnv{
		key:     key,
		store:   docStore,
		session: session,
		binder:  b,
		server:  NewServer(handler, nil, logger),
	}
}

func (e *dashEnv) customToken(t *testing.T, uid, email string) string {
	t.Helper()
	now := time.Now()
	claims := &domain.CustomClaims{
		UserID: uid,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    domain.IssuerTokend,
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(e.key)
	require.NoError(t, err)
	return token
}

func (e *dashEnv) get(path string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, r)
	return w
}

func TestRoot_TokenExchangedOnceAndStripped(t *testing.T) {
	env := newDashEnv(t)
	token := env.customToken(t, "user-1", "john@corp.com")

	w := env.get("/?token=" + token)
	require.Equal(t, http.StatusSeeOther, w.Code)

	// Редирект на тот же адрес без токена
	loc := w.Header().Get("Location")
	assert.Equal(t, "/", loc)

	require.NotNil(t, env.session.Current())
	assert.Equal(t, "john@corp.com", env.session.Current().Email)

	// Повторный заход по очищенному URL обмена не вызывает
	w = env.get(loc)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoot_InvalidTokenRedirectsWithoutSession(t *testing.T) {
	env := newDashEnv(t)

	w := env.get("/?token=not-a-jwt")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Nil(t, env.session.Current())
}

func TestRoot_SessionTokenRejectedAsCustomToken(t *testing.T) {
	env := newDashEnv(t)

	// Токен с issuer портала не проходит как кастомный
	now := time.Now()
	claims := &domain.CustomClaims{
		UserID: "user-1",
		Email:  "john@corp.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    domain.IssuerPortal,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(env.key)
	require.NoError(t, err)

	w := env.get("/?token=" + token)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Nil(t, env.session.Current())
}

func TestDashboardAPI_RequiresSession(t *testing.T) {
	env := newDashEnv(t)

	w := env.get("/api/v1/dashboard/")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardAPI_ServesLatestView(t *testing.T) {
	env := newDashEnv(t)
	env.session.Establish(&domain.User{ID: "user-1", Email: "john@corp.com"})

	ctx := context.Background()
	_, err := env.store.Increment(ctx, infra.CollectionCounters, infra.CounterMonitoredUsers, domain.FieldCount, 4)
	require.NoError(t, err)
	require.NoError(t, env.store.Merge(ctx, infra.CollectionUserActivities, "john@corp.com", map[string]string{
		domain.FieldLoginCount: "3",
		domain.FieldEmail:      "john@corp.com",
	}))

	w := env.get("/api/v1/dashboard/")
	require.Equal(t, http.StatusOK, w.Code)

	var view domain.DashboardView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
	assert.Equal(t, int64(4), view.Overview.MonitoredUsers)
	assert.Equal(t, int64(3), view.Overview.ActivityEvents)
	assert.Equal(t, 100, view.Overview.SecurityScore)
	require.NotEmpty(t, view.Risk)
}

func TestOverviewEndpoint(t *testing.T) {
	env := newDashEnv(t)
	env.session.Establish(&domain.User{ID: "user-1", Email: "john@corp.com"})

	w := env.get("/api/v1/dashboard/overview")
	require.Equal(t, http.StatusOK, w.Code)

	var stats domain.OverviewStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 100, stats.SecurityScore)
}
