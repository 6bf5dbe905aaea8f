// Package dashboard — бэкенд консоли мониторинга: обмен кастомного
// токена на сессию при заходе и отдача живых агрегатов наблюдателя.
package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/sentinel-console/internal/audit"
	"github.com/xela07ax/sentinel-console/internal/binder"
	"github.com/xela07ax/sentinel-console/internal/identity"
	"go.uber.org/zap"
)

type Handler struct {
	provider identity.Provider
	session  *identity.Session
	binder   *binder.Binder
	trail    audit.Recorder
	logger   *zap.Logger
}

func NewHandler(
	provider identity.Provider,
	session *identity.Session,
	b *binder.Binder,
	trail audit.Recorder,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		provider: provider,
		session:  session,
		binder:   b,
		trail:    trail,
		logger:   logger.Named("dashboard"),
	}
}

// Root — GET /. Если в URL пришел ?token=, он обменивается на сессию
// РОВНО один раз: после обмена редиректим на тот же URL без токена,
// повторный заход по очищенному адресу обмена не вызывает. Токен не
// должен жить в адресной строке и истории браузера.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("token")
	if token == "" {
		h.status(w)
		return
	}

	user, err := h.provider.SignInWithCustomToken(r.Context(), token)
	if err != nil {
		// Невалидный токен не роняет страницу: просто остаемся анонимом
		h.logger.Warn("custom token exchange failed", zap.Error(err))
	} else {
		h.session.Establish(user)
		h.trail.Record(audit.Event{
			ID:        uuid.New().String(),
			Email:     user.Email,
			Action:    audit.ActionDashboardMount,
			Status:    "OK",
			Timestamp: time.Now(),
		})
	}

	q.Del("token")
	stripped := *r.URL
	stripped.RawQuery = q.Encode()

	http.Redirect(w, r, stripped.String(), http.StatusSeeOther)
}

func (h *Handler) status(w http.ResponseWriter) {
	user := h.session.Current()
	resp := map[string]interface{}{
		"service":       "sentinel-dashboard",
		"status":        "ok",
		"authenticated": user != nil,
	}
	if user != nil {
		resp["email"] = user.Email
	}
	writeJSON(w, http.StatusOK, resp)
}

// DashboardView — GET /api/v1/dashboard. Полный набор производных
// моделей из последнего пересчета наблюдателя.
func (h *Handler) DashboardView(w http.ResponseWriter, r *http.Request) {
	if h.session.Current() == nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, h.binder.Latest())
}

// Overview — GET /api/v1/dashboard/overview. Только сводные показатели.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	if h.session.Current() == nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, h.binder.Latest().Overview)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
