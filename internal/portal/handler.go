package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/sentinel-console/internal/domain"
	"github.com/xela07ax/sentinel-console/internal/identity"
	"github.com/xela07ax/sentinel-console/internal/tokend/client"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("portal-api"),
	}
}

// Index — GET /. Каждая загрузка страницы входа учитывается в userCount
// (fire-and-forget, страницу не блокируем).
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	go h.service.RegisterVisit(detachedContext(r))

	writeJSON(w, http.StatusOK, map[string]string{
		"service": "sentinel-portal",
		"status":  "ok",
	})
}

// Login — POST /login (JSON {email, password}).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	redirectURL, err := h.service.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, domain.LoginResponse{RedirectURL: redirectURL})

	case errors.Is(err, ErrEmailFormat) || errors.Is(err, ErrPasswordLength):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, identity.ErrInvalidCredentials):
		// Текст провайдера уходит пользователю как есть
		writeError(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, client.ErrTokenIssue):
		// Вход уже учтен, но перехода не будет
		writeError(w, http.StatusBadGateway, err.Error())

	default:
		h.logger.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// detachedContext отвязывает фоновую запись от жизни HTTP-запроса:
// ответ уже ушел, а инкремент дописывается.
func detachedContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
