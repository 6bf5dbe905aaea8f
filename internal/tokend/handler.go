package tokend

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/sentinel-console/internal/audit"
	"github.com/xela07ax/sentinel-console/internal/domain"
	"github.com/xela07ax/sentinel-console/internal/infra/auth"
	"go.uber.org/zap"
)

type Handler struct {
	issuer  *Issuer
	trail   audit.Recorder
	logger  *zap.Logger
	metrics *Metrics
}

func NewHandler(issuer *Issuer, trail audit.Recorder, metrics *Metrics, logger *zap.Logger) *Handler {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Handler{
		issuer:  issuer,
		trail:   trail,
		logger:  logger.Named("tokend"),
		metrics: metrics,
	}
}

// GenerateToken — POST /generateToken.
// Вызывающий обязан предъявить действующий сессионный токен портала
// (auth middleware), а запрошенная идентичность должна совпадать с
// идентичностью из claims. Исходная система верила uid/email на слово —
// здесь эта дыра закрыта.
func (h *Handler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	var req domain.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	callerUID, callerEmail, ok := auth.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if req.UID != callerUID || req.Email != callerEmail {
		h.metrics.Rejected.Inc()
		h.logger.Warn("identity mismatch on token request",
			zap.String("caller_uid", callerUID),
			zap.String("requested_uid", req.UID))
		h.record(audit.ActionTokenRejected, callerEmail, "identity mismatch")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	token, err := h.issuer.Mint(req.UID, req.Email)
	if err != nil {
		h.metrics.Rejected.Inc()
		// Детали — только в лог, наружу уходит generic-сообщение
		h.logger.Error("token minting failed", zap.Error(err))
		h.record(audit.ActionTokenRejected, callerEmail, err.Error())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to create token"})
		return
	}

	h.metrics.Issued.Inc()
	h.record(audit.ActionTokenIssued, callerEmail, "")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(domain.TokenResponse{Token: token})
}

func (h *Handler) record(action, email, errMsg string) {
	status := "OK"
	if errMsg != "" {
		status = "ERROR"
	}
	h.trail.Record(audit.Event{
		ID:        uuid.New().String(),
		Email:     email,
		Action:    action,
		Status:    status,
		Error:     errMsg,
		Timestamp: time.Now(),
	})
}
