package audit

import "time"

// Действия, попадающие в журнал аудита
const (
	ActionLoginSuccess   = "LOGIN_SUCCESS"
	ActionLoginFailed    = "LOGIN_FAILED"
	ActionTokenIssued    = "TOKEN_ISSUED"
	ActionTokenRejected  = "TOKEN_REJECTED"
	ActionDashboardMount = "DASHBOARD_MOUNT"
)

type Event struct {
	ID      string                 `json:"id"`       // UUID события
	TraceID string                 `json:"trace_id"` // Сквозной ID запроса
	Email   string                 `json:"email"`    // Чья активность
	Action  string                 `json:"action"`   // Что произошло
	Detail  map[string]interface{} `json:"detail"`   // Контекст события

	Status    string    `json:"status"` // "OK" или "ERROR"
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}
