package domain

// Производные view-модели. Нигде не персистятся: пересчитываются
// агрегатором на каждое уведомление хранилища.

// OverviewStats — верхняя линейка карточек дашборда.
type OverviewStats struct {
	UsersVisited   int64 `json:"users_visited"`
	MonitoredUsers int64 `json:"monitored_users"`
	SecurityScore  int   `json:"security_score"` // всегда в [0,100]
	ActivityEvents int64 `json:"activity_events"`
	AnomalyCount   int   `json:"anomaly_count"`
}

// TimelinePoint — одна временная корзина графика аномалий.
type TimelinePoint struct {
	Time      string `json:"time"`
	Visits    int64  `json:"visits"`
	Monitored int64  `json:"monitored"`
	Anomalies int    `json:"anomalies"`
	RiskScore int    `json:"risk_score"`
}

// RiskBucket — сегмент распределения рисков.
type RiskBucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"` // процент
}

// Alert — карточка аномалии в панели алертов.
type Alert struct {
	ID          string   `json:"id"` // email пользователя
	Type        string   `json:"type"`
	Severity    string   `json:"severity"`
	User        string   `json:"user"`
	Description string   `json:"description"`
	Timestamp   string   `json:"timestamp"`
	Details     Document `json:"details"` // исходный документ целиком
}

// HighRiskUser — строка списка рискованных пользователей.
type HighRiskUser struct {
	Email string `json:"email"`
	Score int    `json:"score"`
	Trend string `json:"trend"`
}

// DashboardView — полный снапшот производных данных, единица выдачи биндера.
type DashboardView struct {
	Overview OverviewStats  `json:"overview"`
	Alerts   []Alert        `json:"alerts"`
	Timeline []TimelinePoint `json:"timeline"`
	Risk     []RiskBucket   `json:"risk_distribution"`
	TopUsers []HighRiskUser `json:"high_risk_users"`
}
