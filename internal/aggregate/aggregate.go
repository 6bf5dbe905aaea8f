package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/xela07ax/sentinel-console/internal/domain"
)

// Пакет aggregate — чистые функции свертки сырых документов хранилища
// в отображаемые метрики. Никакого I/O и состояния: одинаковый вход
// всегда дает одинаковый выход, что делает слой тривиально тестируемым.

// ActivityEventTotal суммирует значимые события по всем записям активности:
// login_count + files_downloaded + failed_login. Пустой вход → 0.
func ActivityEventTotal(records []domain.UserActivityRecord) int64 {
	var total int64
	for _, r := range records {
		total += r.LoginCount + r.FilesDownloaded + r.FailedLogin
	}
	return total
}

// SecurityScore вычисляет интегральный показатель защищенности.
// monitored == 0 → 100: когда никто не мониторится, система считается
// полностью «безопасной» — это осознанная политика, а не баг.
// Результат всегда зажат в [0,100].
func SecurityScore(anomalies, monitored int64) int {
	if monitored <= 0 {
		return 100
	}
	score := int(math.Floor(100 - float64(anomalies)/float64(monitored)*100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// AnomalyTimeline группирует аномалии по метке временной корзины.
// Порядок корзин — лексикографический по метке: это детерминированный
// выбор, зафиксированный тестами (метки формата HH:MM при этом
// сортируются и хронологически).
// Пустой вход дает ровно одну синтетическую корзину "00:00" с нулем
// аномалий — потребитель всегда получает хотя бы одну точку графика.
func AnomalyTimeline(anomalies []domain.AnomalyRecord, visits, monitored int64) []domain.TimelinePoint {
	buckets := make(map[string]int)
	for _, a := range anomalies {
		label := a.Time
		if label == "" {
			label = "unknown"
		}
		buckets[label]++
	}

	if len(buckets) == 0 {
		return []domain.TimelinePoint{{
			Time:      "00:00",
			Visits:    visits,
			Monitored: monitored,
			Anomalies: 0,
			RiskScore: 0,
		}}
	}

	labels := make([]string, 0, len(buckets))
	for label := range buckets {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	points := make([]domain.TimelinePoint, 0, len(labels))
	for _, label := range labels {
		count := buckets[label]
		points = append(points, domain.TimelinePoint{
			Time:      label,
			Visits:    visits,
			Monitored: monitored,
			Anomalies: count,
			RiskScore: bucketRiskScore(count, visits),
		})
	}
	return points
}

// bucketRiskScore — floor(count / max(visits,1) * 100)
func bucketRiskScore(count int, visits int64) int {
	if visits < 1 {
		visits = 1
	}
	return int(int64(count) * 100 / visits)
}

// RiskBucketDistribution возвращает фиксированное распределение 65/22/10/3.
// Проценты статичные и НЕ выводятся из severity живых аномалий — поведение
// исходной системы сохранено как есть.
func RiskBucketDistribution() []domain.RiskBucket {
	return []domain.RiskBucket{
		{Name: "Low Risk", Value: 65},
		{Name: "Medium Risk", Value: 22},
		{Name: "High Risk", Value: 10},
		{Name: "Critical Risk", Value: 3},
	}
}

// AlertsFromAnomalies превращает документы аномалий в карточки алертов,
// подставляя дефолты для незаполненных полей. Порядок — по email.
func AlertsFromAnomalies(docs map[string]domain.Document) []domain.Alert {
	emails := sortedKeys(docs)

	alerts := make([]domain.Alert, 0, len(emails))
	now := time.Now().UTC().Format(time.RFC3339)
	for _, email := range emails {
		doc := docs[email]
		alerts = append(alerts, domain.Alert{
			ID:          email,
			Type:        doc.Str(domain.FieldType, domain.AnomalyLoginAnomaly),
			Severity:    doc.Str(domain.FieldSeverity, domain.SeverityHigh),
			User:        email,
			Description: doc.Str(domain.FieldDescription, domain.DefaultAnomalyDescription),
			Timestamp:   doc.Str(domain.FieldLastLogin, now),
			Details:     doc,
		})
	}
	return alerts
}

// HighRiskUsers — список пользователей с аномалиями, отсортированный по email.
// Балл 75 и тренд "up" — плейсхолдеры исходной системы, сохранены намеренно.
func HighRiskUsers(docs map[string]domain.Document) []domain.HighRiskUser {
	emails := sortedKeys(docs)

	users := make([]domain.HighRiskUser, 0, len(emails))
	for _, email := range emails {
		users = append(users, domain.HighRiskUser{Email: email, Score: 75, Trend: "up"})
	}
	return users
}

// BuildDashboardView собирает полный снапшот производных данных из сырых
// документов четырех независимых подписок. Подписки eventually consistent
// между собой, поэтому снапшот может быть переходно рассогласован — это
// допустимо по модели консистентности.
func BuildDashboardView(
	activities map[string]domain.Document,
	anomalies map[string]domain.Document,
	userCount, monitored int64,
) domain.DashboardView {
	records := make([]domain.UserActivityRecord, 0, len(activities))
	for email, doc := range activities {
		records = append(records, domain.UserActivityFromDoc(email, doc))
	}

	anomalyRecords := make([]domain.AnomalyRecord, 0, len(anomalies))
	for email, doc := range anomalies {
		anomalyRecords = append(anomalyRecords, domain.AnomalyFromDoc(email, doc))
	}

	return domain.DashboardView{
		Overview: domain.OverviewStats{
			UsersVisited:   userCount,
			MonitoredUsers: monitored,
			SecurityScore:  SecurityScore(int64(len(anomalies)), monitored),
			ActivityEvents: ActivityEventTotal(records),
			AnomalyCount:   len(anomalies),
		},
		Alerts:   AlertsFromAnomalies(anomalies),
		Timeline: AnomalyTimeline(anomalyRecords, userCount, monitored),
		Risk:     RiskBucketDistribution(),
		TopUsers: HighRiskUsers(anomalies),
	}
}

func sortedKeys(docs map[string]domain.Document) []string {
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
