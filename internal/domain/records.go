package domain

import (
	"strconv"
	"time"
)

// Document — сырой документ Remote Document Store: плоская мапа поле→строка.
// Redis-хэш по своей природе строковый, поэтому весь числовой разбор
// идет через коэрцию: битые и отсутствующие значения читаются как 0.
type Document map[string]string

// Int возвращает числовое поле документа. Отсутствие или мусор → 0,
// агрегатор никогда не падает на кривых данных.
func (d Document) Int(field string) int64 {
	raw, ok := d[field]
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Str возвращает строковое поле или дефолт.
func (d Document) Str(field, def string) string {
	if v, ok := d[field]; ok && v != "" {
		return v
	}
	return def
}

// Поля документа userActivities/<email>
const (
	FieldLoginCount        = "login_count"
	FieldFilesDownloaded   = "files_downloaded"
	FieldFailedLogin       = "failed_login"
	FieldLastLogin         = "lastLogin"
	FieldLastFailedAttempt = "lastFailedAttempt"
	FieldEmail             = "email"

	// Поля документа Anomalies/<email>
	FieldType        = "type"
	FieldSeverity    = "severity"
	FieldDescription = "description"
	FieldTime        = "time"

	// Единственное поле документов-счетчиков
	FieldCount = "count"
)

// UserActivityRecord — накопленная активность пользователя, ключ = email.
// Мутируется только merge-записями и атомарными инкрементами,
// полной перезаписи документа не бывает.
type UserActivityRecord struct {
	Email             string `json:"email"`
	LoginCount        int64  `json:"login_count"`
	FilesDownloaded   int64  `json:"files_downloaded"`
	FailedLogin       int64  `json:"failed_login"`
	LastLogin         string `json:"lastLogin,omitempty"`
	LastFailedAttempt string `json:"lastFailedAttempt,omitempty"`
}

// UserActivityFromDoc декодирует документ хранилища с коэрцией числовых полей.
func UserActivityFromDoc(email string, doc Document) UserActivityRecord {
	return UserActivityRecord{
		Email:             email,
		LoginCount:        doc.Int(FieldLoginCount),
		FilesDownloaded:   doc.Int(FieldFilesDownloaded),
		FailedLogin:       doc.Int(FieldFailedLogin),
		LastLogin:         doc.Str(FieldLastLogin, ""),
		LastFailedAttempt: doc.Str(FieldLastFailedAttempt, ""),
	}
}

// Типы и severity аномалий. Набор открытый: детектор может прислать
// новый тип, дашборд обязан его показать, а не отбросить.
const (
	AnomalyLoginAnomaly   = "login_anomaly"
	AnomalyDataExfil      = "data_exfiltration"
	AnomalyPrivEscalation = "privilege_escalation"
	AnomalyFileAccess     = "file_access"

	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"

	DefaultAnomalyDescription = "Anomalous activity detected"
)

// AnomalyRecord — документ коллекции Anomalies, ключ = email.
// Пишется внешним детектором, для дашборда read-only.
type AnomalyRecord struct {
	Email       string `json:"email"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Time        string `json:"time"` // метка временной корзины, например "09:00"
	LastLogin   string `json:"lastLogin,omitempty"`
}

// AnomalyFromDoc декодирует документ аномалии, подставляя дефолты исходной системы.
func AnomalyFromDoc(email string, doc Document) AnomalyRecord {
	return AnomalyRecord{
		Email:       email,
		Type:        doc.Str(FieldType, AnomalyLoginAnomaly),
		Severity:    doc.Str(FieldSeverity, SeverityHigh),
		Description: doc.Str(FieldDescription, DefaultAnomalyDescription),
		Time:        doc.Str(FieldTime, ""),
		LastLogin:   doc.Str(FieldLastLogin, time.Now().UTC().Format(time.RFC3339)),
	}
}

// CounterFromDoc читает значение документа-счетчика (count), nil-документ → 0.
func CounterFromDoc(doc Document) int64 {
	if doc == nil {
		return 0
	}
	return doc.Int(FieldCount)
}
