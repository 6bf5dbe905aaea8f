package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xela07ax/sentinel-console/internal/domain"
)

func TestActivityEventTotal(t *testing.T) {
	require.EqualValues(t, 0, ActivityEventTotal(nil))
	require.EqualValues(t, 0, ActivityEventTotal([]domain.UserActivityRecord{}))

	records := []domain.UserActivityRecord{
		{Email: "a@corp.com", LoginCount: 3, FilesDownloaded: 2, FailedLogin: 1},
	}
	require.EqualValues(t, 6, ActivityEventTotal(records))

	records = append(records, domain.UserActivityRecord{Email: "b@corp.com", LoginCount: 10})
	require.EqualValues(t, 16, ActivityEventTotal(records))
}

func TestActivityEventTotalCoercesMissingFields(t *testing.T) {
	// login_count отсутствует, failed_login — мусор: оба читаются как 0
	doc := domain.Document{
		domain.FieldFilesDownloaded: "4",
		domain.FieldFailedLogin:     "not-a-number",
	}
	rec := domain.UserActivityFromDoc("x@corp.com", doc)
	require.EqualValues(t, 4, ActivityEventTotal([]domain.UserActivityRecord{rec}))
}

func TestSecurityScore(t *testing.T) {
	cases := []struct {
		name                 string
		anomalies, monitored int64
		want                 int
	}{
		{"zero monitored is fully secure", 5, 0, 100},
		{"zero anomalies", 0, 10, 100},
		{"half", 5, 10, 50},
		{"floor applies to whole expression", 1, 3, 66},
		{"more anomalies than monitored clamps to zero", 25, 10, 0},
		{"exact zero", 10, 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, SecurityScore(tc.anomalies, tc.monitored))
		})
	}
}

func TestSecurityScoreAlwaysInRange(t *testing.T) {
	for a := int64(0); a <= 50; a++ {
		for m := int64(0); m <= 20; m++ {
			got := SecurityScore(a, m)
			require.GreaterOrEqual(t, got, 0, "a=%d m=%d", a, m)
			require.LessOrEqual(t, got, 100, "a=%d m=%d", a, m)
		}
	}
}

func TestAnomalyTimelineEmptyInputYieldsSyntheticBucket(t *testing.T) {
	points := AnomalyTimeline(nil, 7, 3)
	require.Len(t, points, 1)
	require.Equal(t, "00:00", points[0].Time)
	require.Equal(t, 0, points[0].Anomalies)
	require.Equal(t, 0, points[0].RiskScore)
	require.EqualValues(t, 7, points[0].Visits)
	require.EqualValues(t, 3, points[0].Monitored)
}

func TestAnomalyTimelineGroupsByTimeBucket(t *testing.T) {
	anomalies := []domain.AnomalyRecord{
		{Email: "a@corp.com", Time: "09:00"},
		{Email: "b@corp.com", Time: "09:00"},
		{Email: "c@corp.com", Time: "10:00"},
	}
	points := AnomalyTimeline(anomalies, 10, 5)
	require.Len(t, points, 2)

	require.Equal(t, "09:00", points[0].Time)
	require.Equal(t, 2, points[0].Anomalies)
	require.Equal(t, 20, points[0].RiskScore)

	require.Equal(t, "10:00", points[1].Time)
	require.Equal(t, 1, points[1].Anomalies)
	require.Equal(t, 10, points[1].RiskScore)
}

func TestAnomalyTimelineOrderIsLexical(t *testing.T) {
	anomalies := []domain.AnomalyRecord{
		{Email: "a@corp.com", Time: "14:00"},
		{Email: "b@corp.com", Time: "08:30"},
		{Email: "c@corp.com", Time: "11:15"},
	}
	points := AnomalyTimeline(anomalies, 1, 1)
	require.Equal(t, "08:30", points[0].Time)
	require.Equal(t, "11:15", points[1].Time)
	require.Equal(t, "14:00", points[2].Time)
}

func TestAnomalyTimelineZeroVisitsDivisorIsOne(t *testing.T) {
	anomalies := []domain.AnomalyRecord{{Email: "a@corp.com", Time: "09:00"}}
	points := AnomalyTimeline(anomalies, 0, 2)
	// risk_score = floor(1 / max(0,1) * 100) = 100
	require.Equal(t, 100, points[0].RiskScore)
}

func TestRiskBucketDistributionIsFixed(t *testing.T) {
	buckets := RiskBucketDistribution()
	require.Len(t, buckets, 4)
	require.Equal(t, 65, buckets[0].Value)
	require.Equal(t, 22, buckets[1].Value)
	require.Equal(t, 10, buckets[2].Value)
	require.Equal(t, 3, buckets[3].Value)

	total := 0
	for _, b := range buckets {
		total += b.Value
	}
	require.Equal(t, 100, total)
}

func TestAlertsFromAnomaliesDefaults(t *testing.T) {
	docs := map[string]domain.Document{
		"bob@corp.com":   {},
		"alice@corp.com": {domain.FieldType: domain.AnomalyDataExfil, domain.FieldSeverity: domain.SeverityCritical},
	}
	alerts := AlertsFromAnomalies(docs)
	require.Len(t, alerts, 2)

	// Сортировка по email
	require.Equal(t, "alice@corp.com", alerts[0].User)
	require.Equal(t, domain.AnomalyDataExfil, alerts[0].Type)
	require.Equal(t, domain.SeverityCritical, alerts[0].Severity)

	require.Equal(t, "bob@corp.com", alerts[1].User)
	require.Equal(t, domain.AnomalyLoginAnomaly, alerts[1].Type)
	require.Equal(t, domain.SeverityHigh, alerts[1].Severity)
	require.Equal(t, domain.DefaultAnomalyDescription, alerts[1].Description)
}

func TestHighRiskUsersPlaceholderScore(t *testing.T) {
	docs := map[string]domain.Document{
		"zed@corp.com": {},
		"amy@corp.com": {},
	}
	users := HighRiskUsers(docs)
	require.Len(t, users, 2)
	require.Equal(t, "amy@corp.com", users[0].Email)
	require.Equal(t, 75, users[0].Score)
	require.Equal(t, "zed@corp.com", users[1].Email)
}

func TestBuildDashboardView(t *testing.T) {
	activities := map[string]domain.Document{
		"a@corp.com": {domain.FieldLoginCount: "3", domain.FieldFilesDownloaded: "2", domain.FieldFailedLogin: "1"},
	}
	anomalies := map[string]domain.Document{
		"a@corp.com": {domain.FieldTime: "09:00"},
	}

	view := BuildDashboardView(activities, anomalies, 10, 4)

	require.EqualValues(t, 10, view.Overview.UsersVisited)
	require.EqualValues(t, 4, view.Overview.MonitoredUsers)
	require.EqualValues(t, 6, view.Overview.ActivityEvents)
	require.Equal(t, 1, view.Overview.AnomalyCount)
	require.Equal(t, 75, view.Overview.SecurityScore)

	require.Len(t, view.Alerts, 1)
	require.Len(t, view.Timeline, 1)
	require.Equal(t, "09:00", view.Timeline[0].Time)
	require.Len(t, view.Risk, 4)
	require.Len(t, view.TopUsers, 1)
}
