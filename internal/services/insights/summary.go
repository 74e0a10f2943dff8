package insights

import (
	"fmt"
	"time"
)

type Summary struct {
	RunAt     time.Time
	Weekly    bool
	WeekStart string
	Duration  time.Duration

	Processed       int
	Failed          int
	InsightsCreated int
	InsightsSkipped int
	RecoveryEntries int
	RecoveryExits   int
	AlertsSent      int

	PurgedLogs          int64
	PurgedInsights      int64
	PurgedNotifications int64
	ExpiredRequests     int64
}

// Fields flattens the summary into logger key/value pairs.
func (s Summary) Fields() []interface{} {
	return []interface{}{
		"ref", s.RunAt,
		"weekly", s.Weekly,
		"week_start", s.WeekStart,
		"duration", s.Duration,
		"processed", s.Processed,
		"failed", s.Failed,
		"insights_created", s.InsightsCreated,
		"insights_skipped", s.InsightsSkipped,
		"recovery_entries", s.RecoveryEntries,
		"recovery_exits", s.RecoveryExits,
		"alerts_sent", s.AlertsSent,
		"purged_logs", s.PurgedLogs,
		"purged_insights", s.PurgedInsights,
		"purged_notifications", s.PurgedNotifications,
		"expired_requests", s.ExpiredRequests,
	}
}

func (s Summary) String() string {
	out := fmt.Sprintf("bloom batch %s: processed=%d failed=%d entries=%d exits=%d alerts=%d",
		s.RunAt.Format("2006-01-02"), s.Processed, s.Failed, s.RecoveryEntries, s.RecoveryExits, s.AlertsSent)
	if s.Weekly {
		out += fmt.Sprintf("\nweek %s: insights created=%d skipped=%d", s.WeekStart, s.InsightsCreated, s.InsightsSkipped)
	}
	return out
}
