package insights

import (
	"math"

	"github.com/MyelinBots/bloom-go/internal/db/repositories/insight"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/interaction"
)

const (
	highRiskScore       = 30
	mediumRiskScore     = 50
	highRiskFights      = 3
	highRiskActiveDays  = 2
	mediumRiskActiveDay = 4
)

type Metrics struct {
	AverageMood       float64
	InteractionDays   int
	AppreciationCount int
	MemoryCount       int
	FightCount        int
	RiskLevel         insight.RiskLevel
	ActionRequired    bool
}

// AverageMood is the mean mood point value, rounded to one decimal, or 0
// without moods.
func AverageMood(moods []interaction.MoodLog) float64 {
	if len(moods) == 0 {
		return 0
	}
	total := 0
	for _, m := range moods {
		p, _ := m.Mood.Points()
		total += p
	}
	return math.Round(float64(total)/float64(len(moods))*10) / 10
}

// InteractionDays counts distinct day keys across all three logs.
func InteractionDays(f interaction.Facts) int {
	days := make(map[string]struct{})
	for _, m := range f.Moods {
		days[m.Day] = struct{}{}
	}
	for _, a := range f.Appreciations {
		days[a.Day] = struct{}{}
	}
	for _, m := range f.Memories {
		days[m.Day] = struct{}{}
	}
	return len(days)
}

func RiskLevelFor(score, fights, interactionDays int) insight.RiskLevel {
	switch {
	case score < highRiskScore || fights >= highRiskFights || interactionDays <= highRiskActiveDays:
		return insight.RiskHigh
	case score <= mediumRiskScore || interactionDays <= mediumRiskActiveDay:
		return insight.RiskMedium
	default:
		return insight.RiskLow
	}
}

func Compute(f interaction.Facts, score int) Metrics {
	days := InteractionDays(f)
	risk := RiskLevelFor(score, f.FightCount, days)
	return Metrics{
		AverageMood:       AverageMood(f.Moods),
		InteractionDays:   days,
		AppreciationCount: len(f.Appreciations),
		MemoryCount:       len(f.Memories),
		FightCount:        f.FightCount,
		RiskLevel:         risk,
		ActionRequired:    risk == insight.RiskHigh,
	}
}
