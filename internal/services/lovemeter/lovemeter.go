package lovemeter

import (
	"fmt"
	"strings"
)

const (
	MinScore     = 0
	MaxScore     = 100
	DefaultScore = 50
)

type Stage string

const (
	StageDry     Stage = "Dry"
	StageWeak    Stage = "Weak"
	StageGrowing Stage = "Growing"
	StageHealthy Stage = "Healthy"
	StageBloom   Stage = "Bloom"
)

// Stages in ascending order of health.
var Stages = []Stage{StageDry, StageWeak, StageGrowing, StageHealthy, StageBloom}

// ClampScore keeps a score inside [MinScore, MaxScore].
func ClampScore(score int) int {
	if score > MaxScore {
		return MaxScore
	}
	if score < MinScore {
		return MinScore
	}
	return score
}

// StageOf is the only place a stage is derived from; callers never set it.
func StageOf(score int) Stage {
	switch {
	case score <= 20:
		return StageDry
	case score <= 40:
		return StageWeak
	case score <= 60:
		return StageGrowing
	case score <= 80:
		return StageHealthy
	default:
		return StageBloom
	}
}

// Rank orders stages so callers can compare them.
func (s Stage) Rank() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// LoveMeter is a couple's score with its derived stage.
type LoveMeter struct {
	Score int
}

func New(score int) LoveMeter {
	return LoveMeter{Score: ClampScore(score)}
}

// Apply returns the meter after adding points, clamped.
func (lm LoveMeter) Apply(points int) LoveMeter {
	return LoveMeter{Score: ClampScore(lm.Score + points)}
}

func (lm LoveMeter) Get() int { return lm.Score }

func (lm LoveMeter) Stage() Stage { return StageOf(lm.Score) }

func (lm LoveMeter) GetLoveBar() string {
	return generateLoveBar(lm.Score)
}

// ten hearts for a full meter
func generateLoveBar(percent int) string {
	full := ClampScore(percent) / 10
	return fmt.Sprintf("[%s%s] %d%%", strings.Repeat("❤", full), strings.Repeat("·", 10-full), ClampScore(percent))
}
