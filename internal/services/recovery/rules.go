package recovery

import (
	"time"

	"github.com/MyelinBots/bloom-go/internal/db/repositories/couple"
)

const (
	EntryScore     = 30
	CriticalScore  = 20
	ExitScore      = 50
	EntryFights    = 3
	CriticalFights = 5
	MaxRecoveryDay = 5

	DriftThreshold    = 48 * time.Hour
	ModerateDriftTime = 72 * time.Hour
)

type Transition string

const (
	TransitionNone    Transition = "none"
	TransitionEntered Transition = "entered"
	TransitionExited  Transition = "exited"
)

// Signals are the inputs of one evaluation.
type Signals struct {
	Score      int
	FightCount int
	Drift      time.Duration
}

// SignalsFor derives the evaluation inputs for c at now.
func SignalsFor(c *couple.Couple, fightCount int, now time.Time) Signals {
	return Signals{
		Score:      c.Score,
		FightCount: fightCount,
		Drift:      now.Sub(c.LastActivity()),
	}
}

// ShouldEnter is true on any distress signal.
func ShouldEnter(s Signals) bool {
	return s.Score < EntryScore || s.FightCount >= EntryFights || s.Drift > DriftThreshold
}

// LevelFor assigns the entry level in priority order. A fight count that
// triggers entry on its own is at least Moderate.
func LevelFor(s Signals) couple.RecoveryLevel {
	switch {
	case s.Score < CriticalScore || s.FightCount >= CriticalFights:
		return couple.RecoveryCritical
	case s.Score < EntryScore || s.FightCount >= EntryFights || s.Drift > ModerateDriftTime:
		return couple.RecoveryModerate
	default:
		return couple.RecoverySoft
	}
}

// DaysInRecovery counts whole 24h periods since entry.
func DaysInRecovery(c *couple.Couple, now time.Time) int {
	if c.RecoveryStartedAt == nil {
		return 0
	}
	d := now.Sub(*c.RecoveryStartedAt)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// ShouldExit is true once health recovered or the intervention ran its course.
func ShouldExit(c *couple.Couple, now time.Time) bool {
	return c.Score > ExitScore || DaysInRecovery(c, now) > MaxRecoveryDay
}

// Decide runs the state machine for c and mutates its recovery fields.
// Nothing is persisted.
func Decide(c *couple.Couple, fightCount int, now time.Time) Transition {
	if c.RecoveryMode {
		if ShouldExit(c, now) {
			exit(c)
			return TransitionExited
		}
		return TransitionNone
	}

	s := SignalsFor(c, fightCount, now)
	if !ShouldEnter(s) {
		return TransitionNone
	}
	started := now
	c.RecoveryMode = true
	c.RecoveryLevel = LevelFor(s)
	c.RecoveryStartedAt = &started
	return TransitionEntered
}

func exit(c *couple.Couple) {
	c.RecoveryMode = false
	c.RecoveryLevel = couple.RecoveryNone
	c.RecoveryStartedAt = nil
}
