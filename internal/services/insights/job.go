package insights

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MyelinBots/bloom-go/internal/announcer"
	"github.com/MyelinBots/bloom-go/internal/daykey"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/couple"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/insight"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/interaction"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/match_request"
	notificationRepo "github.com/MyelinBots/bloom-go/internal/db/repositories/notification"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/notification"
	"github.com/MyelinBots/bloom-go/internal/services/recovery"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const windowDays = 7

// ErrAlreadyRunning is returned when a run is requested while another one is
// still executing. Nothing was done.
var ErrAlreadyRunning = errors.New("batch run already in progress")

type Options struct {
	PageSize                  int
	WeeklyWeekday             time.Weekday
	LogRetentionDays          int
	NotificationRetentionDays int
}

func DefaultOptions() Options {
	return Options{
		PageSize:                  200,
		WeeklyWeekday:             time.Monday,
		LogRetentionDays:          180,
		NotificationRetentionDays: 30,
	}
}

type Repositories struct {
	Couples       couple.CoupleRepository
	Interactions  interaction.InteractionRepository
	Insights      insight.InsightRepository
	Notifications notificationRepo.NotificationRepository
	MatchRequests match_request.MatchRequestRepository
}

// Job is the daily reconciliation sweep. It is safe to call Run from a timer
// and from the CLI in the same process; overlapping calls are refused.
type Job struct {
	repos     Repositories
	recovery  recovery.Service
	notifier  notification.Notifier
	announcer announcer.Announcer
	opts      Options
	guard     *semaphore.Weighted
	now       func() time.Time

	mu   sync.Mutex
	last *Summary

	log *logger.Logger
}

func NewJob(
	repos Repositories,
	recoverySvc recovery.Service,
	notifier notification.Notifier,
	ann announcer.Announcer,
	opts Options,
	baseLog *logger.Logger,
) *Job {
	def := DefaultOptions()
	if opts.PageSize <= 0 {
		opts.PageSize = def.PageSize
	}
	if opts.LogRetentionDays <= 0 {
		opts.LogRetentionDays = def.LogRetentionDays
	}
	if opts.NotificationRetentionDays <= 0 {
		opts.NotificationRetentionDays = def.NotificationRetentionDays
	}
	if ann == nil {
		ann = announcer.Nop{}
	}
	return &Job{
		repos:     repos,
		recovery:  recoverySvc,
		notifier:  notifier,
		announcer: ann,
		opts:      opts,
		guard:     semaphore.NewWeighted(1),
		now:       func() time.Time { return time.Now().UTC() },
		log:       baseLog.With("job", "BatchReconciliation"),
	}
}

// Run executes one sweep with the current time as its reference.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	return j.RunAt(ctx, j.now())
}

// RunAt executes one sweep using ref for every date computation.
func (j *Job) RunAt(ctx context.Context, ref time.Time) (Summary, error) {
	if !j.guard.TryAcquire(1) {
		j.log.Warn("batch run skipped, previous run still executing")
		return Summary{}, ErrAlreadyRunning
	}
	defer j.guard.Release(1)

	ref = ref.UTC()
	weekStart := daykey.Of(daykey.WeekStart(ref))
	from, to := daykey.Window(ref, windowDays)
	sum := Summary{
		RunAt:     ref,
		Weekly:    ref.Weekday() == j.opts.WeeklyWeekday,
		WeekStart: weekStart,
	}
	started := time.Now()
	j.log.Info("batch run started", "ref", ref, "weekly", sum.Weekly, "window_from", from, "window_to", to)

	err := j.eachActiveCouple(ctx, func(c *couple.Couple) {
		sum.Processed++
		if err := j.processCouple(ctx, c, ref, from, to, weekStart, sum.Weekly, &sum); err != nil {
			sum.Failed++
			j.log.Error("couple reconciliation failed", "couple_id", c.ID, "error", err)
		}
	})
	if err != nil {
		j.log.Error("batch run aborted", "error", err, "processed", sum.Processed)
		return sum, err
	}

	j.sweepRetention(ctx, ref, &sum)
	sum.Duration = time.Since(started)

	j.mu.Lock()
	j.last = &sum
	j.mu.Unlock()

	j.log.Info("batch run finished", sum.Fields()...)
	j.announcer.Announce(ctx, sum.String())
	return sum, nil
}

// Last returns the summary of the most recent completed run.
func (j *Job) Last() (Summary, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last == nil {
		return Summary{}, false
	}
	return *j.last, true
}

// eachActiveCouple pages through active couples by id so no cursor stays
// open while a couple is processed.
func (j *Job) eachActiveCouple(ctx context.Context, fn func(c *couple.Couple)) error {
	after := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := j.repos.Couples.ListActiveAfter(ctx, after, j.opts.PageSize)
		if err != nil {
			return fmt.Errorf("list active couples: %w", err)
		}
		for _, c := range page {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(c)
		}
		if len(page) < j.opts.PageSize {
			return nil
		}
		after = page[len(page)-1].ID
	}
}

func (j *Job) processCouple(ctx context.Context, c *couple.Couple, ref time.Time, from, to, weekStart string, weekly bool, sum *Summary) error {
	facts, err := j.repos.Interactions.Facts(ctx, c.ID, from, to)
	if err != nil {
		return fmt.Errorf("gather facts: %w", err)
	}

	res, err := j.recovery.Evaluate(ctx, c.ID, facts.FightCount, ref)
	if err != nil {
		return fmt.Errorf("evaluate recovery: %w", err)
	}
	switch res.Transition {
	case recovery.TransitionEntered:
		sum.RecoveryEntries++
	case recovery.TransitionExited:
		sum.RecoveryExits++
	}
	sum.AlertsSent += res.AlertsSent

	if !weekly {
		return nil
	}
	return j.writeInsight(ctx, c.ID, facts, ref, weekStart, sum)
}

func (j *Job) writeInsight(ctx context.Context, coupleID uuid.UUID, facts interaction.Facts, ref time.Time, weekStart string, sum *Summary) error {
	c, err := j.repos.Couples.GetByID(ctx, nil, coupleID)
	if err != nil {
		return fmt.Errorf("reload couple: %w", err)
	}
	if c == nil {
		return fmt.Errorf("couple %s vanished", coupleID)
	}

	m := Compute(facts, c.Score)
	scoreChange := 0
	prev, err := j.repos.Insights.Latest(ctx, coupleID, weekStart)
	if err != nil {
		return fmt.Errorf("previous insight: %w", err)
	}
	if prev != nil {
		scoreChange = c.Score - prev.Score
	}

	w := &insight.WeeklyInsight{
		CoupleID:          coupleID,
		WeekStart:         weekStart,
		WeekEnd:           daykey.AddDays(weekStart, 6),
		AverageMood:       m.AverageMood,
		InteractionDays:   m.InteractionDays,
		AppreciationCount: m.AppreciationCount,
		MemoryCount:       m.MemoryCount,
		FightCount:        m.FightCount,
		Score:             c.Score,
		ScoreChange:       scoreChange,
		RiskLevel:         m.RiskLevel,
		ActionRequired:    m.ActionRequired,
	}
	created, err := j.repos.Insights.InsertOnce(ctx, nil, w)
	if err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	if !created {
		sum.InsightsSkipped++
		return nil
	}
	sum.InsightsCreated++

	if m.ActionRequired && j.notifier != nil {
		msg := "Your weekly check-in flagged your relationship as high risk. Take a moment together today."
		for _, id := range c.Users() {
			ok, err := j.notifier.NotifyAt(ctx, ref, id, notificationRepo.TypeHighRisk, msg, &w.ID)
			if err != nil {
				j.log.Warn("high risk alert failed", "couple_id", coupleID, "user_id", id, "error", err)
				continue
			}
			if ok {
				sum.AlertsSent++
			}
		}
	}
	return nil
}

// sweepRetention deletes expired logs after the couple loop. Memories are
// kept forever. Failures are logged; they never fail the run.
func (j *Job) sweepRetention(ctx context.Context, ref time.Time, sum *Summary) {
	today := daykey.Of(ref)
	logCutoff := daykey.AddDays(today, -j.opts.LogRetentionDays)
	notifCutoff := daykey.AddDays(today, -j.opts.NotificationRetentionDays)

	var err error
	if sum.PurgedLogs, err = j.repos.Interactions.PurgeLogsBefore(ctx, logCutoff); err != nil {
		j.log.Warn("purge logs failed", "error", err)
	}
	if sum.PurgedInsights, err = j.repos.Insights.PurgeBefore(ctx, logCutoff); err != nil {
		j.log.Warn("purge insights failed", "error", err)
	}
	if sum.PurgedNotifications, err = j.repos.Notifications.PurgeBefore(ctx, notifCutoff); err != nil {
		j.log.Warn("purge notifications failed", "error", err)
	}
	if sum.ExpiredRequests, err = j.repos.MatchRequests.ExpireBefore(ctx, ref); err != nil {
		j.log.Warn("expire match requests failed", "error", err)
	}
}
