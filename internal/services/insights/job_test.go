package insights

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MyelinBots/bloom-go/internal/announcer"
	"github.com/MyelinBots/bloom-go/internal/announcer/mocks"
	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/couple"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/insight"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/interaction"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/match_request"
	notificationRepo "github.com/MyelinBots/bloom-go/internal/db/repositories/notification"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/user"
	"github.com/MyelinBots/bloom-go/internal/db/testdb"
	"github.com/MyelinBots/bloom-go/internal/logger"
	interactionSvc "github.com/MyelinBots/bloom-go/internal/services/interaction"
	"github.com/MyelinBots/bloom-go/internal/services/ledger"
	"github.com/MyelinBots/bloom-go/internal/services/notification"
	"github.com/MyelinBots/bloom-go/internal/services/recovery"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// 2025-03-10 is a Monday.
var monday = time.Date(2025, 3, 10, 0, 5, 0, 0, time.UTC)

type fixture struct {
	db       *db.DB
	repos    Repositories
	recovery *recovery.Impl
	notifier *notification.Impl
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d := testdb.New(t)
	log := logger.NewNop()
	f := &fixture{db: d, clock: monday}
	clock := func() time.Time { return f.clock }

	f.repos = Repositories{
		Couples:       couple.NewCoupleRepository(d, log),
		Interactions:  interaction.NewInteractionRepository(d, log),
		Insights:      insight.NewInsightRepository(d, log),
		Notifications: notificationRepo.NewNotificationRepository(d, log),
		MatchRequests: match_request.NewMatchRequestRepository(d, log),
	}
	f.notifier = notification.New(f.repos.Notifications, log, notification.WithClock(clock))
	f.recovery = recovery.New(d,
		user.NewUserRepository(d, log),
		f.repos.Couples,
		ledger.New(f.repos.Couples, log, ledger.WithClock(clock)),
		f.notifier,
		log,
		recovery.WithClock(clock),
	)
	return f
}

func (f *fixture) job(opts Options) *Job {
	if opts.WeeklyWeekday == 0 {
		opts.WeeklyWeekday = time.Monday
	}
	return NewJob(f.repos, f.recovery, f.notifier, nil, opts, logger.NewNop())
}

func (f *fixture) couple(t *testing.T, score int, last time.Time) *couple.Couple {
	t.Helper()
	ctx := context.Background()
	a := testdb.SeedUser(t, ctx, f.db, "a")
	b := testdb.SeedUser(t, ctx, f.db, "b")
	return testdb.SeedCouple(t, ctx, f.db, a, b, score, &last)
}

func TestRun_ThreeFightsEnterModerateRecovery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	log := logger.NewNop()
	clock := func() time.Time { return f.clock }
	interactions := interactionSvc.New(f.db,
		user.NewUserRepository(f.db, log),
		f.repos.Couples,
		f.repos.Interactions,
		ledger.New(f.repos.Couples, log, ledger.WithClock(clock)),
		log,
		interactionSvc.WithClock(clock),
	)

	a := testdb.SeedUser(t, ctx, f.db, "alice")
	b := testdb.SeedUser(t, ctx, f.db, "bob")
	c := testdb.SeedCouple(t, ctx, f.db, a, b, 50, nil)

	f.clock = time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := interactions.SubmitMood(ctx, a.ID, interaction.MoodFight)
		require.NoError(t, err)
		f.clock = f.clock.Add(24 * time.Hour)
	}
	stored := testdb.ReloadCouple(t, ctx, f.db, c.ID)
	require.Equal(t, 35, stored.Score)
	require.False(t, stored.RecoveryMode)

	// Friday run, the morning after the third fight
	f.clock = time.Date(2025, 3, 7, 0, 5, 0, 0, time.UTC)
	sum, err := f.job(Options{}).RunAt(ctx, f.clock)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Processed)
	require.Equal(t, 1, sum.RecoveryEntries)
	require.False(t, sum.Weekly)

	stored = testdb.ReloadCouple(t, ctx, f.db, c.ID)
	require.True(t, stored.RecoveryMode)
	require.Equal(t, couple.RecoveryModerate, stored.RecoveryLevel)
}

func TestRunAt_WeeklyInsightIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.couple(t, 70, monday.Add(-2*time.Hour))
	for i := 1; i <= 5; i++ {
		testdb.SeedMood(t, ctx, f.db, c.UserLow, c.ID, interaction.MoodGood, monday.AddDate(0, 0, -i))
	}
	testdb.SeedAppreciation(t, ctx, f.db, c.UserHigh, c.ID, monday.AddDate(0, 0, -1))
	testdb.SeedMemory(t, ctx, f.db, c.UserHigh, c.ID, monday)
	// outside the trailing window
	testdb.SeedMood(t, ctx, f.db, c.UserHigh, c.ID, interaction.MoodFight, monday.AddDate(0, 0, -7))

	job := f.job(Options{})
	first, err := job.RunAt(ctx, monday)
	require.NoError(t, err)
	require.True(t, first.Weekly)
	require.Equal(t, 1, first.InsightsCreated)

	second, err := job.RunAt(ctx, monday.Add(3*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 0, second.InsightsCreated)
	require.Equal(t, 1, second.InsightsSkipped)

	rows := testdb.WeekInsights(t, ctx, f.db, c.ID, "2025-03-10")
	require.Len(t, rows, 1)
	w := rows[0]
	require.Equal(t, "2025-03-16", w.WeekEnd)
	require.Equal(t, 6, w.InteractionDays)
	require.Equal(t, 0, w.FightCount)
	require.Equal(t, 1.0, w.AverageMood)
	require.Equal(t, 1, w.AppreciationCount)
	require.Equal(t, 1, w.MemoryCount)
	require.Equal(t, insight.RiskLow, w.RiskLevel)
	require.False(t, w.ActionRequired)
}

func TestRunAt_HighRiskInsightAlertsBoth(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.couple(t, 60, monday.Add(-time.Hour))

	sum, err := f.job(Options{}).RunAt(ctx, monday)
	require.NoError(t, err)
	require.Equal(t, 1, sum.InsightsCreated)
	require.Equal(t, 2, sum.AlertsSent)

	rows := testdb.WeekInsights(t, ctx, f.db, c.ID, "2025-03-10")
	require.Len(t, rows, 1)
	w := rows[0]
	require.Equal(t, insight.RiskHigh, w.RiskLevel)
	require.True(t, w.ActionRequired)

	items, _, err := f.repos.Notifications.List(ctx, c.UserLow, 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, notificationRepo.TypeHighRisk, items[0].Type)
}

func TestRunAt_PagesThroughAllCouples(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.couple(t, 70, monday.Add(-time.Hour))
	}
	broken := f.couple(t, 70, monday.Add(-time.Hour))
	require.NoError(t, f.db.DB.Model(&couple.Couple{}).Where("id = ?", broken.ID).Update("status", couple.StatusBroken).Error)

	sum, err := f.job(Options{PageSize: 2}).RunAt(ctx, monday)
	require.NoError(t, err)
	require.Equal(t, 5, sum.Processed)
	require.Equal(t, 5, sum.InsightsCreated)
}

// flakyRecovery fails for one couple and delegates the rest.
type flakyRecovery struct {
	recovery.Service
	failFor uuid.UUID
}

func (r flakyRecovery) Evaluate(ctx context.Context, coupleID uuid.UUID, fights int, now time.Time) (recovery.Result, error) {
	if coupleID == r.failFor {
		return recovery.Result{}, errors.New("boom")
	}
	return r.Service.Evaluate(ctx, coupleID, fights, now)
}

func TestRunAt_CoupleFailureDoesNotAbortRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bad := f.couple(t, 10, monday.Add(-time.Hour))
	good := f.couple(t, 10, monday.Add(-time.Hour))

	job := NewJob(f.repos, flakyRecovery{Service: f.recovery, failFor: bad.ID}, f.notifier, nil,
		Options{WeeklyWeekday: time.Monday}, logger.NewNop())
	sum, err := job.RunAt(ctx, monday)
	require.NoError(t, err)
	require.Equal(t, 2, sum.Processed)
	require.Equal(t, 1, sum.Failed)
	require.Equal(t, 1, sum.RecoveryEntries)

	require.False(t, testdb.ReloadCouple(t, ctx, f.db, bad.ID).RecoveryMode)
	require.True(t, testdb.ReloadCouple(t, ctx, f.db, good.ID).RecoveryMode)
}

// blockingCouples holds the first page until released.
type blockingCouples struct {
	couple.CoupleRepository
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingCouples) ListActiveAfter(ctx context.Context, after uuid.UUID, limit int) ([]*couple.Couple, error) {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return b.CoupleRepository.ListActiveAfter(ctx, after, limit)
}

func TestRun_SingleFlight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.couple(t, 70, monday.Add(-time.Hour))

	blocker := &blockingCouples{
		CoupleRepository: f.repos.Couples,
		entered:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	repos := f.repos
	repos.Couples = blocker
	job := NewJob(repos, f.recovery, f.notifier, nil, Options{WeeklyWeekday: time.Monday}, logger.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := job.RunAt(ctx, monday)
		done <- err
	}()
	<-blocker.entered

	sum, err := job.RunAt(ctx, monday)
	require.ErrorIs(t, err, ErrAlreadyRunning)
	require.Zero(t, sum.Processed)

	close(blocker.release)
	require.NoError(t, <-done)

	// the guard is released once the first run finishes
	_, err = job.RunAt(ctx, monday)
	require.NoError(t, err)
}

func TestRunAt_RetentionSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.couple(t, 70, monday.Add(-time.Hour))

	old := monday.AddDate(0, 0, -200)
	testdb.SeedMood(t, ctx, f.db, c.UserLow, c.ID, interaction.MoodGood, old)
	testdb.SeedAppreciation(t, ctx, f.db, c.UserLow, c.ID, old)
	testdb.SeedMemory(t, ctx, f.db, c.UserLow, c.ID, old)
	require.NoError(t, f.db.DB.Create(&notificationRepo.Notification{
		UserID: c.UserLow, Type: notificationRepo.TypeHighRisk, Message: "old", Day: "2025-01-01",
	}).Error)
	require.NoError(t, f.db.DB.Create(&match_request.MatchRequest{
		FromUserID: uuid.New(), ToUserID: uuid.New(), Status: match_request.StatusPending,
		Day: "2025-03-08", ExpiresAt: monday.Add(-time.Hour),
	}).Error)

	sum, err := f.job(Options{}).RunAt(ctx, monday)
	require.NoError(t, err)
	require.EqualValues(t, 2, sum.PurgedLogs)
	require.EqualValues(t, 1, sum.PurgedNotifications)
	require.EqualValues(t, 1, sum.ExpiredRequests)

	var memories int64
	require.NoError(t, f.db.DB.Model(&interaction.Memory{}).Where("couple_id = ?", c.ID).Count(&memories).Error)
	require.EqualValues(t, 1, memories, "memories are never purged")
}

func TestRunAt_AnnouncesSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.couple(t, 70, monday.Add(-time.Hour))

	ctrl := gomock.NewController(t)
	client := mocks.NewMockIRCClient(ctrl)
	gomock.InOrder(
		client.EXPECT().Privmsg("#bloom-ops", "bloom batch 2025-03-10: processed=1 failed=0 entries=0 exits=0 alerts=2"),
		client.EXPECT().Privmsg("#bloom-ops", "week 2025-03-10: insights created=1 skipped=0"),
	)

	job := NewJob(f.repos, f.recovery, f.notifier, announcer.NewIRC(client, "#bloom-ops", logger.NewNop()),
		Options{WeeklyWeekday: time.Monday}, logger.NewNop())
	_, err := job.RunAt(ctx, monday)
	require.NoError(t, err)
}

func TestRunAt_AlertsUseReferenceDayOnWallClockNotifier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	log := logger.NewNop()
	// wired like production: no pinned clocks
	notifier := notification.New(f.repos.Notifications, log)
	recoverySvc := recovery.New(f.db,
		user.NewUserRepository(f.db, log),
		f.repos.Couples,
		ledger.New(f.repos.Couples, log),
		notifier,
		log,
	)
	c := f.couple(t, 60, monday.Add(-time.Hour))
	for i := 0; i < notification.DefaultDayCap; i++ {
		require.NoError(t, f.repos.Notifications.Create(ctx, &notificationRepo.Notification{
			UserID: c.UserLow, Type: notificationRepo.TypeMatchRequest, Message: "filler", Day: "2025-03-10",
		}))
	}

	job := NewJob(f.repos, recoverySvc, notifier, nil, Options{WeeklyWeekday: time.Monday}, log)
	sum, err := job.RunAt(ctx, monday)
	require.NoError(t, err)
	require.Equal(t, 1, sum.InsightsCreated)
	require.Equal(t, 1, sum.AlertsSent, "the capped partner gets nothing")

	for _, id := range c.Users() {
		items, _, err := f.repos.Notifications.List(ctx, id, 0, 10)
		require.NoError(t, err)
		for _, n := range items {
			require.Equal(t, "2025-03-10", n.Day)
		}
	}
	n, err := f.repos.Notifications.CountForDay(ctx, c.UserHigh, "2025-03-10")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
