package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MyelinBots/bloom-go/internal/apperrors"
	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/couple"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/lovemeter"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// mockCoupleRepo is an in-memory CoupleRepository with version checking.
type mockCoupleRepo struct {
	mu      sync.RWMutex
	couples map[uuid.UUID]*couple.Couple
}

func newMockRepo() *mockCoupleRepo {
	return &mockCoupleRepo{couples: make(map[uuid.UUID]*couple.Couple)}
}

func (m *mockCoupleRepo) Create(ctx context.Context, tx *gorm.DB, c *couple.Couple) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.couples[c.ID] = &cp
	return nil
}

func (m *mockCoupleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*couple.Couple, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.couples[id]
	if c == nil {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockCoupleRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*couple.Couple, error) {
	return m.GetByID(ctx, tx, id)
}

func (m *mockCoupleRepo) SaveState(ctx context.Context, tx *gorm.DB, c *couple.Couple) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.couples[c.ID]
	if stored == nil || stored.Version != c.Version {
		return db.ErrStaleWrite
	}
	c.Version++
	cp := *c
	m.couples[c.ID] = &cp
	return nil
}

func (m *mockCoupleRepo) ListActiveAfter(ctx context.Context, afterID uuid.UUID, limit int) ([]*couple.Couple, error) {
	return nil, nil
}

// fakeTx stands in for the caller's transaction; the mock never touches it.
var fakeTx = &gorm.DB{}

func ptr(t time.Time) *time.Time { return &t }

func seed(t *testing.T, repo *mockCoupleRepo, score, streak int, last *time.Time) *couple.Couple {
	t.Helper()
	c := couple.NewActive(uuid.New(), uuid.New(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c.Score = score
	c.Stage = lovemeter.StageOf(score)
	c.Streak = streak
	c.LastInteractionAt = last
	if err := repo.Create(context.Background(), nil, c); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return c
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		last   *time.Time
		streak int
		want   int
	}{
		{"first ever interaction", nil, 0, 1},
		{"earlier today keeps streak", ptr(now.Add(-8 * time.Hour)), 4, 4},
		{"same day with zero streak repairs to one", ptr(now.Add(-time.Hour)), 0, 1},
		{"yesterday increments", ptr(now.AddDate(0, 0, -1)), 4, 5},
		{"yesterday just before midnight", ptr(time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC)), 2, 3},
		{"two days ago resets", ptr(now.AddDate(0, 0, -2)), 9, 1},
		{"gap of a month resets", ptr(now.AddDate(0, -1, 0)), 30, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextStreak(tt.last, tt.streak, now); got != tt.want {
				t.Errorf("NextStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestApplyDelta_ScoreStageAndClamp(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		score     int
		points    int
		wantScore int
		wantStage lovemeter.Stage
	}{
		{"fight from default", 50, -5, 45, lovemeter.StageGrowing},
		{"crosses into weak", 45, -5, 40, lovemeter.StageWeak},
		{"clamps at zero", 3, -5, 0, lovemeter.StageDry},
		{"clamps at hundred", 99, 3, 100, lovemeter.StageBloom},
		{"neutral mood still counts", 61, 0, 61, lovemeter.StageHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			svc := New(repo, logger.NewNop(), WithClock(func() time.Time { return now }))
			c := seed(t, repo, tt.score, 0, nil)

			got, err := svc.ApplyDelta(context.Background(), fakeTx, c.ID, tt.points)
			if err != nil {
				t.Fatalf("ApplyDelta() error = %v", err)
			}
			if got.Score != tt.wantScore || got.Stage != tt.wantStage {
				t.Errorf("got score=%d stage=%s, want %d %s", got.Score, got.Stage, tt.wantScore, tt.wantStage)
			}
			if got.LastInteractionAt == nil || !got.LastInteractionAt.Equal(now) {
				t.Errorf("LastInteractionAt = %v, want %v", got.LastInteractionAt, now)
			}
		})
	}
}

func TestApplyDelta_TwiceSameDayKeepsStreak(t *testing.T) {
	repo := newMockRepo()
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := New(repo, logger.NewNop(), WithClock(func() time.Time { return now }))
	c := seed(t, repo, 50, 3, ptr(now.AddDate(0, 0, -1)))

	first, err := svc.ApplyDelta(context.Background(), fakeTx, c.ID, 2)
	if err != nil {
		t.Fatalf("first ApplyDelta: %v", err)
	}
	if first.Streak != 4 {
		t.Fatalf("streak after first call = %d, want 4", first.Streak)
	}

	now = now.Add(6 * time.Hour)
	second, err := svc.ApplyDelta(context.Background(), fakeTx, c.ID, -2)
	if err != nil {
		t.Fatalf("second ApplyDelta: %v", err)
	}
	if second.Streak != 4 {
		t.Errorf("streak after second call = %d, want 4", second.Streak)
	}
	if second.Score != 50 {
		t.Errorf("score = %d, want 50", second.Score)
	}
	if !second.LastInteractionAt.Equal(now) {
		t.Errorf("LastInteractionAt not refreshed: %v", second.LastInteractionAt)
	}
}

func TestApplyDelta_ConsecutiveDaysAndGap(t *testing.T) {
	repo := newMockRepo()
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	svc := New(repo, logger.NewNop(), WithClock(func() time.Time { return now }))
	c := seed(t, repo, 50, 0, nil)

	steps := []struct {
		advance time.Duration
		want    int
	}{
		{0, 1},
		{24 * time.Hour, 2},
		{5 * time.Hour, 3}, // crosses UTC midnight
		{48 * time.Hour, 1},
	}
	for i, s := range steps {
		now = now.Add(s.advance)
		got, err := svc.ApplyDelta(context.Background(), fakeTx, c.ID, 1)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got.Streak != s.want {
			t.Errorf("step %d: streak = %d, want %d", i, got.Streak, s.want)
		}
	}
}

func TestApplyDelta_Errors(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, logger.NewNop())

	if _, err := svc.ApplyDelta(context.Background(), nil, uuid.New(), 1); !errors.Is(err, apperrors.ErrNoTx) {
		t.Errorf("nil tx: err = %v, want ErrNoTx", err)
	}
	if _, err := svc.ApplyDelta(context.Background(), fakeTx, uuid.New(), 1); !errors.Is(err, apperrors.ErrCoupleNotFound) {
		t.Errorf("missing couple: err = %v, want ErrCoupleNotFound", err)
	}

	c := seed(t, repo, 50, 0, nil)
	repo.mu.Lock()
	repo.couples[c.ID].Status = couple.StatusBroken
	repo.mu.Unlock()
	if _, err := svc.ApplyDelta(context.Background(), fakeTx, c.ID, 1); !errors.Is(err, apperrors.ErrCoupleInactive) {
		t.Errorf("broken couple: err = %v, want ErrCoupleInactive", err)
	}
}
