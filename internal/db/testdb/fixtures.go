package testdb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/MyelinBots/bloom-go/internal/daykey"
	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/couple"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/insight"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/interaction"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/user"
	"github.com/MyelinBots/bloom-go/internal/services/lovemeter"
	"github.com/google/uuid"
)

func SeedUser(tb testing.TB, ctx context.Context, d *db.DB, name string) *user.User {
	tb.Helper()
	u := &user.User{
		ID:    uuid.New(),
		Name:  name,
		Email: fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
	}
	if err := d.DB.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedLoveID gives u a pending pairing code.
func SeedLoveID(tb testing.TB, ctx context.Context, d *db.DB, u *user.User, code string) {
	tb.Helper()
	if err := d.DB.WithContext(ctx).Model(u).Update("love_id", code).Error; err != nil {
		tb.Fatalf("seed love id: %v", err)
	}
	u.LoveID = &code
}

// SeedCouple pairs a and b directly, bypassing the handshake, with the given
// score and last interaction time.
func SeedCouple(tb testing.TB, ctx context.Context, d *db.DB, a, b *user.User, score int, lastInteraction *time.Time) *couple.Couple {
	tb.Helper()
	c := couple.NewActive(a.ID, b.ID, time.Now().UTC().AddDate(0, -1, 0))
	c.Score = score
	c.Stage = lovemeter.StageOf(score)
	c.LastInteractionAt = lastInteraction
	if err := d.DB.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed couple: %v", err)
	}
	// gorm skips zero values that carry a column default.
	if score == 0 {
		if err := d.DB.WithContext(ctx).Model(c).Update("score", 0).Error; err != nil {
			tb.Fatalf("seed couple score: %v", err)
		}
	}
	for _, u := range []*user.User{a, b} {
		if err := d.DB.WithContext(ctx).Model(u).Update("couple_id", c.ID).Error; err != nil {
			tb.Fatalf("seed couple member: %v", err)
		}
		id := c.ID
		u.CoupleID = &id
	}
	return c
}

func SeedMood(tb testing.TB, ctx context.Context, d *db.DB, userID, coupleID uuid.UUID, mood interaction.Mood, at time.Time) {
	tb.Helper()
	m := &interaction.MoodLog{UserID: userID, CoupleID: coupleID, Mood: mood, Day: daykey.Of(at)}
	if err := d.DB.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed mood: %v", err)
	}
}

func SeedAppreciation(tb testing.TB, ctx context.Context, d *db.DB, userID, coupleID uuid.UUID, at time.Time) {
	tb.Helper()
	a := &interaction.AppreciationLog{UserID: userID, CoupleID: coupleID, Kind: interaction.AppreciationThankYou, Day: daykey.Of(at)}
	if err := d.DB.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed appreciation: %v", err)
	}
}

func SeedMemory(tb testing.TB, ctx context.Context, d *db.DB, userID, coupleID uuid.UUID, at time.Time) {
	tb.Helper()
	m := &interaction.Memory{
		CoupleID:   coupleID,
		UploadedBy: userID,
		ImageURL:   "https://cdn.example.com/m.jpg",
		MediaID:    uuid.NewString(),
		TakenAt:    at.UTC(),
		Day:        daykey.Of(at),
	}
	if err := d.DB.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed memory: %v", err)
	}
}

// ReloadCouple reads the stored couple row.
func ReloadCouple(tb testing.TB, ctx context.Context, d *db.DB, id uuid.UUID) *couple.Couple {
	tb.Helper()
	var c couple.Couple
	if err := d.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		tb.Fatalf("reload couple: %v", err)
	}
	return &c
}

func ReloadUser(tb testing.TB, ctx context.Context, d *db.DB, id uuid.UUID) *user.User {
	tb.Helper()
	var u user.User
	if err := d.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		tb.Fatalf("reload user: %v", err)
	}
	return &u
}

func WeekInsights(tb testing.TB, ctx context.Context, d *db.DB, coupleID uuid.UUID, weekStart string) []insight.WeeklyInsight {
	tb.Helper()
	var out []insight.WeeklyInsight
	if err := d.DB.WithContext(ctx).Where("couple_id = ? AND week_start = ?", coupleID, weekStart).Find(&out).Error; err != nil {
		tb.Fatalf("load insights: %v", err)
	}
	return out
}
