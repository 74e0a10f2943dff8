package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/MyelinBots/bloom-go/config"
	"github.com/MyelinBots/bloom-go/internal/announcer"
	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/couple"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/insight"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/interaction"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/match_request"
	notificationRepo "github.com/MyelinBots/bloom-go/internal/db/repositories/notification"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/user"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/insights"
	interactionSvc "github.com/MyelinBots/bloom-go/internal/services/interaction"
	"github.com/MyelinBots/bloom-go/internal/services/ledger"
	"github.com/MyelinBots/bloom-go/internal/services/matching"
	"github.com/MyelinBots/bloom-go/internal/services/notification"
	"github.com/MyelinBots/bloom-go/internal/services/pairing"
	"github.com/MyelinBots/bloom-go/internal/services/recovery"
)

// app holds everything a command needs once config, logging and the
// database are up.
type app struct {
	cfg  config.Config
	log  *logger.Logger
	db   *db.DB
	repo insights.Repositories

	users         user.UserRepository
	notifications *notification.Impl
	pairing       *pairing.Impl
	interactions  *interactionSvc.Impl
	recovery      *recovery.Impl
	matching      *matching.Impl

	session *announcer.Session
}

func bootstrap() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.AppConfig.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("starting", "app", cfg.AppConfig.APPName, "version", cfg.AppConfig.Version, "env", cfg.AppConfig.Env)

	database, err := db.Open(cfg.DBConfig, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	if cfg.DBConfig.AutoMigrate {
		if err := database.Migrate(db.Up); err != nil {
			database.Close()
			log.Sync()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	a := &app{cfg: cfg, log: log, db: database}
	a.wire()
	return a, nil
}

func (a *app) wire() {
	d, log := a.db, a.log
	a.users = user.NewUserRepository(d, log)
	a.repo = insights.Repositories{
		Couples:       couple.NewCoupleRepository(d, log),
		Interactions:  interaction.NewInteractionRepository(d, log),
		Insights:      insight.NewInsightRepository(d, log),
		Notifications: notificationRepo.NewNotificationRepository(d, log),
		MatchRequests: match_request.NewMatchRequestRepository(d, log),
	}

	a.notifications = notification.New(a.repo.Notifications, log,
		notification.WithDayCap(a.cfg.JobConfig.NotificationDayCap))
	ledgerSvc := ledger.New(a.repo.Couples, log)
	a.pairing = pairing.New(d, a.users, a.repo.Couples, a.notifications, log)
	a.interactions = interactionSvc.New(d, a.users, a.repo.Couples, a.repo.Interactions, ledgerSvc, log)
	a.recovery = recovery.New(d, a.users, a.repo.Couples, ledgerSvc, a.notifications, log)
	a.matching = matching.New(d, a.users, a.repo.MatchRequests, a.pairing, a.notifications, log)
}

// dialAnnouncer connects to the ops channel when one is configured. A
// failed dial only costs the announcements. The session quits when ctx ends.
func (a *app) dialAnnouncer(ctx context.Context) announcer.Announcer {
	if !a.cfg.IRCConfig.Enabled() {
		return announcer.Nop{}
	}
	s, err := announcer.Dial(ctx, a.cfg.IRCConfig, a.log)
	if err != nil {
		a.log.Warn("ops announcer unavailable", "host", a.cfg.IRCConfig.Host, "error", err)
		return announcer.Nop{}
	}
	a.session = s
	return s
}

func (a *app) job(ann announcer.Announcer) *insights.Job {
	jc := a.cfg.JobConfig
	return insights.NewJob(a.repo, a.recovery, a.notifications, ann, insights.Options{
		PageSize:                  jc.PageSize,
		WeeklyWeekday:             time.Weekday(jc.WeeklyWeekday),
		LogRetentionDays:          jc.LogRetentionDays,
		NotificationRetentionDays: jc.NotificationRetentionDays,
	}, a.log)
}

func (a *app) Close() {
	if a.session != nil {
		a.session.Close()
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn("close database", "error", err)
	}
	a.log.Sync()
}
