package cli

import (
	"errors"
	"time"

	"github.com/MyelinBots/bloom-go/internal/api"
	"github.com/MyelinBots/bloom-go/internal/healthcheck"
	"github.com/MyelinBots/bloom-go/internal/services/insights"
	"github.com/MyelinBots/bloom-go/internal/services/timer"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the daily batch scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		job := a.job(a.dialAnnouncer(ctx))
		var next func() time.Time
		if a.cfg.JobConfig.Enabled {
			t := timer.NewRepeatedTimer(timer.DailyAt(a.cfg.JobConfig.RunHourUTC), func() {
				if _, err := job.Run(ctx); err != nil && !errors.Is(err, insights.ErrAlreadyRunning) {
					a.log.Error("scheduled batch run failed", "error", err)
				}
			})
			defer t.Stop()
			next = t.Next
			a.log.Info("batch scheduler armed", "next_run", t.Next())
		}
		if a.session != nil {
			registerOpsCommands(a.session.Commands(ctx), job, next)
		}

		if a.cfg.AppConfig.Env == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		log := a.log
		router := api.NewRouter(api.RouterConfig{
			AuthMiddleware:      api.NewAuthMiddleware(a.cfg.AppConfig.JWTSecret, log),
			Health:              healthcheck.Handler(a.db),
			CoupleHandler:       api.NewCoupleHandler(a.pairing, log),
			LoveHandler:         api.NewLoveHandler(a.interactions, log),
			RecoveryHandler:     api.NewRecoveryHandler(a.recovery, log),
			MatchHandler:        api.NewMatchHandler(a.matching, log),
			NotificationHandler: api.NewNotificationHandler(a.notifications, log),
		})
		return api.NewServer(a.cfg.AppConfig.Port, router, log).Run(ctx)
	},
}
