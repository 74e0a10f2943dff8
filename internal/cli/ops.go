package cli

import (
	"context"
	"time"

	"github.com/MyelinBots/bloom-go/internal/announcer"
	"github.com/MyelinBots/bloom-go/internal/services/insights"
)

func registerOpsCommands(ctrl *announcer.CommandController, job *insights.Job, next func() time.Time) {
	ctrl.AddCommand("!lastrun", func(ctx context.Context, args []string) (string, error) {
		sum, ok := job.Last()
		if !ok {
			return "no batch run has completed yet", nil
		}
		return sum.String(), nil
	})
	ctrl.AddCommand("!nextrun", func(ctx context.Context, args []string) (string, error) {
		if next == nil {
			return "batch scheduler is disabled", nil
		}
		return "next batch run at " + next().Format(time.RFC3339), nil
	})
}
