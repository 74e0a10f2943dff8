package cli

import (
	"fmt"

	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the schema migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(db.Up), string(db.Down)},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		dir := db.Direction(args[0])
		if err := a.db.Migrate(dir); err != nil {
			return fmt.Errorf("migrate %s: %w", dir, err)
		}
		a.log.Info("migrations applied", "direction", dir)
		return nil
	},
}
