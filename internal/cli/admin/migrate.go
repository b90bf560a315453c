package admin

import (
	"github.com/cloo-solutions/chapterkit/internal/cli"
	"github.com/cloo-solutions/chapterkit/internal/config"
	"github.com/cloo-solutions/chapterkit/internal/database"
	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply run log migrations",
		Long:         "Apply pending run log migrations, or revert the latest ones with --down.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runMigrate,
	}

	cmd.Flags().String("dir", database.DefaultMigrationsDir, "Migrations directory")
	cmd.Flags().Int("down", 0, "Revert this many migrations instead of applying")

	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failed to load config")
	}
	if !cfg.HasDatabase() {
		return domain.ErrRunLogDisabled
	}

	flush, err := cli.Setup(cfg)
	if err != nil {
		return err
	}
	defer flush()

	dir, _ := cmd.Flags().GetString("dir")
	if steps, _ := cmd.Flags().GetInt("down"); steps > 0 {
		return database.MigrateDown(cfg.DatabaseURL, dir, steps)
	}
	return database.Migrate(cfg.DatabaseURL, dir)
}
