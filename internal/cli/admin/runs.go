package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/cloo-solutions/chapterkit/internal/cli"
	"github.com/cloo-solutions/chapterkit/internal/config"
	"github.com/cloo-solutions/chapterkit/internal/database"
	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/cloo-solutions/chapterkit/internal/pagination"
	"github.com/cloo-solutions/chapterkit/internal/repository"
	"github.com/cloo-solutions/chapterkit/internal/service"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// RunLog is the read side of the run log used by the runs commands.
type RunLog interface {
	Get(ctx context.Context, id string) (*domain.Run, error)
	List(ctx context.Context, pass string, limit int, cursor string) (*pagination.PageResult[*domain.Run], error)
}

func RunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run log",
		Long:  "List and show recorded enrichment runs",
	}

	cmd.AddCommand(RunsListCmd())
	cmd.AddCommand(RunsShowCmd())

	return cmd
}

func RunsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List recorded runs, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunLog(cmd, func(ctx context.Context, log RunLog) error {
				return runRunsList(ctx, cmd, log)
			})
		},
	}

	cmd.Flags().String("pass", "", "Only runs of this pass")
	cmd.Flags().IntP("limit", "n", pagination.DefaultLimit, "Maximum number of runs")
	cmd.Flags().String("cursor", "", "Pagination cursor from a previous listing")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func RunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "show <id>",
		Short:        "Show one recorded run",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunLog(cmd, func(ctx context.Context, log RunLog) error {
				return runRunsShow(ctx, cmd, log, args[0])
			})
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func withRunLog(cmd *cobra.Command, fn func(ctx context.Context, log RunLog) error) error {
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

	ctx := cmd.Context()
	pool, err := database.NewPool(ctx, database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, service.NewRunService(nil, nil, repository.NewRunRepository(pool)))
}

func runRunsList(ctx context.Context, cmd *cobra.Command, log RunLog) error {
	pass, _ := cmd.Flags().GetString("pass")
	limit, _ := cmd.Flags().GetInt("limit")
	cursor, _ := cmd.Flags().GetString("cursor")
	output, _ := cmd.Flags().GetString("output")

	page, err := log.List(ctx, pass, limit, cursor)
	if err != nil {
		return err
	}

	if output == "json" {
		return writeJSON(cmd.OutOrStdout(), page)
	}
	writeRunTable(cmd.OutOrStdout(), page.Items)
	if page.HasMore {
		fmt.Fprintf(cmd.OutOrStdout(), "\nmore: --cursor %s\n", page.Cursor)
	}
	return nil
}

func runRunsShow(ctx context.Context, cmd *cobra.Command, log RunLog, id string) error {
	output, _ := cmd.Flags().GetString("output")

	run, err := log.Get(ctx, id)
	if err != nil {
		return err
	}

	if output == "json" {
		return writeJSON(cmd.OutOrStdout(), run)
	}
	writeRunDetail(cmd.OutOrStdout(), run)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "failed to encode output")
}

func writeRunTable(w io.Writer, runs []*domain.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPASS\tSTARTED\tTOTAL\tUPDATED\tERRORS\tDRY RUN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%t\n",
			r.ID, r.Pass, r.StartedAt.UTC().Format(time.RFC3339), r.Total, r.Updated, r.Errors, r.DryRun)
	}
	tw.Flush()
}

func writeRunDetail(w io.Writer, r *domain.Run) {
	fmt.Fprintf(w, "Run:       %s\n", r.ID)
	fmt.Fprintf(w, "Pass:      %s\n", r.Pass)
	fmt.Fprintf(w, "Corpus:    %s\n", r.Corpus)
	fmt.Fprintf(w, "Started:   %s\n", r.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Duration:  %s\n", r.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "Dry run:   %t\n", r.DryRun)
	fmt.Fprintf(w, "Chapters:  %d total, %d updated, %d unchanged, %d errors\n", r.Total, r.Updated, r.Unchanged, r.Errors)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  failed: %s: %s\n", f.Key, f.Error)
	}
}
