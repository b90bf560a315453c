// Package enrich implements the batch commands of the chapterkit CLI.
package enrich

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloo-solutions/chapterkit/internal/cli"
	"github.com/cloo-solutions/chapterkit/internal/config"
	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/cloo-solutions/chapterkit/internal/jobs"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

type passOptions struct {
	corpus cli.CorpusFlags
	dryRun bool
	output string
}

func (o *passOptions) bind(cmd *cobra.Command) {
	o.corpus.Bind(cmd)
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "Report what would change without writing")
	cmd.Flags().StringVarP(&o.output, "output", "o", OutputText, "Output format (text or json)")
}

// EnrichCmd returns the enrich command group.
func EnrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Write derived study material into chapter documents",
		Long:  "Runs an enrichment pass over every chapter document of the corpus.",
	}

	cmd.AddCommand(passCmd(domain.PassLongAnswers,
		"Backfill textbookExercise.longAnswers",
		"Derives long-answer prompts from the exercise (or the chapter test), selects\n"+
			"supporting context and writes one templated long answer per prompt."))
	cmd.AddCommand(passCmd(domain.PassQACards,
		"Backfill textbookExercise.qaCards",
		"Builds memorization cards from the chapter test explanations for chapters\n"+
			"that have none yet."))

	return cmd
}

// AuditCmd returns the audit command.
func AuditCmd() *cobra.Command {
	cmd := passCmd(domain.PassAudit,
		"Rank chapters by long-answer quality risk",
		"Scores stored long answers for missing key points and thin model answers.\n"+
			"Never modifies the corpus.")
	cmd.Use = "audit"
	return cmd
}

func passCmd(pass, short, long string) *cobra.Command {
	opts := &passOptions{}
	cmd := &cobra.Command{
		Use:          pass,
		Short:        short,
		Long:         long,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, pass, opts)
		},
	}
	opts.bind(cmd)
	if pass == domain.PassAudit {
		_ = cmd.Flags().MarkHidden("dry-run")
	}
	return cmd
}

func runPass(cmd *cobra.Command, pass string, opts *passOptions) error {
	if opts.output != OutputText && opts.output != OutputJSON {
		return eris.Errorf("unknown output format %q", opts.output)
	}

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failed to load config")
	}
	if err := opts.corpus.Apply(cfg); err != nil {
		return err
	}

	flush, err := cli.Setup(cfg)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Runs.Execute(ctx, pass, jobs.RunOptions{DryRun: opts.dryRun})
	if result == nil {
		return err
	}

	if renderErr := Render(cmd.OutOrStdout(), opts.output, result); renderErr != nil {
		return renderErr
	}
	if err != nil {
		return err
	}
	return failedChapters(cmd.ErrOrStderr(), result.Report)
}

// failedChapters lists per-chapter failures and turns them into a non-zero exit.
func failedChapters(w io.Writer, report *jobs.Report) error {
	if report.Errors == 0 {
		return nil
	}
	for _, f := range report.Failures {
		fmt.Fprintf(w, "error: %s: %s\n", f.Key, f.Error)
	}
	return eris.Errorf("%d of %d chapters failed", report.Errors, report.Total)
}
