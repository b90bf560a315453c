package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/chapterkit/internal/cli"
	"github.com/cloo-solutions/chapterkit/internal/cli/enrich"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "chapterkit",
		Short: "Chapterkit - study material enrichment for chapter documents",
		Long: `Chapterkit derives long answers, memorization cards and quality audits from
the chapter JSON documents of a textbook corpus.

Environment variables:
  CHAPTERKIT_CORPUS_BACKEND  dir or s3 (default: dir)
  CHAPTERKIT_CORPUS_DIR      corpus directory (default: content/chapters)
  CHAPTERKIT_RULES_FILE      YAML rules overriding the built-in heuristics
  CHAPTERKIT_DATABASE_URL    records every run in the run log when set`,
		Version:       version,
		SilenceErrors: true,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(enrich.EnrichCmd())
	rootCmd.AddCommand(enrich.AuditCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
