package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/chapterkit/internal/cli"
	"github.com/cloo-solutions/chapterkit/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "chapterkitd",
		Short:         "Chapterkit daemon and run log tools",
		Long:          "Chapterkit daemon for the HTTP API, the pass scheduler and the run log",
		SilenceErrors: true,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())
	rootCmd.AddCommand(admin.RunsCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
