package admin

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/chapterkit/internal/api/handlers"
	"github.com/cloo-solutions/chapterkit/internal/cli"
	"github.com/cloo-solutions/chapterkit/internal/config"
	"github.com/cloo-solutions/chapterkit/internal/database"
	"github.com/cloo-solutions/chapterkit/internal/jobs"
	"github.com/cloo-solutions/chapterkit/internal/server"
	"github.com/cloo-solutions/chapterkit/internal/service"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var corpus cli.CorpusFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and scheduler",
		Long: `Start the chapterkit API server. When CHAPTERKIT_SCHEDULE_INTERVAL is set the
configured passes also run on that interval.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, &corpus)
		},
	}

	corpus.Bind(cmd)
	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides CHAPTERKIT_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().String("migrations", database.DefaultMigrationsDir, "Migrations directory")
	cmd.Flags().Bool("schedule-on-start", false, "Run the scheduled passes once immediately")

	return cmd
}

func runServe(cmd *cobra.Command, corpus *cli.CorpusFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failed to load config")
	}
	if err := corpus.Apply(cfg); err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	flush, err := cli.Setup(cfg)
	if err != nil {
		return err
	}
	defer flush()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if cfg.HasDatabase() && !noMigrate {
		dir, _ := cmd.Flags().GetString("migrations")
		if err := database.Migrate(cfg.DatabaseURL, dir); err != nil {
			return eris.Wrap(err, "failed to run migrations")
		}
	}

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.Runs.HasRunLog() {
		zap.L().Warn("run log disabled: set CHAPTERKIT_DATABASE_URL to record runs")
	}

	var worker *jobs.Worker
	if cfg.HasSchedule() {
		scheduled, err := service.NewScheduledRuns(app.Runs, cfg.SchedulePasses, false)
		if err != nil {
			return eris.Wrap(err, "invalid CHAPTERKIT_SCHEDULE_PASSES")
		}
		worker = jobs.NewWorker(scheduled, cfg.ScheduleInterval)
		if onStart, _ := cmd.Flags().GetBool("schedule-on-start"); onStart {
			worker.RunOnStart()
		}
		go worker.Start(ctx)
	}

	router := server.NewRouter(server.RouterConfig{
		APIToken:   cfg.APIToken,
		RunHandler: handlers.NewRunHandler(app.Runs),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zap.L().Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("corpus", app.Store.Location()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return eris.Wrap(err, "server failed")
	}
	zap.L().Info("shutting down")

	if worker != nil {
		worker.Stop()
	}

	// A pass triggered over HTTP runs inside its request, so the timeout
	// bounds how long a running pass may take to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server forced to shutdown")
	}

	zap.L().Info("server exited")
	return nil
}
