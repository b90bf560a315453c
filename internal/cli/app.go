package cli

import (
	"context"
	"strings"

	"github.com/cloo-solutions/chapterkit/internal/config"
	"github.com/cloo-solutions/chapterkit/internal/database"
	"github.com/cloo-solutions/chapterkit/internal/jobs"
	"github.com/cloo-solutions/chapterkit/internal/repository"
	"github.com/cloo-solutions/chapterkit/internal/service"
	"github.com/cloo-solutions/chapterkit/internal/storage"
	"github.com/cloo-solutions/chapterkit/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CorpusFlags are the flags that override corpus configuration.
type CorpusFlags struct {
	Corpus  string
	Backend string
	Rules   string
}

// Bind registers the flags on cmd.
func (f *CorpusFlags) Bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Corpus, "corpus", "", "Corpus directory, or key prefix for the s3 backend (overrides CHAPTERKIT_CORPUS_DIR / CHAPTERKIT_CORPUS_PREFIX)")
	cmd.Flags().StringVar(&f.Backend, "backend", "", "Corpus backend: dir or s3 (overrides CHAPTERKIT_CORPUS_BACKEND)")
	cmd.Flags().StringVar(&f.Rules, "rules", "", "YAML rules file (overrides CHAPTERKIT_RULES_FILE)")
}

// Apply writes the flags that were set over cfg and revalidates it.
func (f *CorpusFlags) Apply(cfg *config.Config) error {
	if f.Backend != "" {
		cfg.CorpusBackend = strings.ToLower(strings.TrimSpace(f.Backend))
	}
	if f.Corpus != "" {
		if cfg.CorpusBackend == config.BackendS3 {
			cfg.CorpusPrefix = f.Corpus
		} else {
			cfg.CorpusDir = f.Corpus
		}
	}
	if f.Rules != "" {
		cfg.RulesFile = f.Rules
	}
	return cfg.Validate()
}

// App wires configuration, storage, the optional run log and the passes.
type App struct {
	Config *config.Config
	Rules  service.Rules
	Store  jobs.CorpusStore
	Pool   *pgxpool.Pool
	Runs   *service.RunService

	closers []func()
}

// Setup initializes logging and, when configured, Sentry. The returned
// function flushes both.
func Setup(cfg *config.Config) (func(), error) {
	if err := config.InitLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}

	flush := func() { _ = zap.L().Sync() }
	if !cfg.HasSentry() {
		return flush, nil
	}

	// 10% trace sampling in production, everything elsewhere
	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}
	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
	})
	if err != nil {
		zap.L().Warn("telemetry init failed, continuing without tracing", zap.Error(err))
		return flush, nil
	}
	return func() {
		shutdown()
		flush()
	}, nil
}

// NewApp opens the corpus store and, when DATABASE_URL is set, the run log.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	rules, err := service.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Rules: rules, Store: store}

	var runLog service.RunRepositoryInterface
	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, eris.Wrap(err, "failed to open run log")
		}
		app.Pool = pool
		app.closers = append(app.closers, pool.Close)
		runLog = repository.NewRunRepository(pool)
	}

	app.Runs = service.NewRunService(jobs.NewRunner(store), service.NewPasses(rules), runLog)
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
