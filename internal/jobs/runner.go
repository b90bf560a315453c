package jobs

import (
	"context"
	"time"

	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/cloo-solutions/chapterkit/internal/telemetry"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CorpusStore defines the storage a pass runs over. Keys are document names
// ending in .json and List returns them in sorted order.
type CorpusStore interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Location() string
}

// Outcome is what a pass decided for one chapter.
type Outcome struct {
	// Changed is true when Data must replace the stored document.
	Changed bool
	Data    []byte
}

// Pass is one enrichment step applied to every chapter of a corpus.
type Pass interface {
	Name() string
	Apply(ctx context.Context, ch *domain.Chapter) (Outcome, error)
}

// Summarizer is implemented by passes that aggregate findings across the
// whole corpus. Begin is called before the first chapter.
type Summarizer interface {
	Begin()
	Summary() any
}

// RunOptions controls a single corpus run.
type RunOptions struct {
	DryRun bool
}

// Report summarizes one pass over a corpus.
type Report struct {
	Pass       string              `json:"pass"`
	Corpus     string              `json:"corpus"`
	DryRun     bool                `json:"dryRun"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt time.Time           `json:"finishedAt"`
	Total      int                 `json:"total"`
	Updated    int                 `json:"updated"`
	Unchanged  int                 `json:"unchanged"`
	Errors     int                 `json:"errors"`
	Failures   []domain.RunFailure `json:"failures,omitempty"`
	Summary    any                 `json:"summary,omitempty"`
}

// Run converts the report into a run log record with the given id.
func (r *Report) Run(id string) *domain.Run {
	return &domain.Run{
		ID:         id,
		Pass:       r.Pass,
		Corpus:     r.Corpus,
		DryRun:     r.DryRun,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Total:      r.Total,
		Updated:    r.Updated,
		Unchanged:  r.Unchanged,
		Errors:     r.Errors,
		Failures:   r.Failures,
	}
}

// Runner applies passes to every chapter of a corpus, one chapter at a time.
type Runner struct {
	store CorpusStore
	now   func() time.Time
}

// NewRunner creates a new Runner instance
func NewRunner(store CorpusStore) *Runner {
	return &Runner{
		store: store,
		now:   time.Now,
	}
}

// Run applies pass to every chapter in the store. A chapter that cannot be
// read, parsed, processed or written is logged and counted, and the run moves
// on. Only a failure to list the corpus, or a cancelled context, aborts it.
func (r *Runner) Run(ctx context.Context, pass Pass, opts RunOptions) (*Report, error) {
	if r.store == nil {
		return nil, domain.ErrStoreNotConfigured
	}

	report := &Report{
		Pass:      pass.Name(),
		Corpus:    r.store.Location(),
		DryRun:    opts.DryRun,
		StartedAt: r.now(),
	}

	ctx, span := telemetry.StartSpan(ctx, "pass."+pass.Name(), telemetry.SpanAttributes{
		Pass:      pass.Name(),
		Corpus:    report.Corpus,
		Operation: "run",
	})
	defer span.End()

	log := zap.L().With(zap.String("pass", pass.Name()), zap.String("corpus", report.Corpus))

	keys, err := r.store.List(ctx)
	if err != nil {
		span.SetError(err)
		return nil, eris.Wrap(err, "failed to list corpus")
	}

	summarizer, hasSummary := pass.(Summarizer)
	if hasSummary {
		summarizer.Begin()
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = r.now()
			return report, eris.Wrap(err, "run interrupted")
		}

		report.Total++
		changed, err := r.applyOne(ctx, pass, key, opts)
		if err != nil {
			report.Errors++
			report.Failures = append(report.Failures, domain.RunFailure{Key: key, Error: err.Error()})
			log.Warn("chapter failed", zap.String("chapter", key), zap.Error(err))
			telemetry.AddErrorBreadcrumb(ctx, pass.Name(), key+": "+err.Error())
			telemetry.CaptureError(ctx, err)
			continue
		}
		if changed {
			report.Updated++
			log.Debug("chapter updated", zap.String("chapter", key), zap.Bool("dry_run", opts.DryRun))
		} else {
			report.Unchanged++
		}
	}

	if hasSummary {
		report.Summary = summarizer.Summary()
	}
	report.FinishedAt = r.now()

	log.Info("pass finished",
		zap.Int("total", report.Total),
		zap.Int("updated", report.Updated),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("errors", report.Errors),
		zap.Bool("dry_run", opts.DryRun),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (r *Runner) applyOne(ctx context.Context, pass Pass, key string, opts RunOptions) (bool, error) {
	raw, err := r.store.Read(ctx, key)
	if err != nil {
		return false, eris.Wrapf(err, "failed to read %s", key)
	}

	ch, err := domain.ParseChapter(key, raw)
	if err != nil {
		return false, err
	}

	out, err := pass.Apply(ctx, ch)
	if err != nil {
		return false, eris.Wrapf(err, "failed to apply %s", pass.Name())
	}
	if !out.Changed {
		return false, nil
	}

	if !opts.DryRun {
		if err := r.store.Write(ctx, key, out.Data); err != nil {
			return false, eris.Wrapf(err, "failed to write %s", key)
		}
	}
	return true, nil
}
