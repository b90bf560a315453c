package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/cloo-solutions/chapterkit/internal/jobs"
	"github.com/cloo-solutions/chapterkit/internal/pagination"
	"github.com/cloo-solutions/chapterkit/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// UUIDGenerator generates unique identifiers
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// RunListFilter narrows a run log listing.
type RunListFilter struct {
	Pass   string
	Limit  int
	Cursor *pagination.Cursor
}

// RunRepositoryInterface defines the run log persistence the service needs
type RunRepositoryInterface interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id string) (*domain.Run, error)
	List(ctx context.Context, filter RunListFilter) ([]*domain.Run, error)
}

// PassRunner executes one pass over the corpus
type PassRunner interface {
	Run(ctx context.Context, pass jobs.Pass, opts jobs.RunOptions) (*jobs.Report, error)
}

// RunResult is the outcome of an executed pass.
type RunResult struct {
	// ID is empty when the run log is disabled.
	ID     string       `json:"id,omitempty"`
	Report *jobs.Report `json:"report"`
}

// RunService executes passes one at a time and records them in the run log.
type RunService struct {
	runner  PassRunner
	passes  map[string]jobs.Pass
	repo    RunRepositoryInterface
	uuidGen UUIDGenerator

	// running guards against overlapping passes; passes are strictly sequential.
	running sync.Mutex
}

// NewRunService creates a RunService. repo may be nil, which disables the run log.
func NewRunService(runner PassRunner, passes []jobs.Pass, repo RunRepositoryInterface) *RunService {
	return NewRunServiceWithUUID(runner, passes, repo, &DefaultUUIDGenerator{})
}

// NewRunServiceWithUUID creates a RunService with a custom id generator.
func NewRunServiceWithUUID(runner PassRunner, passes []jobs.Pass, repo RunRepositoryInterface, uuidGen UUIDGenerator) *RunService {
	byName := make(map[string]jobs.Pass, len(passes))
	for _, p := range passes {
		byName[p.Name()] = p
	}
	return &RunService{
		runner:  runner,
		passes:  byName,
		repo:    repo,
		uuidGen: uuidGen,
	}
}

// NewPasses builds every pass from one rule set, in scheduling order.
func NewPasses(rules Rules) []jobs.Pass {
	return []jobs.Pass{
		NewLongAnswerPassWithRules(rules),
		NewQACardPass(rules),
		NewAuditPass(rules),
	}
}

// HasRunLog reports whether runs are persisted.
func (s *RunService) HasRunLog() bool {
	return s.repo != nil
}

// Execute runs the named pass. It fails with ErrRunInProgress instead of
// waiting when another pass is running.
func (s *RunService) Execute(ctx context.Context, passName string, opts jobs.RunOptions) (*RunResult, error) {
	pass, ok := s.passes[passName]
	if !ok {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrUnknownPass.Message, errors.New(passName))
	}

	if !s.running.TryLock() {
		return nil, domain.ErrRunInProgress
	}
	defer s.running.Unlock()

	telemetry.AddBreadcrumb(ctx, "pass", "starting "+passName)
	report, err := s.runner.Run(ctx, pass, opts)
	if err != nil && report == nil {
		return nil, err
	}

	result := &RunResult{Report: report}
	if s.repo != nil {
		id := s.uuidGen.NewString()
		// A run is recorded even when interrupted, so the log reflects partial work.
		if recErr := s.repo.Create(context.WithoutCancel(ctx), report.Run(id)); recErr != nil {
			zap.L().Error("failed to record run",
				zap.String("pass", passName),
				zap.String("run_id", id),
				zap.Error(recErr),
			)
		} else {
			result.ID = id
		}
	}
	return result, err
}

// Get returns a recorded run.
func (s *RunService) Get(ctx context.Context, id string) (*domain.Run, error) {
	if s.repo == nil {
		return nil, domain.ErrRunLogDisabled
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrRunNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// List returns a page of recorded runs, newest first.
func (s *RunService) List(ctx context.Context, pass string, limit int, cursor string) (*pagination.PageResult[*domain.Run], error) {
	if s.repo == nil {
		return nil, domain.ErrRunLogDisabled
	}
	if pass != "" && !domain.IsKnownPass(pass) {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrUnknownPass.Message, errors.New(pass))
	}

	decoded, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}
	if limit <= 0 || limit > pagination.MaxLimit {
		limit = pagination.DefaultLimit
	}

	runs, err := s.repo.List(ctx, RunListFilter{Pass: pass, Limit: limit, Cursor: decoded})
	if err != nil {
		return nil, err
	}

	page := pagination.NewPage(runs, limit,
		func(r *domain.Run) string { return r.ID },
		func(r *domain.Run) time.Time { return r.StartedAt },
	)
	return &page, nil
}

// ScheduledRuns runs a fixed list of passes on every scheduler tick.
type ScheduledRuns struct {
	svc    *RunService
	passes []string
	dryRun bool
}

// NewScheduledRuns creates a jobs.JobProcessor running passes in order.
func NewScheduledRuns(svc *RunService, passes []string, dryRun bool) (*ScheduledRuns, error) {
	for _, name := range passes {
		if _, ok := svc.passes[name]; !ok {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrUnknownPass.Message, errors.New(name))
		}
	}
	return &ScheduledRuns{svc: svc, passes: passes, dryRun: dryRun}, nil
}

// ProcessJobs implements jobs.JobProcessor. A tick that overlaps a manual
// run skips the busy pass rather than queueing it.
func (r *ScheduledRuns) ProcessJobs(ctx context.Context) error {
	var errs []error
	for _, name := range r.passes {
		result, err := r.svc.Execute(ctx, name, jobs.RunOptions{DryRun: r.dryRun})
		if errors.Is(err, domain.ErrRunInProgress) {
			zap.L().Info("scheduled pass skipped: another pass is running", zap.String("pass", name))
			continue
		}
		if err != nil {
			errs = append(errs, eris.Wrapf(err, "scheduled pass %s", name))
			continue
		}
		zap.L().Info("scheduled pass finished",
			zap.String("pass", name),
			zap.String("run_id", result.ID),
			zap.Int("updated", result.Report.Updated),
			zap.Int("errors", result.Report.Errors),
		)
	}
	return errors.Join(errs...)
}
