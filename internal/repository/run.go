package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/cloo-solutions/chapterkit/internal/pagination"
	"github.com/cloo-solutions/chapterkit/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

const runColumns = `id, pass, corpus, dry_run, started_at, finished_at, total, updated, unchanged, errors, failures`

type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

func (r *RunRepository) Create(ctx context.Context, run *domain.Run) error {
	if err := domain.ValidateRun(run); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrInvalidRun.Message, err)
	}

	failures := run.Failures
	if failures == nil {
		failures = []domain.RunFailure{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return eris.Wrap(err, "repository: encode run failures")
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO enrichment_runs (`+runColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.Pass, run.Corpus, run.DryRun, run.StartedAt, run.FinishedAt,
		run.Total, run.Updated, run.Unchanged, run.Errors, failuresJSON,
	)
	if err != nil {
		return eris.Wrapf(err, "repository: insert run %s", run.ID)
	}
	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.Run, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM enrichment_runs WHERE id = $1`,
		id,
	)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, eris.Wrapf(err, "repository: get run %s", id)
	}
	return run, nil
}

// List returns runs newest first. It fetches one row past the limit so the
// caller can tell whether another page exists.
func (r *RunRepository) List(ctx context.Context, filter service.RunListFilter) ([]*domain.Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}

	query := `SELECT ` + runColumns + ` FROM enrichment_runs WHERE 1=1`
	var args []any

	if filter.Pass != "" {
		args = append(args, filter.Pass)
		query += ` AND pass = $1`
	}
	if filter.Cursor != nil {
		args = append(args, filter.Cursor.Timestamp, filter.Cursor.LastID)
		query += ` AND (started_at, id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}
	args = append(args, limit+1)
	query += ` ORDER BY started_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "repository: list runs")
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "repository: scan run")
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var failuresJSON []byte
	err := row.Scan(
		&run.ID, &run.Pass, &run.Corpus, &run.DryRun, &run.StartedAt, &run.FinishedAt,
		&run.Total, &run.Updated, &run.Unchanged, &run.Errors, &failuresJSON,
	)
	if err != nil {
		return nil, err
	}
	if len(failuresJSON) > 0 {
		if err := json.Unmarshal(failuresJSON, &run.Failures); err != nil {
			return nil, eris.Wrap(err, "decode run failures")
		}
	}
	if len(run.Failures) == 0 {
		run.Failures = nil
	}
	return &run, nil
}
