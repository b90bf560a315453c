package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cloo-solutions/chapterkit/internal/api"
	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/cloo-solutions/chapterkit/internal/jobs"
	"github.com/cloo-solutions/chapterkit/internal/pagination"
	"github.com/cloo-solutions/chapterkit/internal/service"
	"github.com/go-chi/chi/v5"
)

type RunService interface {
	Execute(ctx context.Context, pass string, opts jobs.RunOptions) (*service.RunResult, error)
	Get(ctx context.Context, id string) (*domain.Run, error)
	List(ctx context.Context, pass string, limit int, cursor string) (*pagination.PageResult[*domain.Run], error)
}

type RunHandler struct {
	svc RunService
}

func NewRunHandler(svc RunService) *RunHandler {
	return &RunHandler{svc: svc}
}

// MaxRunRequestBytes bounds a CreateRunRequest body. A pass name and a flag
// never come close.
const MaxRunRequestBytes int64 = 4 << 10

type CreateRunRequest struct {
	Pass   string `json:"pass"`
	DryRun bool   `json:"dry_run"`
}

type RunResponse struct {
	ID         string              `json:"id,omitempty"`
	Pass       string              `json:"pass"`
	Corpus     string              `json:"corpus"`
	DryRun     bool                `json:"dry_run"`
	StartedAt  string              `json:"started_at"`
	FinishedAt string              `json:"finished_at"`
	DurationMS int64               `json:"duration_ms"`
	Total      int                 `json:"total"`
	Updated    int                 `json:"updated"`
	Unchanged  int                 `json:"unchanged"`
	Errors     int                 `json:"errors"`
	Failures   []domain.RunFailure `json:"failures,omitempty"`
	Summary    any                 `json:"summary,omitempty"`
}

type RunListResponse struct {
	Items   []*RunResponse `json:"items"`
	Cursor  string         `json:"cursor,omitempty"`
	HasMore bool           `json:"has_more"`
}

func runToResponse(run *domain.Run) *RunResponse {
	return &RunResponse{
		ID:         run.ID,
		Pass:       run.Pass,
		Corpus:     run.Corpus,
		DryRun:     run.DryRun,
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: run.FinishedAt.UTC().Format(time.RFC3339),
		DurationMS: run.Duration().Milliseconds(),
		Total:      run.Total,
		Updated:    run.Updated,
		Unchanged:  run.Unchanged,
		Errors:     run.Errors,
		Failures:   run.Failures,
	}
}

// Create runs a pass synchronously and responds with its report.
func (h *RunHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.HandleError(w, domain.ErrRequestTooLarge)
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Pass == "" {
		api.Error(w, http.StatusBadRequest, "pass is required")
		return
	}

	result, err := h.svc.Execute(r.Context(), req.Pass, jobs.RunOptions{DryRun: req.DryRun})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := runToResponse(result.Report.Run(result.ID))
	resp.Summary = result.Report.Summary
	api.Success(w, http.StatusCreated, resp)
}

func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	run, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, runToResponse(run))
}

func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := pagination.ParseLimit(query.Get("limit"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.svc.List(r.Context(), query.Get("pass"), limit, query.Get("cursor"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*RunResponse, len(page.Items))
	for i, run := range page.Items {
		items[i] = runToResponse(run)
	}

	api.Success(w, http.StatusOK, RunListResponse{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}
