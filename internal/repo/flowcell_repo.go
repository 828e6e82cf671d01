package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/scauto/internal/domain"
)

// FlowcellRepo — репозиторий запусков обработки flowcell.
type FlowcellRepo struct {
	pool *pgxpool.Pool
}

// NewFlowcellRepo создаёт новый FlowcellRepo.
func NewFlowcellRepo(pool *pgxpool.Pool) *FlowcellRepo {
	return &FlowcellRepo{pool: pool}
}

const flowcellColumns = `
	id, flowcell, status, phase, cores_per_sample, memory_per_sample_gb,
	samples, processed, failed, skipped, annotated, annotation_failed,
	started_at, finished_at, error, created_at`

// Create сохраняет новый запуск.
func (r *FlowcellRepo) Create(ctx context.Context, run *domain.FlowcellRun) error {
	query := `
		INSERT INTO flowcell_runs (` + flowcellColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.pool.Exec(ctx, query, flowcellArgs(run)...)
	if err != nil {
		return fmt.Errorf("insert flowcell run: %w", err)
	}
	return nil
}

// Update перезаписывает статус, фазу, бюджет и счётчики запуска.
func (r *FlowcellRepo) Update(ctx context.Context, run *domain.FlowcellRun) error {
	query := `
		UPDATE flowcell_runs
		SET status = $2, phase = $3, cores_per_sample = $4, memory_per_sample_gb = $5,
		    samples = $6, processed = $7, failed = $8, skipped = $9,
		    annotated = $10, annotation_failed = $11,
		    started_at = $12, finished_at = $13, error = $14
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		run.Phase,
		run.Budget.CoresPerSample,
		run.Budget.MemoryPerSampleGB,
		run.Samples,
		run.Processed,
		run.Failed,
		run.Skipped,
		run.Annotated,
		run.AnnotationFailed,
		run.StartedAt,
		run.FinishedAt,
		nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("update flowcell run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает запуск по ID.
func (r *FlowcellRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FlowcellRun, error) {
	query := `SELECT ` + flowcellColumns + ` FROM flowcell_runs WHERE id = $1`
	run, err := scanFlowcellRun(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// FlowcellFilter — параметры фильтрации запусков.
type FlowcellFilter struct {
	Flowcell string
	Status   domain.FlowcellStatus
	Limit    int
	Offset   int
}

// List возвращает запуски, новые первыми.
func (r *FlowcellRepo) List(ctx context.Context, filter FlowcellFilter) ([]domain.FlowcellRun, error) {
	query := `
		SELECT ` + flowcellColumns + `
		FROM flowcell_runs
		WHERE ($1::text IS NULL OR flowcell = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.Flowcell),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list flowcell runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.FlowcellRun
	for rows.Next() {
		run, err := scanFlowcellRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// HasRun сообщает, есть ли у flowcell активный (PENDING, RUNNING) или успешный запуск.
func (r *FlowcellRepo) HasRun(ctx context.Context, flowcell string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM flowcell_runs WHERE flowcell = $1 AND status = ANY($2)
		)
	`
	statuses := []string{
		string(domain.FlowcellStatusPending),
		string(domain.FlowcellStatusRunning),
		string(domain.FlowcellStatusSucceeded),
	}
	var ok bool
	if err := r.pool.QueryRow(ctx, query, flowcell, statuses).Scan(&ok); err != nil {
		return false, fmt.Errorf("check flowcell %s: %w", flowcell, err)
	}
	return ok, nil
}

func flowcellArgs(run *domain.FlowcellRun) []any {
	return []any{
		run.ID,
		run.Flowcell,
		run.Status,
		run.Phase,
		run.Budget.CoresPerSample,
		run.Budget.MemoryPerSampleGB,
		run.Samples,
		run.Processed,
		run.Failed,
		run.Skipped,
		run.Annotated,
		run.AnnotationFailed,
		run.StartedAt,
		run.FinishedAt,
		nullString(run.Error),
		run.CreatedAt,
	}
}

// scanFlowcellRun сканирует строку (pgx.Row или pgx.Rows) в FlowcellRun.
func scanFlowcellRun(row pgx.Row) (*domain.FlowcellRun, error) {
	var run domain.FlowcellRun
	var runError *string

	err := row.Scan(
		&run.ID,
		&run.Flowcell,
		&run.Status,
		&run.Phase,
		&run.Budget.CoresPerSample,
		&run.Budget.MemoryPerSampleGB,
		&run.Samples,
		&run.Processed,
		&run.Failed,
		&run.Skipped,
		&run.Annotated,
		&run.AnnotationFailed,
		&run.StartedAt,
		&run.FinishedAt,
		&runError,
		&run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan flowcell run: %w", err)
	}
	run.Error = derefString(runError)
	return &run, nil
}
