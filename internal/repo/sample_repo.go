package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/scauto/internal/domain"
)

// SampleRepo — репозиторий результатов образцов.
type SampleRepo struct {
	pool *pgxpool.Pool
}

// NewSampleRepo создаёт новый SampleRepo.
func NewSampleRepo(pool *pgxpool.Pool) *SampleRepo {
	return &SampleRepo{pool: pool}
}

// SaveBatch сохраняет результаты образцов одной транзакцией.
// Повторное сохранение той же позиции запуска перезаписывает строку.
func (r *SampleRepo) SaveBatch(ctx context.Context, runs []domain.SampleRun) error {
	if len(runs) == 0 {
		return nil
	}

	query := `
		INSERT INTO sample_runs (
			id, flowcell_run_id, sample_id, flowcell, chemistry, organism, position,
			status, exit_code, log_path, remote_path, annotated, annotation_message,
			error, started_at, finished_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (flowcell_run_id, position) DO UPDATE
		SET status = EXCLUDED.status, exit_code = EXCLUDED.exit_code,
		    log_path = EXCLUDED.log_path, remote_path = EXCLUDED.remote_path,
		    annotated = EXCLUDED.annotated, annotation_message = EXCLUDED.annotation_message,
		    error = EXCLUDED.error, started_at = EXCLUDED.started_at,
		    finished_at = EXCLUDED.finished_at
	`

	batch := &pgx.Batch{}
	for i := range runs {
		s := &runs[i]
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		batch.Queue(query,
			s.ID,
			s.FlowcellRunID,
			s.SampleID,
			s.Flowcell,
			s.Chemistry,
			s.Organism,
			s.Position,
			s.Status,
			s.ExitCode,
			nullString(s.LogPath),
			nullString(s.RemotePath),
			s.Annotated,
			nullString(s.AnnotationMessage),
			nullString(s.Error),
			s.StartedAt,
			s.FinishedAt,
		)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert sample runs: %w", err)
		}
		return nil
	})
}

// ListByRun возвращает образцы запуска в порядке run sheet.
func (r *SampleRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.SampleRun, error) {
	query := `
		SELECT id, flowcell_run_id, sample_id, flowcell, chemistry, organism, position,
		       status, exit_code, log_path, remote_path, annotated, annotation_message,
		       error, started_at, finished_at
		FROM sample_runs
		WHERE flowcell_run_id = $1
		ORDER BY position ASC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list sample runs: %w", err)
	}
	defer rows.Close()

	var out []domain.SampleRun
	for rows.Next() {
		var s domain.SampleRun
		var logPath, remotePath, annMessage, sampleErr *string
		err := rows.Scan(
			&s.ID,
			&s.FlowcellRunID,
			&s.SampleID,
			&s.Flowcell,
			&s.Chemistry,
			&s.Organism,
			&s.Position,
			&s.Status,
			&s.ExitCode,
			&logPath,
			&remotePath,
			&s.Annotated,
			&annMessage,
			&sampleErr,
			&s.StartedAt,
			&s.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sample run: %w", err)
		}
		s.LogPath = derefString(logPath)
		s.RemotePath = derefString(remotePath)
		s.AnnotationMessage = derefString(annMessage)
		s.Error = derefString(sampleErr)
		out = append(out, s)
	}
	return out, rows.Err()
}
