package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/scauto/internal/domain"
)

// Store объединяет репозитории в хранилище результатов оркестратора.
type Store struct {
	Flowcells *FlowcellRepo
	Samples   *SampleRepo
}

// NewStore создаёт Store поверх пула.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Flowcells: NewFlowcellRepo(pool),
		Samples:   NewSampleRepo(pool),
	}
}

func (s *Store) CreateFlowcellRun(ctx context.Context, run *domain.FlowcellRun) error {
	return s.Flowcells.Create(ctx, run)
}

func (s *Store) UpdateFlowcellRun(ctx context.Context, run *domain.FlowcellRun) error {
	return s.Flowcells.Update(ctx, run)
}

func (s *Store) SaveSampleRuns(ctx context.Context, runs []domain.SampleRun) error {
	return s.Samples.SaveBatch(ctx, runs)
}

// HasRun — для планировщика.
func (s *Store) HasRun(ctx context.Context, flowcell string) (bool, error) {
	return s.Flowcells.HasRun(ctx, flowcell)
}
