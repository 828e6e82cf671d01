package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/repo"
)

// FlowcellStore — чтение запусков. Реализация — repo.FlowcellRepo.
type FlowcellStore interface {
	List(ctx context.Context, filter repo.FlowcellFilter) ([]domain.FlowcellRun, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FlowcellRun, error)
}

// SampleStore — чтение результатов образцов. Реализация — repo.SampleRepo.
type SampleStore interface {
	ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.SampleRun, error)
}

// Enqueuer ставит flowcell в очередь. Реализация — mq.Publisher.
type Enqueuer interface {
	PublishFlowcellPending(ctx context.Context, flowcell, runSheet string) error
}

// SkipList — skip-лист flowcell. Реализация — skiplist.List.
type SkipList interface {
	Contains(flowcell string) bool
	Flowcells() []string
	LastUpdated() string
	Add(flowcell, reason string) (bool, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	flowcells FlowcellStore
	samples   SampleStore
	enqueuer  Enqueuer
	skip      SkipList
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Flowcells FlowcellStore
	Samples   SampleStore

	// Enqueuer — nil, если брокер недоступен: enqueue отвечает 503.
	Enqueuer Enqueuer

	// SkipList — nil отключает /skiplist.
	SkipList SkipList

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		flowcells: cfg.Flowcells,
		samples:   cfg.Samples,
		enqueuer:  cfg.Enqueuer,
		skip:      cfg.SkipList,
		logger:    logger,
	}
}
