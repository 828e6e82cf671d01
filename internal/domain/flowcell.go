package domain

import (
	"time"

	"github.com/google/uuid"
)

// FlowcellRun — один запуск оркестратора над батчем образцов flowcell.
type FlowcellRun struct {
	// ID — уникальный идентификатор запуска.
	ID uuid.UUID `json:"id"`

	// Flowcell — идентификатор flowcell (первый, если батч смешанный).
	Flowcell string `json:"flowcell"`

	// Status — текущий статус.
	Status FlowcellStatus `json:"status"`

	// Phase — последняя достигнутая фаза.
	Phase Phase `json:"phase"`

	// Budget — ресурсы на образец.
	Budget ResourceBudget `json:"budget"`

	// Счётчики итоговой сводки.
	Samples          int `json:"samples"`
	Processed        int `json:"processed"`
	Failed           int `json:"failed"`
	Skipped          int `json:"skipped"`
	Annotated        int `json:"annotated"`
	AnnotationFailed int `json:"annotation_failed"`

	// StartedAt — время начала обработки.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст структурной ошибки.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// NewFlowcellRun создаёт запись запуска в статусе PENDING.
func NewFlowcellRun(flowcell string, samples int) *FlowcellRun {
	return &FlowcellRun{
		ID:        uuid.New(),
		Flowcell:  flowcell,
		Status:    FlowcellStatusPending,
		Phase:     PhaseInit,
		Samples:   samples,
		CreatedAt: time.Now(),
	}
}

// Duration возвращает продолжительность обработки.
// Возвращает 0, если запуск ещё не завершён.
func (r *FlowcellRun) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// MarkRunning переводит запуск в статус RUNNING.
func (r *FlowcellRun) MarkRunning() {
	now := time.Now()
	r.Status = FlowcellStatusRunning
	r.StartedAt = &now
}

// MarkFinished выставляет финальный статус по счётчикам.
func (r *FlowcellRun) MarkFinished() {
	now := time.Now()
	r.FinishedAt = &now
	r.Phase = PhaseDone
	if r.Failed > 0 {
		r.Status = FlowcellStatusFailed
		return
	}
	r.Status = FlowcellStatusSucceeded
}

// MarkFailed переводит запуск в FAILED со структурной ошибкой.
func (r *FlowcellRun) MarkFailed(err string) {
	now := time.Now()
	r.Status = FlowcellStatusFailed
	r.FinishedAt = &now
	r.Error = err
}

// SampleRun — сохранённый результат обработки одного образца.
type SampleRun struct {
	ID                uuid.UUID    `json:"id"`
	FlowcellRunID     uuid.UUID    `json:"flowcell_run_id"`
	SampleID          string       `json:"sample_id"`
	Flowcell          string       `json:"flowcell"`
	Chemistry         Chemistry    `json:"chemistry"`
	Organism          string       `json:"organism"`
	Position          int          `json:"position"`
	Status            SampleStatus `json:"status"`
	ExitCode          *int         `json:"exit_code,omitempty"`
	LogPath           string       `json:"log_path,omitempty"`
	RemotePath        string       `json:"remote_path,omitempty"`
	Annotated         *bool        `json:"annotated,omitempty"`
	AnnotationMessage string       `json:"annotation_message,omitempty"`
	Error             string       `json:"error,omitempty"`
	StartedAt         *time.Time   `json:"started_at,omitempty"`
	FinishedAt        *time.Time   `json:"finished_at,omitempty"`
}
