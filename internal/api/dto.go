package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/scauto/internal/domain"
)

// FlowcellRunResponse — ответ с запуском flowcell.
type FlowcellRunResponse struct {
	ID               uuid.UUID             `json:"id"`
	Flowcell         string                `json:"flowcell"`
	Status           domain.FlowcellStatus `json:"status"`
	Phase            domain.Phase          `json:"phase"`
	Budget           domain.ResourceBudget `json:"budget"`
	Samples          int                   `json:"samples"`
	Processed        int                   `json:"processed"`
	Failed           int                   `json:"failed"`
	Skipped          int                   `json:"skipped"`
	Annotated        int                   `json:"annotated"`
	AnnotationFailed int                   `json:"annotation_failed"`
	StartedAt        *time.Time            `json:"started_at,omitempty"`
	FinishedAt       *time.Time            `json:"finished_at,omitempty"`
	DurationMs       int64                 `json:"duration_ms,omitempty"`
	Error            string                `json:"error,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}

// FlowcellRunFromDomain конвертирует domain.FlowcellRun в FlowcellRunResponse.
func FlowcellRunFromDomain(r domain.FlowcellRun) FlowcellRunResponse {
	return FlowcellRunResponse{
		ID:               r.ID,
		Flowcell:         r.Flowcell,
		Status:           r.Status,
		Phase:            r.Phase,
		Budget:           r.Budget,
		Samples:          r.Samples,
		Processed:        r.Processed,
		Failed:           r.Failed,
		Skipped:          r.Skipped,
		Annotated:        r.Annotated,
		AnnotationFailed: r.AnnotationFailed,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		DurationMs:       r.Duration().Milliseconds(),
		Error:            r.Error,
		CreatedAt:        r.CreatedAt,
	}
}

// SampleRunResponse — ответ с результатом образца.
type SampleRunResponse struct {
	SampleID          string              `json:"sample_id"`
	Flowcell          string              `json:"flowcell"`
	Chemistry         domain.Chemistry    `json:"chemistry"`
	Organism          string              `json:"organism"`
	Position          int                 `json:"position"`
	Status            domain.SampleStatus `json:"status"`
	ExitCode          *int                `json:"exit_code,omitempty"`
	LogPath           string              `json:"log_path,omitempty"`
	RemotePath        string              `json:"remote_path,omitempty"`
	Annotated         *bool               `json:"annotated,omitempty"`
	AnnotationMessage string              `json:"annotation_message,omitempty"`
	Error             string              `json:"error,omitempty"`
}

// SampleRunFromDomain конвертирует domain.SampleRun в SampleRunResponse.
func SampleRunFromDomain(s domain.SampleRun) SampleRunResponse {
	return SampleRunResponse{
		SampleID:          s.SampleID,
		Flowcell:          s.Flowcell,
		Chemistry:         s.Chemistry,
		Organism:          s.Organism,
		Position:          s.Position,
		Status:            s.Status,
		ExitCode:          s.ExitCode,
		LogPath:           s.LogPath,
		RemotePath:        s.RemotePath,
		Annotated:         s.Annotated,
		AnnotationMessage: s.AnnotationMessage,
		Error:             s.Error,
	}
}

// EnqueueRequest — запрос на постановку flowcell в очередь.
type EnqueueRequest struct {
	// RunSheet — путь к run sheet; пусто — run sheet из директории оркестратора.
	RunSheet string `json:"run_sheet,omitempty"`
}

// EnqueueResponse — ответ на постановку в очередь.
type EnqueueResponse struct {
	Flowcell string `json:"flowcell"`
	RunSheet string `json:"run_sheet,omitempty"`
	Queued   bool   `json:"queued"`
}

// ResourcesResponse — бюджет ресурсов для батча из N образцов.
type ResourcesResponse struct {
	Samples           int `json:"samples"`
	CoresPerSample    int `json:"cores_per_sample"`
	MemoryPerSampleGB int `json:"memory_per_sample_gb"`
	TotalCores        int `json:"total_cores"`
	TotalMemoryGB     int `json:"total_memory_gb"`
}

// ChemistryResponse — описание поддерживаемой chemistry.
type ChemistryResponse struct {
	Code    domain.Chemistry `json:"code"`
	RNA     bool             `json:"rna"`
	Spatial bool             `json:"spatial"`
	VDJ     bool             `json:"vdj"`
}

// SkipListResponse — содержимое skip-листа.
type SkipListResponse struct {
	Flowcells   []string `json:"skip_flowcells"`
	LastUpdated string   `json:"last_updated,omitempty"`
}

// SkipRequest — запрос на добавление flowcell в skip-лист.
type SkipRequest struct {
	Flowcell string `json:"flowcell"`
	Reason   string `json:"reason,omitempty"`
}

// SkipResponse — результат добавления.
type SkipResponse struct {
	Flowcell string `json:"flowcell"`
	Added    bool   `json:"added"`
}
