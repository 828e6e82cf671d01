package orchestrator

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/scauto/internal/archive"
	"github.com/shaiso/scauto/internal/domain"
)

// Report — итог обработки батча.
type Report struct {
	RunID     uuid.UUID             `json:"run_id"`
	Flowcells []string              `json:"flowcells"`
	Status    domain.FlowcellStatus `json:"status"`
	Budget    domain.ResourceBudget `json:"budget"`

	TotalCores    int `json:"total_cores"`
	TotalMemoryGB int `json:"total_memory_gb"`

	Processed        int `json:"processed"`
	Failed           int `json:"failed"`
	Skipped          int `json:"skipped"`
	Annotated        int `json:"annotated"`
	AnnotationFailed int `json:"annotation_failed"`

	Duration time.Duration `json:"duration"`

	// Samples — итоги образцов в порядке run sheet.
	Samples []domain.SampleRun `json:"samples"`

	// Archive — итог архивации, если она выполнялась.
	Archive *archive.Summary `json:"archive,omitempty"`
}

func newReport(run *domain.FlowcellRun, batch domain.BatchInfo, cores, memory int, samples []domain.SampleRun) *Report {
	return &Report{
		RunID:            run.ID,
		Flowcells:        batch.Flowcells,
		Status:           run.Status,
		Budget:           run.Budget,
		TotalCores:       cores,
		TotalMemoryGB:    memory,
		Processed:        run.Processed,
		Failed:           run.Failed,
		Skipped:          run.Skipped,
		Annotated:        run.Annotated,
		AnnotationFailed: run.AnnotationFailed,
		Duration:         run.Duration(),
		Samples:          samples,
	}
}
