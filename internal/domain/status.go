package domain

// FlowcellStatus — статус обработки flowcell.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
//	(или) → SKIPPED (flowcell в skip-листе или уже обработан)
type FlowcellStatus string

const (
	// FlowcellStatusPending — flowcell обнаружен, обработка не начата.
	FlowcellStatusPending FlowcellStatus = "PENDING"

	// FlowcellStatusRunning — идёт обработка образцов.
	FlowcellStatusRunning FlowcellStatus = "RUNNING"

	// FlowcellStatusSucceeded — все образцы обработаны успешно.
	FlowcellStatusSucceeded FlowcellStatus = "SUCCEEDED"

	// FlowcellStatusFailed — хотя бы один образец упал.
	FlowcellStatusFailed FlowcellStatus = "FAILED"

	// FlowcellStatusSkipped — обработка не запускалась.
	FlowcellStatusSkipped FlowcellStatus = "SKIPPED"
)

// IsTerminal возвращает true, если статус финальный.
func (s FlowcellStatus) IsTerminal() bool {
	switch s {
	case FlowcellStatusSucceeded, FlowcellStatusFailed, FlowcellStatusSkipped:
		return true
	default:
		return false
	}
}

// SampleStatus — статус обработки одного образца.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	        ↘ SKIPPED   ↘ FAILED
//	        ↘ FAILED (ошибка конфигурации или запуска)
type SampleStatus string

const (
	// SampleStatusPending — образец ещё не диспатчился.
	SampleStatusPending SampleStatus = "PENDING"

	// SampleStatusSkipped — результат уже существует, процесс не запускался.
	SampleStatusSkipped SampleStatus = "SKIPPED"

	// SampleStatusRunning — внешний инструмент запущен.
	SampleStatusRunning SampleStatus = "RUNNING"

	// SampleStatusSucceeded — инструмент завершился с кодом 0.
	SampleStatusSucceeded SampleStatus = "SUCCEEDED"

	// SampleStatusFailed — ошибка конфигурации, запуска или ненулевой код выхода.
	SampleStatusFailed SampleStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s SampleStatus) IsTerminal() bool {
	switch s {
	case SampleStatusSkipped, SampleStatusSucceeded, SampleStatusFailed:
		return true
	default:
		return false
	}
}

// Phase — фаза обработки батча оркестратором.
//
//	INIT → RESOURCE_ALLOCATED → DISPATCHING → WAITING → (ANNOTATING) → DONE
type Phase string

const (
	PhaseInit              Phase = "INIT"
	PhaseResourceAllocated Phase = "RESOURCE_ALLOCATED"
	PhaseDispatching       Phase = "DISPATCHING"
	PhaseWaiting           Phase = "WAITING"
	PhaseAnnotating        Phase = "ANNOTATING"
	PhaseDone              Phase = "DONE"
)
