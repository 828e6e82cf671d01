package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrEmptyBatch — в батче нет образцов.
	ErrEmptyBatch = errors.New("empty sample batch")

	// ErrBatchCancelled — обработка батча отменена.
	ErrBatchCancelled = errors.New("flowcell batch cancelled")

	// ErrAnnotationFailed — аннотация образца неуспешна.
	ErrAnnotationFailed = errors.New("annotation failed")

	// ErrNotDispatched — образец не был запущен (отмена батча).
	ErrNotDispatched = errors.New("sample was not dispatched")

	// ErrExitCode — внешний инструмент завершился с ненулевым кодом.
	ErrExitCode = errors.New("tool exited with non-zero code")

	// ErrFlowcellActive — flowcell уже обрабатывается.
	ErrFlowcellActive = errors.New("flowcell already being processed")

	// ErrFlowcellSkipped — flowcell в skip-листе.
	ErrFlowcellSkipped = errors.New("flowcell is in skip list")

	// ErrFlowcellArchived — результаты flowcell уже в удалённом хранилище.
	ErrFlowcellArchived = errors.New("flowcell already archived")

	// ErrArchive — результаты обработаны, но не заархивированы.
	ErrArchive = errors.New("archive flowcell results")

	// ErrOrchestratorStopped — оркестратор остановлен.
	ErrOrchestratorStopped = errors.New("orchestrator stopped")
)
