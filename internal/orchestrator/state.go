package orchestrator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/scauto/internal/dispatch"
	"github.com/shaiso/scauto/internal/domain"
)

// SampleEntry — учёт одного образца внутри батча.
//
// Запись создаётся для каждого образца, даже если процесс не запускался:
// так закрытие логов в DONE не пропускает ни одного дескриптора.
type SampleEntry struct {
	// Position — позиция образца в run sheet.
	Position int

	// Sample — строка run sheet.
	Sample *domain.Sample

	// Result — итог диспетчеризации (nil до DISPATCHING).
	Result *dispatch.Result

	// Status — текущий статус образца.
	Status domain.SampleStatus

	// ExitCode — код выхода инструмента.
	ExitCode *int

	// Annotation — результат аннотации (nil, если не аннотировался).
	Annotation *domain.AnnotationResult

	// Err — причина FAILED.
	Err error

	StartedAt  *time.Time
	FinishedAt *time.Time

	closed bool
}

// BatchState — состояние обработки батча в памяти.
//
// Потокобезопасен: аннотация пишет в логи образцов из нескольких горутин.
type BatchState struct {
	entries []*SampleEntry
	mu      sync.RWMutex
}

// NewBatchState создаёт записи PENDING для всех образцов.
func NewBatchState(samples []domain.Sample) *BatchState {
	s := &BatchState{entries: make([]*SampleEntry, len(samples))}
	for i := range samples {
		s.entries[i] = &SampleEntry{
			Position: i,
			Sample:   &samples[i],
			Status:   domain.SampleStatusPending,
		}
	}
	return s
}

// Len возвращает число образцов.
func (s *BatchState) Len() int {
	return len(s.entries)
}

// Positions возвращает позиции образцов в порядке run sheet.
func (s *BatchState) Positions() []int {
	positions := make([]int, len(s.entries))
	for i := range positions {
		positions[i] = i
	}
	return positions
}

// Record сохраняет итог диспетчеризации.
func (s *BatchState) Record(pos int, res *dispatch.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[pos]
	now := time.Now()
	e.Result = res
	e.Status = res.Status
	e.Err = res.Err
	e.StartedAt = &now

	if res.Status != domain.SampleStatusRunning {
		e.FinishedAt = &now
	}
	// Место назначения известно и для пропущенных образцов
	if res.RemoteDir != "" {
		e.Sample.RemotePath = res.RemoteDir
	}
}

// Started возвращает позиции образцов с запущенным процессом, в порядке запуска.
func (s *BatchState) Started() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var started []int
	for _, e := range s.entries {
		if e.Result != nil && e.Result.Process != nil {
			started = append(started, e.Position)
		}
	}
	return started
}

// Process возвращает результат диспетчеризации образца.
func (s *BatchState) Process(pos int) *dispatch.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[pos].Result
}

// Finish фиксирует завершение процесса.
func (s *BatchState) Finish(pos int, code int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[pos]
	now := time.Now()
	e.FinishedAt = &now
	e.ExitCode = &code

	switch {
	case err != nil:
		e.Status = domain.SampleStatusFailed
		e.Err = err
	case code != 0:
		e.Status = domain.SampleStatusFailed
		e.Err = fmt.Errorf("%w: %d", ErrExitCode, code)
	default:
		e.Status = domain.SampleStatusSucceeded
	}
}

// MarkNotDispatched помечает оставшиеся PENDING образцы как FAILED.
func (s *BatchState) MarkNotDispatched(cause error) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if e.Status == domain.SampleStatusPending {
			e.Status = domain.SampleStatusFailed
			e.Err = fmt.Errorf("%w: %v", ErrNotDispatched, cause)
			n++
		}
	}
	return n
}

// Bundle возвращает пути образца, вычисленные при диспетчеризации.
func (s *BatchState) Bundle(pos int) domain.DirectoryBundle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r := s.entries[pos].Result; r != nil {
		return r.Bundle
	}
	return domain.DirectoryBundle{}
}

// Annotated сохраняет результат аннотации и дописывает сообщение в лог образца.
func (s *BatchState) Annotated(pos int, res domain.AnnotationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[pos]
	e.Annotation = &res

	if e.Result == nil || e.Result.Log == nil || e.closed {
		return nil
	}
	if _, err := fmt.Fprintf(e.Result.Log, "\n%s\n", res.Message); err != nil {
		return fmt.Errorf("append annotation to log: %w", err)
	}
	return e.Result.Log.Sync()
}

// Close закрывает логи всех образцов. Каждый лог закрывается ровно один раз.
func (s *BatchState) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, e := range s.entries {
		if e.closed {
			continue
		}
		e.closed = true
		if e.Result == nil || e.Result.Log == nil {
			continue
		}
		if err := e.Result.Log.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log %s: %w", e.Result.LogPath, err))
		}
	}
	return errors.Join(errs...)
}

// Tally — итоговые счётчики батча.
type Tally struct {
	Processed        int
	Failed           int
	Skipped          int
	Annotated        int
	AnnotationFailed int
}

// Tally считает итоговые счётчики.
func (s *BatchState) Tally() Tally {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t Tally
	for _, e := range s.entries {
		switch e.Status {
		case domain.SampleStatusSucceeded:
			t.Processed++
		case domain.SampleStatusFailed:
			t.Failed++
		case domain.SampleStatusSkipped:
			t.Skipped++
		}
		if e.Annotation != nil {
			if e.Annotation.Success {
				t.Annotated++
			} else {
				t.AnnotationFailed++
			}
		}
	}
	return t
}

// SampleRuns возвращает записи образцов для сохранения.
func (s *BatchState) SampleRuns(runID uuid.UUID) []domain.SampleRun {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]domain.SampleRun, 0, len(s.entries))
	for _, e := range s.entries {
		sr := domain.SampleRun{
			ID:            uuid.New(),
			FlowcellRunID: runID,
			SampleID:      e.Sample.SampleID,
			Flowcell:      e.Sample.Flowcell,
			Chemistry:     e.Sample.Chemistry,
			Organism:      e.Sample.Reference,
			Position:      e.Position,
			Status:        e.Status,
			ExitCode:      e.ExitCode,
			RemotePath:    e.Sample.RemotePath,
			StartedAt:     e.StartedAt,
			FinishedAt:    e.FinishedAt,
		}
		if e.Result != nil {
			sr.LogPath = e.Result.LogPath
		}
		if e.Err != nil {
			sr.Error = e.Err.Error()
		}
		if e.Annotation != nil {
			ok := e.Annotation.Success
			sr.Annotated = &ok
			sr.AnnotationMessage = e.Annotation.Message
		}
		runs = append(runs, sr)
	}
	return runs
}
