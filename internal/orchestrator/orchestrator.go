package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/shaiso/scauto/internal/annotation"
	"github.com/shaiso/scauto/internal/dispatch"
	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/stage"
	"github.com/shaiso/scauto/internal/telemetry"
)

// Default configuration values.
const (
	defaultStaggerDelay = 2 * time.Second
)

// Dispatcher запускает один образец. Реализация — dispatch.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, sample *domain.Sample, batch domain.BatchInfo, budget domain.ResourceBudget) *dispatch.Result
}

// Store сохраняет результаты обработки. Реализация — repo.Store.
type Store interface {
	CreateFlowcellRun(ctx context.Context, run *domain.FlowcellRun) error
	UpdateFlowcellRun(ctx context.Context, run *domain.FlowcellRun) error
	SaveSampleRuns(ctx context.Context, runs []domain.SampleRun) error
}

// Notifier публикует события завершения. Реализация — mq.Notifier.
type Notifier interface {
	SampleCompleted(ctx context.Context, run *domain.FlowcellRun, sample *domain.SampleRun) error
	FlowcellCompleted(ctx context.Context, run *domain.FlowcellRun) error
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Dispatcher (обязательно).
	Dispatcher Dispatcher

	// Annotator — nil отключает аннотацию.
	Annotator annotation.Annotator

	// Organisms — организмы, допущенные к аннотации (default: annotation.DefaultOrganisms).
	Organisms []string

	// CoresPerSample и MemoryPerSampleGB переопределяют таблицу ресурсов.
	CoresPerSample    int
	MemoryPerSampleGB int

	// StaggerDelay — пауза между запусками образцов (default: 2s, < 0 — без паузы).
	StaggerDelay time.Duration

	// CPUs — число CPU для расчёта воркеров аннотации (default: runtime.NumCPU()).
	CPUs int

	// Store и Notifier — опциональны.
	Store    Store
	Notifier Notifier

	// Logger
	Logger *slog.Logger
}

// Orchestrator обрабатывает батчи образцов.
type Orchestrator struct {
	cfg       Config
	dispatch  Dispatcher
	annotator annotation.Annotator
	eligible  func(*domain.Sample) bool
	stagger   time.Duration
	cpus      int
	store     Store
	notifier  Notifier
	logger    *slog.Logger
}

// New создаёт Orchestrator.
func New(cfg Config) *Orchestrator {
	stagger := cfg.StaggerDelay
	switch {
	case stagger == 0:
		stagger = defaultStaggerDelay
	case stagger < 0:
		stagger = 0
	}

	cpus := cfg.CPUs
	if cpus <= 0 {
		cpus = runtime.NumCPU()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		cfg:       cfg,
		dispatch:  cfg.Dispatcher,
		annotator: cfg.Annotator,
		eligible:  annotation.Eligible(cfg.Organisms),
		stagger:   stagger,
		cpus:      cpus,
		store:     cfg.Store,
		notifier:  cfg.Notifier,
		logger:    logger,
	}
}

// ProcessFlowcell обрабатывает батч образцов.
//
// Заполняет RemotePath образцов, для которых известно место назначения.
// Ошибки образцов попадают в Report, а не в возвращаемую ошибку.
func (o *Orchestrator) ProcessFlowcell(ctx context.Context, samples []domain.Sample) (*Report, error) {
	// INIT
	if len(samples) == 0 {
		return nil, ErrEmptyBatch
	}

	batch := domain.Summarize(samples)
	run := domain.NewFlowcellRun(batch.Flowcells[0], len(samples))
	logger := telemetry.WithRunID(telemetry.WithFlowcell(o.logger, run.Flowcell), run.ID.String())

	// RESOURCE_ALLOCATED
	budget, err := o.allocate(len(samples))
	if err != nil {
		return nil, err
	}
	run.Budget = budget
	run.Phase = domain.PhaseResourceAllocated
	totalCores, totalMemory := budget.Totals(len(samples))

	logger.Info("flowcell processing started",
		"flowcells", batch.Flowcells,
		"samples", batch.Size,
		"organisms", batch.Organisms,
		"chemistries", batch.Chemistries,
		"tissues", batch.Tissues,
		"total_cores", totalCores,
		"total_memory_gb", totalMemory,
		"cores_per_sample", budget.CoresPerSample,
		"memory_per_sample_gb", budget.MemoryPerSampleGB,
	)

	run.MarkRunning()
	o.createRun(ctx, run, logger)

	state := NewBatchState(samples)
	defer func() {
		if err := state.Close(); err != nil {
			logger.Warn("failed to close sample logs", "error", err)
		}
	}()

	// DISPATCHING
	run.Phase = domain.PhaseDispatching
	o.dispatchAll(ctx, samples, batch, budget, state, logger)

	// WAITING
	run.Phase = domain.PhaseWaiting
	o.waitAll(state, logger)

	cancelled := ctx.Err()
	if cancelled != nil {
		n := state.MarkNotDispatched(cancelled)
		logger.Warn("flowcell batch cancelled", "not_dispatched", n)
	}

	// ANNOTATING
	if cancelled == nil {
		o.annotateAll(ctx, samples, state, run, logger)
	}

	// DONE
	if err := state.Close(); err != nil {
		logger.Warn("failed to close sample logs", "error", err)
	}

	tally := state.Tally()
	run.Processed = tally.Processed
	run.Failed = tally.Failed
	run.Skipped = tally.Skipped
	run.Annotated = tally.Annotated
	run.AnnotationFailed = tally.AnnotationFailed

	if cancelled != nil {
		run.MarkFailed(fmt.Sprintf("cancelled: %v", cancelled))
	} else {
		run.MarkFinished()
	}

	report := newReport(run, batch, totalCores, totalMemory, state.SampleRuns(run.ID))
	o.finish(ctx, run, report, logger)

	logger.Info("flowcell processing complete",
		"status", run.Status,
		"processed", report.Processed,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"annotated", report.Annotated,
		"annotation_failed", report.AnnotationFailed,
		"duration", run.Duration(),
	)

	if cancelled != nil {
		return report, fmt.Errorf("%w: %w", ErrBatchCancelled, cancelled)
	}
	return report, nil
}

// dispatchAll запускает образцы по порядку run sheet с паузой между запусками.
func (o *Orchestrator) dispatchAll(ctx context.Context, samples []domain.Sample, batch domain.BatchInfo, budget domain.ResourceBudget, state *BatchState, logger *slog.Logger) {
	dispatcher := &stage.Stage[int]{
		Name:  "dispatch",
		Limit: 1,
		Pace:  o.stagger,
		Run: func(ctx context.Context, pos int) error {
			sample := &samples[pos]
			sampleLogger := telemetry.WithSample(logger, sample.SampleID)

			if err := sample.Validate(); err != nil {
				state.Record(pos, &dispatch.Result{Status: domain.SampleStatusFailed, Err: err})
				sampleLogger.Error("invalid sample row", "error", err)
				return err
			}

			res := o.dispatch.Dispatch(ctx, sample, batch, budget)
			state.Record(pos, res)

			switch res.Status {
			case domain.SampleStatusRunning:
				sampleLogger.Info("sample started", "log", res.LogPath)
			case domain.SampleStatusSkipped:
				sampleLogger.Info("sample already complete", "remote_dir", res.RemoteDir)
			default:
				sampleLogger.Error("sample dispatch failed", "error", res.Err)
				return res.Err
			}
			return nil
		},
	}

	out := dispatcher.Execute(ctx, state.Positions())
	logger.Debug("dispatch finished", "started", out.Started, "failed", out.Failed())
}

// waitAll ждёт все запущенные процессы в порядке запуска.
func (o *Orchestrator) waitAll(state *BatchState, logger *slog.Logger) {
	for _, pos := range state.Started() {
		res := state.Process(pos)
		code, err := res.Wait()
		state.Finish(pos, code, err)

		sampleLogger := telemetry.WithSample(logger, state.entries[pos].Sample.SampleID)
		switch {
		case err != nil:
			sampleLogger.Error("failed to wait for process", "error", err)
		case code != 0:
			sampleLogger.Error("process failed", "exit_code", code, "log", res.LogPath)
		default:
			sampleLogger.Info("process completed successfully")
		}
	}
}

// annotateAll аннотирует допущенные образцы.
//
// Допускаются все RNA образцы с поддерживаемым организмом, независимо
// от итога инструмента: отсутствие входа станет неуспехом аннотации.
func (o *Orchestrator) annotateAll(ctx context.Context, samples []domain.Sample, state *BatchState, run *domain.FlowcellRun, logger *slog.Logger) {
	if o.annotator == nil {
		return
	}

	annotator := &stage.Stage[int]{
		Name:   "annotate",
		Filter: func(pos int) bool { return o.eligible(&samples[pos]) },
		Run: func(ctx context.Context, pos int) error {
			task := domain.NewAnnotationTask(&samples[pos])
			res := o.annotator.Annotate(ctx, task, state.Bundle(pos))
			res.SampleID = task.SampleID

			if err := state.Annotated(pos, res); err != nil {
				logger.Warn("failed to write annotation log", "sample_id", task.SampleID, "error", err)
			}
			telemetry.AnnotationsTotal.WithLabelValues(telemetry.AnnotationLabel(res.Success)).Inc()

			if !res.Success {
				logger.Warn("annotation failed", "sample_id", task.SampleID, "message", res.Message)
				return fmt.Errorf("%w: %s", ErrAnnotationFailed, task.SampleID)
			}
			logger.Info("annotation completed", "sample_id", task.SampleID)
			return nil
		},
	}

	tasks := annotator.Select(state.Positions())
	if len(tasks) == 0 {
		logger.Info("no samples eligible for annotation")
		return
	}

	run.Phase = domain.PhaseAnnotating
	annotator.Limit = stage.WorkerLimit(len(tasks), o.cpus, stage.DefaultCap)
	logger.Info("annotation started", "tasks", len(tasks), "workers", annotator.Limit)

	out := annotator.Execute(ctx, tasks)

	// Паника внутри задачи не дошла до state.Annotated
	for i, err := range out.Errors {
		if errors.Is(err, stage.ErrPanic) {
			pos := out.Accepted[i]
			res := domain.AnnotationResult{SampleID: samples[pos].SampleID, Message: err.Error()}
			if err := state.Annotated(pos, res); err != nil {
				logger.Warn("failed to write annotation log", "sample_id", res.SampleID, "error", err)
			}
			telemetry.AnnotationsTotal.WithLabelValues(telemetry.AnnotationLabel(false)).Inc()
			logger.Error("annotation panicked", "sample_id", res.SampleID, "error", err)
		}
	}

	logger.Info("annotation finished",
		"successful", len(out.Accepted)-out.Failed(),
		"failed", out.Failed(),
	)
}

// createRun сохраняет запись запуска. Ошибка хранилища не прерывает обработку.
func (o *Orchestrator) createRun(ctx context.Context, run *domain.FlowcellRun, logger *slog.Logger) {
	if o.store == nil {
		return
	}
	if err := o.store.CreateFlowcellRun(ctx, run); err != nil {
		logger.Warn("failed to store flowcell run", "error", err)
	}
}

// finish сохраняет результаты, публикует события и обновляет метрики.
func (o *Orchestrator) finish(ctx context.Context, run *domain.FlowcellRun, report *Report, logger *slog.Logger) {
	// Результаты сохраняются и после отмены батча
	ctx = context.WithoutCancel(ctx)

	if o.store != nil {
		if err := o.store.UpdateFlowcellRun(ctx, run); err != nil {
			logger.Warn("failed to update flowcell run", "error", err)
		}
		if err := o.store.SaveSampleRuns(ctx, report.Samples); err != nil {
			logger.Warn("failed to store sample runs", "error", err)
		}
	}

	if o.notifier != nil {
		for i := range report.Samples {
			if err := o.notifier.SampleCompleted(ctx, run, &report.Samples[i]); err != nil {
				logger.Warn("failed to publish sample.completed", "sample_id", report.Samples[i].SampleID, "error", err)
			}
		}
		if err := o.notifier.FlowcellCompleted(ctx, run); err != nil {
			logger.Warn("failed to publish flowcell.completed", "error", err)
		}
	}

	for i := range report.Samples {
		telemetry.SamplesTotal.WithLabelValues(string(report.Samples[i].Status)).Inc()
	}
	telemetry.FlowcellsTotal.WithLabelValues(string(run.Status)).Inc()
	telemetry.FlowcellDuration.Observe(run.Duration().Seconds())
}
