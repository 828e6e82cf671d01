package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shaiso/scauto/internal/commands"
	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/paths"
)

// Result — итог диспетчеризации одного образца.
type Result struct {
	// Process — запущенный процесс. nil для SKIPPED и FAILED.
	// У FAILED пустой Bundle означает, что пути образца не разрешились.
	Process Process

	// Log — открытый лог образца. nil только для FAILED.
	Log *os.File

	// LogPath — путь лога.
	LogPath string

	// RemoteDir — директория назначения в удалённом хранилище.
	RemoteDir string

	// Bundle — пути образца после правил смешивания.
	Bundle domain.DirectoryBundle

	// Command — запущенная команда (для логов).
	Command *commands.Command

	// Status — RUNNING, SKIPPED или FAILED.
	Status domain.SampleStatus

	// Err — причина FAILED.
	Err error

	cancel context.CancelFunc
}

// Wait ждёт процесс и освобождает таймаут образца.
// Для результата без процесса возвращает -1.
func (r *Result) Wait() (int, error) {
	if r.Process == nil {
		return -1, nil
	}
	defer r.release()
	return r.Process.Wait()
}

func (r *Result) release() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Config — конфигурация Dispatcher.
type Config struct {
	// Tables — таблицы путей (обязательно).
	Tables *paths.Tables

	// Roots — корневые директории.
	Roots paths.Roots

	// Registry — построители команд (default: commands.DefaultRegistry()).
	Registry *commands.Registry

	// Launcher (default: ExecLauncher).
	Launcher Launcher

	// SampleTimeout — лимит времени процесса образца (0 — без лимита).
	SampleTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// Dispatcher запускает образцы.
type Dispatcher struct {
	tables   *paths.Tables
	roots    paths.Roots
	registry *commands.Registry
	launcher Launcher
	timeout  time.Duration
	logger   *slog.Logger
}

// New создаёт Dispatcher.
func New(cfg Config) *Dispatcher {
	registry := cfg.Registry
	if registry == nil {
		registry = commands.DefaultRegistry()
	}

	launcher := cfg.Launcher
	if launcher == nil {
		launcher = &ExecLauncher{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		tables:   cfg.Tables,
		roots:    cfg.Roots,
		registry: registry,
		launcher: launcher,
		timeout:  cfg.SampleTimeout,
		logger:   logger,
	}
}

// Resolve вычисляет пути образца с учётом состава батча.
func (d *Dispatcher) Resolve(sample *domain.Sample, batch domain.BatchInfo) (domain.DirectoryBundle, error) {
	bundle, err := d.tables.Resolve(sample.Chemistry, sample.Reference, d.roots)
	if err != nil {
		return bundle, fmt.Errorf("%w: %w", ErrResolvePaths, err)
	}

	// RNA SeekGene в батче с VDJ пишет в директории VDJ
	if batch.HasVDJ() && sample.Chemistry.SharesVDJPipeline() {
		bundle, err = d.tables.RedirectTo(bundle, domain.ChemistrySeekGeneVDJ, d.roots)
		if err != nil {
			return bundle, fmt.Errorf("%w: %w", ErrResolvePaths, err)
		}
	}
	return bundle, nil
}

// Request собирает аргументы построителя команды.
func (d *Dispatcher) Request(sample *domain.Sample, batch domain.BatchInfo, bundle domain.DirectoryBundle, budget domain.ResourceBudget) *commands.Request {
	req := &commands.Request{
		SampleID:  sample.SampleID,
		Flowcell:  sample.Flowcell,
		RefDir:    bundle.RefDir,
		ToolDir:   bundle.ToolDir,
		ResultDir: bundle.ResultDir,
		DataDir:   bundle.DataDir,
		Cores:     budget.CoresPerSample,
	}

	if sample.Chemistry.IsSpatial() {
		req.ProbeSet = bundle.ProbeSet
		req.Image = sample.Image
		req.Area = sample.Area
		req.Slide = sample.Slide
	}
	if batch.HasVDJ() {
		req.ChemistryCode = commands.ChemistryCodeVDJ
		if sample.Chemistry.IsVDJ() {
			req.Chain = sample.VDJType
		}
	}
	if sample.Chemistry.IsTenX() {
		req.MemoryGB = budget.MemoryPerSampleGB
	}
	return req
}

// Dispatch запускает внешний инструмент для образца.
//
// Никогда не возвращает nil и не паникует наружу.
func (d *Dispatcher) Dispatch(ctx context.Context, sample *domain.Sample, batch domain.BatchInfo, budget domain.ResourceBudget) (res *Result) {
	logger := d.logger.With("sample_id", sample.SampleID, "flowcell", sample.Flowcell)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("dispatch panicked", "panic", r)
			res = failed(fmt.Errorf("dispatch panic: %v", r))
		}
	}()

	bundle, err := d.Resolve(sample, batch)
	if err != nil {
		logger.Error("failed to resolve sample paths", "error", err)
		return failed(err)
	}

	flowcellDir := filepath.Join(bundle.ResultDir, sample.Flowcell)

	// Идемпотентность: маркер финального отчёта уже есть
	done, err := d.isComplete(sample, bundle)
	if err != nil {
		logger.Error("failed to check existing results", "error", err)
		return failedWith(bundle, err)
	}
	if done {
		logPath := filepath.Join(flowcellDir, sample.SampleID+"_ann.log")
		log, err := os.Create(logPath)
		if err != nil {
			logger.Error("failed to open annotation log", "error", err)
			return failedWith(bundle, err)
		}
		logger.Info("results already exist, skipping", "result_dir", flowcellDir)
		return &Result{
			Log:       log,
			LogPath:   logPath,
			RemoteDir: bundle.RemoteDir,
			Bundle:    bundle,
			Status:    domain.SampleStatusSkipped,
		}
	}

	builder, err := d.registry.Resolve(sample.Chemistry)
	if err != nil {
		logger.Error("no command builder", "chemistry", sample.Chemistry, "error", err)
		return failedWith(bundle, err)
	}

	if err := os.MkdirAll(flowcellDir, 0o755); err != nil {
		logger.Error("failed to create result dir", "dir", flowcellDir, "error", err)
		return failedWith(bundle, err)
	}

	cmd, err := builder.Build(d.Request(sample, batch, bundle, budget))
	if err != nil {
		logger.Error("failed to build command", "chemistry", sample.Chemistry, "error", err)
		return failedWith(bundle, fmt.Errorf("%w: %w", ErrBuildCommand, err))
	}

	log, err := os.Create(cmd.LogPath)
	if err != nil {
		logger.Error("failed to open sample log", "path", cmd.LogPath, "error", err)
		return failedWith(bundle, err)
	}

	runCtx, cancel := ctx, context.CancelFunc(nil)
	if d.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
	}

	proc, err := d.launcher.Launch(runCtx, cmd.Args, flowcellDir, log)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		_ = log.Close()
		logger.Error("failed to start process", "command", cmd.Name(), "error", err)
		return failedWith(bundle, err)
	}

	logger.Info("process started",
		"pid", proc.Pid(),
		"chemistry", sample.Chemistry,
		"log", cmd.LogPath,
	)
	logger.Debug("process command", "command", cmd.String())

	return &Result{
		Process:   proc,
		Log:       log,
		LogPath:   cmd.LogPath,
		RemoteDir: bundle.RemoteDir,
		Bundle:    bundle,
		Command:   cmd,
		Status:    domain.SampleStatusRunning,
		cancel:    cancel,
	}
}

// isComplete ищет <result>/<flowcell>/<sample>*/*<postfix>.
func (d *Dispatcher) isComplete(sample *domain.Sample, bundle domain.DirectoryBundle) (bool, error) {
	if bundle.Postfix == "" {
		return false, nil
	}
	pattern := filepath.Join(bundle.ResultDir, sample.Flowcell, sample.SampleID+"*", "*"+bundle.Postfix)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return false, fmt.Errorf("glob %s: %w", pattern, err)
	}
	return len(matches) > 0, nil
}

func failed(err error) *Result {
	return &Result{Status: domain.SampleStatusFailed, Err: err}
}

// failedWith — отказ после разрешения путей: bundle и назначение сохраняются.
func failedWith(bundle domain.DirectoryBundle, err error) *Result {
	return &Result{
		RemoteDir: bundle.RemoteDir,
		Bundle:    bundle,
		Status:    domain.SampleStatusFailed,
		Err:       err,
	}
}
