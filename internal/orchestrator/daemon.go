package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/shaiso/scauto/internal/archive"
	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/mq"
	"github.com/shaiso/scauto/internal/runsheet"
)

// SkipList — flowcell, которые не нужно обрабатывать. Реализация — skiplist.List.
type SkipList interface {
	Contains(flowcell string) bool
	Add(flowcell, reason string) (bool, error)
}

// Archiver переносит результаты flowcell в удалённое хранилище. Реализация — archive.Archiver.
type Archiver interface {
	Archived(flowcell string) (string, bool)
	Archive(ctx context.Context, flowcell, sheetPath string, samples []domain.Sample) (*archive.Summary, error)
}

// DaemonConfig — конфигурация Daemon.
type DaemonConfig struct {
	// Orchestrator (обязательно).
	Orchestrator *Orchestrator

	// Conn — соединение с RabbitMQ. nil — только прямые вызовы RunFlowcell.
	Conn *mq.Connection

	// RunSheetDir — директория run sheet для сообщений без явного пути.
	RunSheetDir string

	// ImageDir — директория изображений Visium.
	ImageDir string

	// SkipList — опционально. Упавшие flowcell добавляются в него.
	SkipList SkipList

	// Archiver — опционально. Без него результаты остаются в рабочей директории.
	Archiver Archiver

	// Logger
	Logger *slog.Logger
}

// Daemon обрабатывает flowcell целиком: run sheet → батч → обновлённый run sheet.
//
// Потребляет flowcells.pending. Один flowcell не обрабатывается дважды одновременно.
type Daemon struct {
	orch        *Orchestrator
	conn        *mq.Connection
	runSheetDir string
	imageDir    string
	skip        SkipList
	archiver    Archiver
	logger      *slog.Logger

	mu     sync.Mutex
	active map[string]struct{}

	consumer   *mq.Consumer
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	stoppedMu sync.RWMutex
	stopped   bool
}

// NewDaemon создаёт Daemon.
func NewDaemon(cfg DaemonConfig) *Daemon {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Daemon{
		orch:        cfg.Orchestrator,
		conn:        cfg.Conn,
		runSheetDir: cfg.RunSheetDir,
		imageDir:    cfg.ImageDir,
		skip:        cfg.SkipList,
		archiver:    cfg.Archiver,
		logger:      logger,
		active:      make(map[string]struct{}),
	}
}

// Start запускает consumer flowcells.pending.
func (d *Daemon) Start(ctx context.Context) error {
	if d.conn == nil {
		return fmt.Errorf("start daemon: %w", mq.ErrNoChannel)
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancelFunc = cancel

	// Один flowcell за раз: образцы батча уже делят машину между собой
	d.consumer = mq.NewConsumer(d.conn, d.logger, mq.ConsumerConfig{
		Queue:    mq.QueueFlowcellsPending,
		Tag:      "scauto-orchestrator",
		Handler:  d.handleFlowcellPending,
		Prefetch: 1,
	})

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("flowcell consumer error", "error", err)
		}
	}()

	d.logger.Info("daemon started", "queue", mq.QueueFlowcellsPending)
	return nil
}

// Stop останавливает consumer и ждёт текущий flowcell.
// Отмена контекста убивает запущенные процессы.
func (d *Daemon) Stop() {
	d.stoppedMu.Lock()
	d.stopped = true
	d.stoppedMu.Unlock()

	d.logger.Info("stopping daemon...")

	if d.cancelFunc != nil {
		d.cancelFunc()
	}
	if d.consumer != nil {
		d.consumer.Stop()
	}
	d.wg.Wait()

	d.logger.Info("daemon stopped")
}

// IsStopped проверяет, остановлен ли Daemon.
func (d *Daemon) IsStopped() bool {
	d.stoppedMu.RLock()
	defer d.stoppedMu.RUnlock()
	return d.stopped
}

// SheetPath возвращает путь run sheet flowcell в RunSheetDir.
func (d *Daemon) SheetPath(flowcell string) string {
	return filepath.Join(d.runSheetDir, runsheet.Filename(flowcell))
}

// RunFlowcell обрабатывает flowcell по run sheet и записывает обновлённый run sheet.
//
// Пустой sheetPath означает SheetPath(flowcell). Flowcell с упавшими образцами
// добавляется в skip-лист. Если задан Archiver, уже заархивированный flowcell
// не обрабатывается, а успешный архивируется.
func (d *Daemon) RunFlowcell(ctx context.Context, flowcell, sheetPath string) (*Report, error) {
	if d.IsStopped() {
		return nil, ErrOrchestratorStopped
	}
	if d.skip != nil && d.skip.Contains(flowcell) {
		return nil, fmt.Errorf("%w: %s", ErrFlowcellSkipped, flowcell)
	}
	if d.archiver != nil {
		if dir, ok := d.archiver.Archived(flowcell); ok {
			return nil, fmt.Errorf("%w: %s", ErrFlowcellArchived, dir)
		}
	}
	if !d.acquire(flowcell) {
		return nil, fmt.Errorf("%w: %s", ErrFlowcellActive, flowcell)
	}
	defer d.release(flowcell)

	if sheetPath == "" {
		sheetPath = d.SheetPath(flowcell)
	}

	samples, err := runsheet.Load(sheetPath)
	if err != nil {
		return nil, err
	}
	if err := runsheet.Validate(samples); err != nil {
		return nil, err
	}
	if d.imageDir != "" {
		runsheet.FillSpatial(samples, d.imageDir)
	}

	report, procErr := d.orch.ProcessFlowcell(ctx, samples)
	if report == nil {
		return nil, procErr
	}

	if err := runsheet.Save(sheetPath, samples); err != nil {
		d.logger.Warn("failed to save run sheet", "flowcell", flowcell, "path", sheetPath, "error", err)
	}

	if report.Failed > 0 && procErr == nil && d.skip != nil {
		reason := fmt.Sprintf("%d of %d samples failed", report.Failed, len(report.Samples))
		if _, err := d.skip.Add(flowcell, reason); err != nil {
			d.logger.Warn("failed to update skip list", "flowcell", flowcell, "error", err)
		}
	}

	if procErr == nil && report.Failed == 0 && d.archiver != nil {
		summary, err := d.archiver.Archive(ctx, flowcell, sheetPath, samples)
		report.Archive = summary
		if err != nil {
			return report, fmt.Errorf("%w: %w", ErrArchive, err)
		}
	}

	return report, procErr
}

// ActiveFlowcells возвращает flowcell в обработке.
func (d *Daemon) ActiveFlowcells() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, 0, len(d.active))
	for fc := range d.active {
		out = append(out, fc)
	}
	return out
}

func (d *Daemon) acquire(flowcell string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.active[flowcell]; ok {
		return false
	}
	d.active[flowcell] = struct{}{}
	return true
}

func (d *Daemon) release(flowcell string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.active, flowcell)
}
