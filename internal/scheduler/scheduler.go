package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/scauto/internal/runsheet"
)

// EnqueueFunc отправляет flowcell на обработку:
// публикует flowcell.pending или обрабатывает его сразу.
type EnqueueFunc func(ctx context.Context, flowcell, sheetPath string) error

// SkipList — flowcell, которые обход пропускает.
type SkipList interface {
	Contains(flowcell string) bool
}

// History — история запусков. Реализация — repo.Store.
type History interface {
	// HasRun — у flowcell есть активный или успешный запуск.
	HasRun(ctx context.Context, flowcell string) (bool, error)
}

// Archive — удалённое хранилище результатов. Реализация — paths.Tables.
type Archive interface {
	Archived(flowcell string) (string, bool)
}

// Config — конфигурация Scheduler.
type Config struct {
	// RunSheetDir — директория <flowcell>-run_sheet.csv (обязательно).
	RunSheetDir string

	// Enqueue (обязательно).
	Enqueue EnqueueFunc

	// SkipList, History и Archive — опциональны.
	SkipList SkipList
	History  History
	Archive  Archive

	// Leader вызывается перед каждым тиком по расписанию; false пропускает тик.
	// nil — процесс всегда лидер.
	Leader func(ctx context.Context) bool

	Logger *slog.Logger
}

// Scheduler обходит директорию run sheet и отправляет новые flowcell на обработку.
type Scheduler struct {
	dir     string
	enqueue EnqueueFunc
	skip    SkipList
	history History
	archive Archive
	leader  func(ctx context.Context) bool
	logger  *slog.Logger
	runner  *cron.Cron

	// enqueued — flowcell, отправленные этим процессом.
	mu       sync.Mutex
	enqueued map[string]bool
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		dir:      cfg.RunSheetDir,
		enqueue:  cfg.Enqueue,
		skip:     cfg.SkipList,
		history:  cfg.History,
		archive:  cfg.Archive,
		leader:   cfg.Leader,
		logger:   logger,
		enqueued: make(map[string]bool),
	}
}

// Candidate — найденный run sheet.
type Candidate struct {
	Flowcell string
	Path     string
}

// Discover возвращает run sheet директории, отсортированные по flowcell.
func (s *Scheduler) Discover() ([]Candidate, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+runsheet.Suffix))
	if err != nil {
		return nil, fmt.Errorf("glob run sheets: %w", err)
	}

	out := make([]Candidate, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		flowcell, err := runsheet.FlowcellFromFilename(path)
		if err != nil {
			continue
		}
		out = append(out, Candidate{Flowcell: flowcell, Path: path})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Flowcell < out[j].Flowcell })
	return out, nil
}

// TickResult — итог одного обхода.
type TickResult struct {
	Found    int
	Enqueued int
	Skipped  int

	// Pending — уже отправлены этим процессом.
	Pending int

	// Done — есть запуск в истории или результаты в удалённом хранилище.
	Done   int
	Failed int
}

// Tick выполняет один обход.
//
// Пропускаются flowcell из skip-листа, уже отправленные этим процессом,
// активные или успешные по истории и уже лежащие в удалённом хранилище.
// Ошибка одного flowcell не блокирует остальные.
func (s *Scheduler) Tick(ctx context.Context) (TickResult, error) {
	var res TickResult

	if s.enqueue == nil {
		return res, ErrNoEnqueuer
	}

	candidates, err := s.Discover()
	if err != nil {
		return res, err
	}
	res.Found = len(candidates)

	for _, c := range candidates {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		if s.skip != nil && s.skip.Contains(c.Flowcell) {
			res.Skipped++
			continue
		}

		if s.isEnqueued(c.Flowcell) {
			res.Pending++
			continue
		}

		if s.history != nil {
			done, err := s.history.HasRun(ctx, c.Flowcell)
			if err != nil {
				s.logger.Warn("failed to check flowcell history", "flowcell", c.Flowcell, "error", err)
				res.Failed++
				continue
			}
			if done {
				res.Done++
				continue
			}
		}

		if s.archive != nil {
			if dir, ok := s.archive.Archived(c.Flowcell); ok {
				s.logger.Debug("flowcell already archived", "flowcell", c.Flowcell, "dir", dir)
				res.Done++
				continue
			}
		}

		if err := s.enqueue(ctx, c.Flowcell, c.Path); err != nil {
			s.logger.Error("failed to enqueue flowcell", "flowcell", c.Flowcell, "error", err)
			res.Failed++
			continue
		}
		s.markEnqueued(c.Flowcell)
		res.Enqueued++
		s.logger.Info("flowcell enqueued", "flowcell", c.Flowcell, "run_sheet", c.Path)
	}

	s.logger.Info("scheduler tick completed",
		"found", res.Found,
		"enqueued", res.Enqueued,
		"skipped", res.Skipped,
		"pending", res.Pending,
		"done", res.Done,
		"failed", res.Failed,
	)

	return res, nil
}

func (s *Scheduler) isEnqueued(flowcell string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enqueued[flowcell]
}

func (s *Scheduler) markEnqueued(flowcell string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued[flowcell] = true
}
