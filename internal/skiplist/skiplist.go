// Package skiplist хранит flowcell, которые не нужно обрабатывать.
//
// Файл JSON:
//
//	{"skip_flowcells": ["..."], "last_updated": "2006-01-02 15:04:05"}
//
// Упавшие flowcell добавляются в список, чтобы периодический обход
// не перезапускал их бесконечно.
package skiplist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// timeLayout — формат меток времени в файле.
const timeLayout = "2006-01-02 15:04:05"

type file struct {
	SkipFlowcells []string `json:"skip_flowcells"`
	LastUpdated   string   `json:"last_updated"`
	Created       string   `json:"created,omitempty"`
}

// List — skip-лист, связанный с файлом.
type List struct {
	path   string
	logger *slog.Logger

	mu   sync.RWMutex
	data file
}

// Open загружает skip-лист. Отсутствующий файл создаётся пустым.
func Open(path string, logger *slog.Logger) (*List, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &List{path: path, logger: logger}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		now := time.Now().Format(timeLayout)
		l.data = file{SkipFlowcells: []string{}, LastUpdated: now, Created: now}
		if err := l.save(); err != nil {
			return nil, err
		}
		logger.Info("skip list created", "path", path)
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("read skip list: %w", err)
	}

	if err := json.Unmarshal(raw, &l.data); err != nil {
		return nil, fmt.Errorf("parse skip list %s: %w", path, err)
	}
	logger.Debug("skip list loaded", "path", path, "flowcells", len(l.data.SkipFlowcells))
	return l, nil
}

// Contains проверяет, есть ли flowcell в списке.
func (l *List) Contains(flowcell string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Contains(l.data.SkipFlowcells, flowcell)
}

// Flowcells возвращает копию списка.
func (l *List) Flowcells() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.data.SkipFlowcells)
}

// LastUpdated возвращает время последнего изменения.
func (l *List) LastUpdated() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.data.LastUpdated
}

// Add добавляет flowcell и сохраняет файл.
// Возвращает false, если flowcell уже был в списке.
func (l *List) Add(flowcell, reason string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if slices.Contains(l.data.SkipFlowcells, flowcell) {
		return false, nil
	}
	l.data.SkipFlowcells = append(l.data.SkipFlowcells, flowcell)
	l.data.LastUpdated = time.Now().Format(timeLayout)

	if err := l.save(); err != nil {
		return false, err
	}
	l.logger.Info("flowcell added to skip list", "flowcell", flowcell, "reason", reason)
	return true, nil
}

// save пишет файл через временный файл. Вызывается под l.mu.
func (l *List) save() error {
	raw, err := json.MarshalIndent(l.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal skip list: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create skip list dir: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write skip list: %w", err)
	}
	return os.Rename(tmp, l.path)
}
