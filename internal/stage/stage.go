package stage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrPanic — задача завершилась паникой.
var ErrPanic = errors.New("stage task panicked")

// DefaultCap — верхняя граница числа воркеров.
const DefaultCap = 4

// Stage — этап обработки элементов типа T.
type Stage[T any] struct {
	// Name — имя этапа для логов.
	Name string

	// Filter — предикат допуска. nil — допускаются все элементы.
	Filter func(T) bool

	// Limit — максимум одновременно выполняющихся задач (default: 1).
	Limit int

	// Pace — пауза между запусками соседних задач.
	Pace time.Duration

	// Run выполняет одну задачу.
	Run func(ctx context.Context, item T) error
}

// Outcome — итог этапа.
type Outcome[T any] struct {
	// Accepted — элементы, прошедшие фильтр, в исходном порядке.
	Accepted []T

	// Started — число запущенных задач.
	Started int

	// Errors — ошибки задач по индексу в Accepted.
	Errors map[int]error
}

// Failed возвращает число упавших задач.
func (o *Outcome[T]) Failed() int {
	return len(o.Errors)
}

// Select возвращает элементы, прошедшие фильтр.
func (s *Stage[T]) Select(items []T) []T {
	if s.Filter == nil {
		return append([]T(nil), items...)
	}
	accepted := make([]T, 0, len(items))
	for _, item := range items {
		if s.Filter(item) {
			accepted = append(accepted, item)
		}
	}
	return accepted
}

// Execute прогоняет элементы через этап.
//
// Задачи запускаются в порядке items. Не больше Limit задач выполняются
// одновременно. Отмена ctx прекращает запуск новых задач, уже
// запущенные получают отменённый ctx.
func (s *Stage[T]) Execute(ctx context.Context, items []T) *Outcome[T] {
	out := &Outcome[T]{
		Accepted: s.Select(items),
		Errors:   make(map[int]error),
	}

	limit := s.Limit
	if limit <= 0 {
		limit = 1
	}

	// errgroup без WithContext: ошибка одной задачи не отменяет соседей
	var g errgroup.Group
	g.SetLimit(limit)

	var mu sync.Mutex
	record := func(i int, err error) {
		mu.Lock()
		out.Errors[i] = err
		mu.Unlock()
	}

	for i, item := range out.Accepted {
		if i > 0 && s.Pace > 0 {
			if !sleep(ctx, s.Pace) {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := s.runOne(ctx, item); err != nil {
				record(i, err)
			}
			return nil
		})
		out.Started++
	}

	_ = g.Wait()
	return out
}

// runOne выполняет задачу, превращая панику в ошибку.
func (s *Stage[T]) runOne(ctx context.Context, item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrPanic, s.Name, r)
		}
	}()
	return s.Run(ctx, item)
}

// WorkerLimit вычисляет число воркеров: min(tasks, cpus/2, ceiling), но не меньше 1.
func WorkerLimit(tasks, cpus, ceiling int) int {
	return max(1, min(tasks, cpus/2, ceiling))
}

// sleep ждёт d или отмены ctx. Возвращает false при отмене.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
