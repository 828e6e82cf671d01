package stage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerLimit(t *testing.T) {
	tests := []struct {
		tasks, cpus, ceiling int
		want             int
	}{
		{10, 64, DefaultCap, 4},
		{2, 64, DefaultCap, 2},
		{10, 4, DefaultCap, 2},
		{10, 1, DefaultCap, 1},
		{0, 16, DefaultCap, 1},
	}

	for _, tt := range tests {
		if got := WorkerLimit(tt.tasks, tt.cpus, tt.ceiling); got != tt.want {
			t.Errorf("WorkerLimit(%d, %d, %d) = %d, want %d", tt.tasks, tt.cpus, tt.ceiling, got, tt.want)
		}
	}
}

func TestExecute_BoundedParallelism(t *testing.T) {
	var inFlight, peak atomic.Int32

	s := &Stage[int]{
		Name:  "annotate",
		Limit: WorkerLimit(10, 64, DefaultCap),
		Run: func(ctx context.Context, _ int) error {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)
			return nil
		},
	}

	items := make([]int, 10)
	out := s.Execute(context.Background(), items)

	if out.Started != 10 {
		t.Errorf("expected 10 started, got %d", out.Started)
	}
	if p := peak.Load(); p > 4 {
		t.Errorf("expected at most 4 in flight, got %d", p)
	}
	if out.Failed() != 0 {
		t.Errorf("expected no failures, got %d", out.Failed())
	}
}

func TestExecute_FilterAndOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []int

	s := &Stage[int]{
		Name:   "dispatch",
		Filter: func(n int) bool { return n%2 == 0 },
		Run: func(ctx context.Context, n int) error {
			mu.Lock()
			seen = append(seen, n)
			mu.Unlock()
			return nil
		},
	}

	out := s.Execute(context.Background(), []int{1, 2, 3, 4, 5, 6})

	// Limit 1 — порядок запуска совпадает с порядком входа
	want := []int{2, 4, 6}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("position %d: expected %d, got %d", i, want[i], seen[i])
		}
	}
	if len(out.Accepted) != 3 {
		t.Errorf("expected 3 accepted, got %d", len(out.Accepted))
	}
}

func TestExecute_ErrorsIsolated(t *testing.T) {
	boom := errors.New("boom")
	var ran atomic.Int32

	s := &Stage[int]{
		Name:  "annotate",
		Limit: 2,
		Run: func(ctx context.Context, n int) error {
			ran.Add(1)
			switch n {
			case 1:
				return boom
			case 2:
				panic("bad input")
			}
			return nil
		},
	}

	out := s.Execute(context.Background(), []int{0, 1, 2, 3})

	if ran.Load() != 4 {
		t.Errorf("expected all 4 tasks to run, got %d", ran.Load())
	}
	if !errors.Is(out.Errors[1], boom) {
		t.Errorf("expected boom at index 1, got %v", out.Errors[1])
	}
	if !errors.Is(out.Errors[2], ErrPanic) {
		t.Errorf("expected ErrPanic at index 2, got %v", out.Errors[2])
	}
	if out.Failed() != 2 {
		t.Errorf("expected 2 failures, got %d", out.Failed())
	}
}

func TestExecute_PaceAndCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Int32

	s := &Stage[int]{
		Name: "dispatch",
		Pace: 50 * time.Millisecond,
		Run: func(ctx context.Context, n int) error {
			if ran.Add(1) == 2 {
				cancel()
			}
			return nil
		},
	}

	out := s.Execute(ctx, []int{1, 2, 3, 4})

	// После отмены новые задачи не запускаются
	if out.Started != 2 {
		t.Errorf("expected 2 started after cancel, got %d", out.Started)
	}
}
