package orchestrator

import (
	"errors"
	"testing"

	"github.com/shaiso/scauto/internal/domain"
)

func TestAllocateResources(t *testing.T) {
	tests := []struct {
		n          int
		cores, mem int
		totalCores int
		totalMem   int
	}{
		{1, 40, 800, 40, 800},
		{2, 20, 300, 40, 600},
		{3, 20, 300, 60, 900},
		{4, 20, 200, 80, 800},
		{7, 20, 200, 140, 1400},
		{8, 15, 200, 120, 1600},
		{11, 15, 200, 165, 2200},
		{12, 10, 100, 120, 1200},
		{15, 10, 100, 150, 1500},
		{16, 7, 70, 112, 1120},
		{100, 7, 70, 700, 7000},
	}

	for _, tt := range tests {
		budget, err := AllocateResources(tt.n)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", tt.n, err)
		}
		want := domain.ResourceBudget{CoresPerSample: tt.cores, MemoryPerSampleGB: tt.mem}
		if budget != want {
			t.Errorf("n=%d: expected %+v, got %+v", tt.n, want, budget)
		}
		cores, mem := budget.Totals(tt.n)
		if cores != tt.totalCores || mem != tt.totalMem {
			t.Errorf("n=%d: expected totals (%d, %d), got (%d, %d)", tt.n, tt.totalCores, tt.totalMem, cores, mem)
		}
	}
}

func TestAllocateResources_Monotonic(t *testing.T) {
	// Больше образцов — не больше ресурсов на образец
	prev, _ := AllocateResources(1)
	for n := 2; n <= 64; n++ {
		budget, err := AllocateResources(n)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if budget.CoresPerSample > prev.CoresPerSample || budget.MemoryPerSampleGB > prev.MemoryPerSampleGB {
			t.Errorf("n=%d: budget %+v grew over %+v", n, budget, prev)
		}
		prev = budget
	}
}

func TestAllocateResources_Empty(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := AllocateResources(n); !errors.Is(err, ErrEmptyBatch) {
			t.Errorf("n=%d: expected ErrEmptyBatch, got %v", n, err)
		}
	}
}

func TestTotals_Floors(t *testing.T) {
	budget := domain.ResourceBudget{CoresPerSample: 1, MemoryPerSampleGB: 5}

	cores, mem := budget.Totals(2)
	if cores != domain.MinTotalCores {
		t.Errorf("expected cores floor %d, got %d", domain.MinTotalCores, cores)
	}
	if mem != domain.MinTotalMemoryGB {
		t.Errorf("expected memory floor %d, got %d", domain.MinTotalMemoryGB, mem)
	}
}
