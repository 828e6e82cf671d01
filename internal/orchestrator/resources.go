package orchestrator

import (
	"fmt"

	"github.com/shaiso/scauto/internal/domain"
)

// resourceStep — ступень таблицы ресурсов: от minSamples образцов и больше.
type resourceStep struct {
	minSamples int
	budget     domain.ResourceBudget
}

// resourceTable просматривается сверху вниз, пороги включительные.
var resourceTable = []resourceStep{
	{16, domain.ResourceBudget{CoresPerSample: 7, MemoryPerSampleGB: 70}},
	{12, domain.ResourceBudget{CoresPerSample: 10, MemoryPerSampleGB: 100}},
	{8, domain.ResourceBudget{CoresPerSample: 15, MemoryPerSampleGB: 200}},
	{4, domain.ResourceBudget{CoresPerSample: 20, MemoryPerSampleGB: 200}},
	{2, domain.ResourceBudget{CoresPerSample: 20, MemoryPerSampleGB: 300}},
	{1, domain.ResourceBudget{CoresPerSample: 40, MemoryPerSampleGB: 800}},
}

// AllocateResources выбирает ресурсы на образец по размеру батча.
// Бюджет одинаков для всех образцов батча.
func AllocateResources(n int) (domain.ResourceBudget, error) {
	if n <= 0 {
		return domain.ResourceBudget{}, fmt.Errorf("%w: %d samples", ErrEmptyBatch, n)
	}
	for _, step := range resourceTable {
		if n >= step.minSamples {
			return step.budget, nil
		}
	}
	// Недостижимо: последняя ступень покрывает n >= 1
	return resourceTable[len(resourceTable)-1].budget, nil
}

// allocate учитывает явное переопределение из Config.
func (o *Orchestrator) allocate(n int) (domain.ResourceBudget, error) {
	budget, err := AllocateResources(n)
	if err != nil {
		return budget, err
	}
	if o.cfg.CoresPerSample > 0 {
		budget.CoresPerSample = o.cfg.CoresPerSample
	}
	if o.cfg.MemoryPerSampleGB > 0 {
		budget.MemoryPerSampleGB = o.cfg.MemoryPerSampleGB
	}
	return budget, nil
}
