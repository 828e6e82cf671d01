package commands

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/scauto/internal/domain"
)

// Registry — реестр построителей команд по chemistry.
//
// Одна chemistry — ровно один Builder. Потокобезопасен.
type Registry struct {
	mu       sync.RWMutex
	builders map[domain.Chemistry]Builder
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[domain.Chemistry]Builder),
	}
}

// DefaultRegistry создаёт реестр со всеми стандартными построителями.
func DefaultRegistry() *Registry {
	return mustRegister(NewRegistry(),
		&TenXRNABuilder{},
		&TenXATACBuilder{},
		&VisiumFFPEBuilder{},
		&SeekGeneRNABuilder{},
		&SeekGeneVDJBuilder{},
		&SeekGeneFullRNABuilder{},
	)
}

// mustRegister паникует на дубле chemistry: это ошибка сборки набора, а не входных данных.
func mustRegister(r *Registry, builders ...Builder) *Registry {
	for _, b := range builders {
		if err := r.Register(b); err != nil {
			panic(err)
		}
	}
	return r
}

// Register регистрирует Builder.
// Возвращает ErrDuplicateBuilder, если chemistry уже занята.
func (r *Registry) Register(b Builder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chem := b.Chemistry()
	if _, exists := r.builders[chem]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBuilder, chem)
	}
	r.builders[chem] = b
	return nil
}

// Resolve возвращает Builder для chemistry.
func (r *Registry) Resolve(chem domain.Chemistry) (Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.builders[chem]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoBuilder, chem)
	}
	return b, nil
}

// Build разрешает Builder и строит команду.
func (r *Registry) Build(chem domain.Chemistry, req *Request) (*Command, error) {
	b, err := r.Resolve(chem)
	if err != nil {
		return nil, err
	}
	return b.Build(req)
}

// Validate проверяет, что у каждой из chemistry есть Builder.
// Вызывается при старте.
func (r *Registry) Validate(chems ...domain.Chemistry) error {
	for _, chem := range chems {
		if _, err := r.Resolve(chem); err != nil {
			return err
		}
	}
	return nil
}

// Chemistries возвращает список зарегистрированных chemistry.
func (r *Registry) Chemistries() []domain.Chemistry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chems := make([]domain.Chemistry, 0, len(r.builders))
	for c := range r.builders {
		chems = append(chems, c)
	}
	sort.Slice(chems, func(i, j int) bool { return chems[i] < chems[j] })
	return chems
}
