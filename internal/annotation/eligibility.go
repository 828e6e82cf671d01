package annotation

import (
	"slices"

	"github.com/shaiso/scauto/internal/domain"
)

// DefaultOrganisms — организмы, для которых есть модели аннотации.
var DefaultOrganisms = []string{"GRCh38"}

// Eligible возвращает предикат допуска: RNA chemistry и поддерживаемый организм.
// Пустой organisms означает DefaultOrganisms.
func Eligible(organisms []string) func(*domain.Sample) bool {
	if len(organisms) == 0 {
		organisms = DefaultOrganisms
	}
	return func(s *domain.Sample) bool {
		return s.Chemistry.IsRNA() && slices.Contains(organisms, s.Reference)
	}
}

// Species переводит код референса в имя вида для моделей аннотации.
func Species(organism string) string {
	switch organism {
	case "GRCh38":
		return "human"
	case "MM10":
		return "mouse"
	}
	return ""
}
