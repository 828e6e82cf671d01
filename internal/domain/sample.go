package domain

import (
	"fmt"
	"sort"
)

// Sample — одна строка run sheet (один биологический образец внутри flowcell).
//
// Sample создаётся upstream-построителем run sheet, читается оркестратором
// и дополняется RemotePath, когда становится известно место архивации.
type Sample struct {
	// SampleID — идентификатор образца (префикс имён FASTQ).
	SampleID string `json:"sample_id"`

	// Flowcell — идентификатор flowcell.
	Flowcell string `json:"flowcell"`

	// Reference — код организма для выбора референса (GRCh38, MM10, MacMul).
	Reference string `json:"reference"`

	// OrganismName — человекочитаемое имя организма (human, mouse).
	OrganismName string `json:"organism_name,omitempty"`

	// Chemistry — тип секвенирования.
	Chemistry Chemistry `json:"chemistry"`

	// Cmd — ключ построителя команды из run sheet (информационное поле,
	// разрешение идёт по Chemistry).
	Cmd string `json:"cmd,omitempty"`

	// Tissue — описание ткани (PBMC;cells, PBMC;nuclei, ...).
	Tissue string `json:"tissue,omitempty"`

	// Description — свободный текст из исходного листа.
	Description string `json:"description,omitempty"`

	// Image, Slide, Area — метаданные изображения для пространственных chemistry.
	Image string `json:"image,omitempty"`
	Slide string `json:"slide,omitempty"`
	Area  string `json:"area,omitempty"`

	// VDJType — тип цепи для VDJ (TR, IG, 5).
	VDJType string `json:"vdj_type,omitempty"`

	// RemotePath — директория в удалённом хранилище, заполняется оркестратором.
	RemotePath string `json:"remote_path,omitempty"`
}

// Validate проверяет обязательные поля строки.
func (s *Sample) Validate() error {
	if s.SampleID == "" {
		return fmt.Errorf("%w: empty sample id", ErrInvalidSample)
	}
	if s.Flowcell == "" {
		return fmt.Errorf("%w: sample %s has no flowcell", ErrInvalidSample, s.SampleID)
	}
	if _, err := ParseChemistry(string(s.Chemistry)); err != nil {
		return fmt.Errorf("%w: sample %s: %v", ErrInvalidSample, s.SampleID, err)
	}
	return nil
}

// BatchInfo — сводка по батчу образцов одного запуска.
type BatchInfo struct {
	Flowcells   []string
	Organisms   []string
	Chemistries []Chemistry
	Tissues     []string
	Size        int
}

// Summarize собирает уникальные значения батча (для логирования и правил смешивания chemistry).
func Summarize(samples []Sample) BatchInfo {
	info := BatchInfo{Size: len(samples)}
	seenFC := make(map[string]bool)
	seenOrg := make(map[string]bool)
	seenChem := make(map[Chemistry]bool)
	seenTissue := make(map[string]bool)

	for _, s := range samples {
		if !seenFC[s.Flowcell] {
			seenFC[s.Flowcell] = true
			info.Flowcells = append(info.Flowcells, s.Flowcell)
		}
		if !seenOrg[s.Reference] {
			seenOrg[s.Reference] = true
			info.Organisms = append(info.Organisms, s.Reference)
		}
		if !seenChem[s.Chemistry] {
			seenChem[s.Chemistry] = true
			info.Chemistries = append(info.Chemistries, s.Chemistry)
		}
		if s.Tissue != "" && !seenTissue[s.Tissue] {
			seenTissue[s.Tissue] = true
			info.Tissues = append(info.Tissues, s.Tissue)
		}
	}
	sort.Strings(info.Tissues)
	return info
}

// HasChemistry проверяет, есть ли в батче образцы данной chemistry.
func (b BatchInfo) HasChemistry(c Chemistry) bool {
	for _, bc := range b.Chemistries {
		if bc == c {
			return true
		}
	}
	return false
}

// HasVDJ возвращает true, если в батче есть VDJ образцы.
func (b BatchInfo) HasVDJ() bool {
	return b.HasChemistry(ChemistrySeekGeneVDJ)
}
