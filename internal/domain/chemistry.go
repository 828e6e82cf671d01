package domain

import (
	"fmt"
	"strings"
)

// Chemistry — тип секвенирования (протокол подготовки библиотеки + платформа).
//
// Chemistry определяет, какой внешний инструмент и с какими аргументами
// запускается для образца.
type Chemistry string

const (
	// ChemistryTenXRNA — 10x Genomics scRNA (cellranger count).
	ChemistryTenXRNA Chemistry = "SC_TENX_RNA"

	// ChemistryTenXATAC — 10x Genomics scATAC (cellranger-atac count).
	ChemistryTenXATAC Chemistry = "SC_TENX_ATAC"

	// ChemistryTenXVisiumFFPE — 10x Visium FFPE (spaceranger count).
	ChemistryTenXVisiumFFPE Chemistry = "SC_TENX_Visium_FFPE"

	// ChemistrySeekGeneRNA — SeekGene scRNA (seeksoultools rna).
	ChemistrySeekGeneRNA Chemistry = "SC_SeekGene_RNA"

	// ChemistrySeekGeneVDJ — SeekGene scVDJ (seeksoultools vdj).
	ChemistrySeekGeneVDJ Chemistry = "SC_SeekGene_VDJ"

	// ChemistrySeekGeneFullRNA — SeekGene full-length RNA (seeksoultools fast).
	ChemistrySeekGeneFullRNA Chemistry = "SC_SeekGene_FullRNA"
)

// Chemistries возвращает все поддерживаемые chemistry в стабильном порядке.
func Chemistries() []Chemistry {
	return []Chemistry{
		ChemistryTenXRNA,
		ChemistryTenXATAC,
		ChemistryTenXVisiumFFPE,
		ChemistrySeekGeneRNA,
		ChemistrySeekGeneVDJ,
		ChemistrySeekGeneFullRNA,
	}
}

// ParseChemistry парсит строку из run sheet в Chemistry.
func ParseChemistry(s string) (Chemistry, error) {
	s = strings.TrimSpace(s)
	for _, c := range Chemistries() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChemistry, s)
}

// String возвращает строковое представление Chemistry.
func (c Chemistry) String() string {
	return string(c)
}

// IsRNA возвращает true для RNA-семейства (кандидаты на аннотацию).
func (c Chemistry) IsRNA() bool {
	return c == ChemistryTenXRNA || c == ChemistrySeekGeneRNA
}

// IsTenX возвращает true для chemistry семейства 10x (принимают лимит памяти).
func (c Chemistry) IsTenX() bool {
	return strings.Contains(string(c), "TENX")
}

// IsSpatial возвращает true для пространственных chemistry (нужны probe-set и изображение).
func (c Chemistry) IsSpatial() bool {
	return c == ChemistryTenXVisiumFFPE
}

// IsVDJ возвращает true для иммунного репертуара.
func (c Chemistry) IsVDJ() bool {
	return c == ChemistrySeekGeneVDJ
}

// SharesVDJPipeline возвращает true, если chemistry в одном батче с VDJ
// пишет результаты в директории VDJ (общий downstream этап).
func (c Chemistry) SharesVDJPipeline() bool {
	return c == ChemistrySeekGeneRNA
}
