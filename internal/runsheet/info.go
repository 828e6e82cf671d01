package runsheet

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/paths"
)

// InfoRow — строка info sheet лаборатории (источник run sheet).
type InfoRow struct {
	Flowcell    string `csv:"Flowcell"`
	SampleID    string `csv:"Sample_ID"`
	SampleName  string `csv:"Sample_NAME"`
	DescrOrg    string `csv:"Descr_ORG"`
	CheckOrg    string `csv:"Check_ORG"`
	Type        string `csv:"Desct_TYPE"`
	Description string `csv:"Description"`
}

// LoadInfo читает info sheet.
func LoadInfo(path string) ([]InfoRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open info sheet: %w", err)
	}
	defer f.Close()

	var rows []*InfoRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSheet, path, err)
	}

	out := make([]InfoRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	return out, nil
}

// BuildOptions — откуда Build берёт FASTQ и изображения.
type BuildOptions struct {
	Flowcell string
	Tables   *paths.Tables
	Roots    paths.Roots

	// ImageDir — директория изображений Visium.
	ImageDir string
}

// Build собирает run sheet flowcell из info sheet.
//
// Строки других flowcell и неподдерживаемых chemistry отбрасываются,
// повторы Sample_ID схлопываются. У каждого оставшегося образца должны быть
// FASTQ <fastq>/<flowcell>/<sample>_S*.gz, иначе ErrMissingFastq.
// Организм берётся из Descr_ORG, а если он пуст хоть у одной строки, из Check_ORG.
// В батче с SeekGene VDJ chemistry образцов выводится из маркера набора в описании.
func Build(info []InfoRow, opts BuildOptions) ([]domain.Sample, error) {
	if opts.Flowcell == "" {
		return nil, fmt.Errorf("%w: flowcell is required", ErrInvalidRow)
	}
	if opts.Tables == nil {
		return nil, fmt.Errorf("%w: path tables are required", ErrInvalidRow)
	}

	seen := make(map[string]bool)
	var rows []InfoRow
	for _, r := range info {
		r = trimInfo(r)
		if r.Flowcell != opts.Flowcell || r.SampleID == "" || seen[r.SampleID] {
			continue
		}
		if _, err := domain.ParseChemistry(r.Type); err != nil {
			continue
		}
		seen[r.SampleID] = true
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: flowcell %s", ErrEmptySheet, opts.Flowcell)
	}

	var missing []string
	for _, r := range rows {
		ok, err := hasFastq(r, opts)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, r.SampleID)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %d of %d samples: %s",
			ErrMissingFastq, len(missing), len(rows), strings.Join(missing, ", "))
	}

	useCheck := false
	for _, r := range rows {
		if r.DescrOrg == "" {
			useCheck = true
			break
		}
	}

	samples := make([]domain.Sample, 0, len(rows))
	spatial, vdj := false, false
	for _, r := range rows {
		organism := r.DescrOrg
		if useCheck {
			organism = r.CheckOrg
		}
		chem := domain.Chemistry(r.Type)
		spatial = spatial || chem.IsSpatial()
		vdj = vdj || chem == domain.ChemistrySeekGeneVDJ

		samples = append(samples, domain.Sample{
			SampleID:     r.SampleID,
			Flowcell:     r.Flowcell,
			Reference:    OrganismCode(organism),
			OrganismName: organism,
			Chemistry:    chem,
			Tissue:       ExtractTissue(r.Description),
			Description:  r.Description,
		})
	}

	switch {
	case spatial:
		FillSpatial(samples, opts.ImageDir)
	case vdj:
		for i := range samples {
			s := &samples[i]
			s.VDJType = ExtractVDJType(s.Description)
			if chem, ok := ChemistryForVDJType(s.VDJType); ok {
				s.Chemistry = chem
			}
		}
	}

	for i := range samples {
		samples[i].Cmd = string(samples[i].Chemistry)
	}

	if err := Validate(samples); err != nil {
		return nil, err
	}
	return samples, nil
}

func hasFastq(r InfoRow, opts BuildOptions) (bool, error) {
	res, err := opts.Tables.ResultsFor(domain.Chemistry(r.Type))
	if err != nil {
		return false, err
	}
	dir := filepath.Join(opts.Roots.WorkRoot, res.Fastq, r.Flowcell)
	matches, err := filepath.Glob(filepath.Join(dir, r.SampleID+"_S*.gz"))
	if err != nil {
		return false, fmt.Errorf("glob fastq: %w", err)
	}
	return len(matches) > 0, nil
}

func trimInfo(r InfoRow) InfoRow {
	r.Flowcell = strings.TrimSpace(r.Flowcell)
	r.SampleID = strings.TrimSpace(r.SampleID)
	r.DescrOrg = strings.TrimSpace(r.DescrOrg)
	r.CheckOrg = strings.TrimSpace(r.CheckOrg)
	r.Type = strings.TrimSpace(r.Type)
	return r
}
