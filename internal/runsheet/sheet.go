package runsheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/shaiso/scauto/internal/domain"
)

// Suffix — окончание имени файла run sheet.
const Suffix = "-run_sheet.csv"

// row — строка CSV. Порядок полей задаёт порядок колонок при записи.
type row struct {
	Flowcell     string `csv:"Flowcell"`
	SampleID     string `csv:"Sample_ID"`
	Reference    string `csv:"Reference"`
	OrganismName string `csv:"Organism_name"`
	SEQtype      string `csv:"SEQtype"`
	Cmd          string `csv:"Cmd"`
	Tissue       string `csv:"Tissue"`
	Description  string `csv:"Description"`
	Img          string `csv:"Img"`
	Slide        string `csv:"Slide"`
	Area         string `csv:"Area"`
	VDJType      string `csv:"VDJ_type"`
	CephPath     string `csv:"Ceph_Path"`
}

func (r *row) sample() domain.Sample {
	return domain.Sample{
		SampleID:     strings.TrimSpace(r.SampleID),
		Flowcell:     strings.TrimSpace(r.Flowcell),
		Reference:    strings.TrimSpace(r.Reference),
		OrganismName: r.OrganismName,
		Chemistry:    domain.Chemistry(strings.TrimSpace(r.SEQtype)),
		Cmd:          r.Cmd,
		Tissue:       r.Tissue,
		Description:  r.Description,
		Image:        r.Img,
		Slide:        r.Slide,
		Area:         r.Area,
		VDJType:      r.VDJType,
		RemotePath:   r.CephPath,
	}
}

func fromSample(s *domain.Sample) *row {
	return &row{
		Flowcell:     s.Flowcell,
		SampleID:     s.SampleID,
		Reference:    s.Reference,
		OrganismName: s.OrganismName,
		SEQtype:      string(s.Chemistry),
		Cmd:          s.Cmd,
		Tissue:       s.Tissue,
		Description:  s.Description,
		Img:          s.Image,
		Slide:        s.Slide,
		Area:         s.Area,
		VDJType:      s.VDJType,
		CephPath:     s.RemotePath,
	}
}

// Load читает run sheet.
func Load(path string) ([]domain.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run sheet: %w", err)
	}
	defer f.Close()

	var rows []*row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSheet, path, err)
	}

	samples := make([]domain.Sample, 0, len(rows))
	for _, r := range rows {
		samples = append(samples, r.sample())
	}
	return samples, nil
}

// Save записывает run sheet атомарно (через временный файл).
func Save(path string, samples []domain.Sample) error {
	rows := make([]*row, 0, len(samples))
	for i := range samples {
		rows = append(rows, fromSample(&samples[i]))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".run_sheet-*")
	if err != nil {
		return fmt.Errorf("create temp run sheet: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gocsv.MarshalFile(&rows, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write run sheet: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close run sheet: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Validate проверяет, что run sheet не пуст и все строки корректны.
func Validate(samples []domain.Sample) error {
	if len(samples) == 0 {
		return ErrEmptySheet
	}
	for i := range samples {
		if err := samples[i].Validate(); err != nil {
			return fmt.Errorf("%w: row %d: %v", ErrInvalidRow, i+1, err)
		}
	}
	return nil
}

// Filename возвращает имя файла run sheet для flowcell.
func Filename(flowcell string) string {
	return flowcell + Suffix
}

// FlowcellFromFilename извлекает flowcell из имени файла run sheet.
func FlowcellFromFilename(name string) (string, error) {
	base := filepath.Base(name)
	flowcell, ok := strings.CutSuffix(base, Suffix)
	if !ok || flowcell == "" {
		return "", fmt.Errorf("%w: %s", ErrBadFilename, base)
	}
	return flowcell, nil
}
