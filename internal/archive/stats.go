package archive

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/shaiso/scauto/internal/domain"
)

// Значения сводки, когда метрику прочитать нельзя.
const (
	statMissing = "N/A"
	statError   = "ERROR"
)

// statColumns — метрики сводки по chemistry (имена колонок stat-файлов в нижнем регистре).
var statColumns = map[domain.Chemistry][]string{
	domain.ChemistryTenXRNA: {
		"estimated number of cells", "mean reads per cell", "median genes per cell",
		"number of reads", "reads mapped confidently to genome", "total genes detected",
		"median umi counts per cell",
	},
	domain.ChemistryTenXATAC: {
		"estimated number of cells", "mean raw read pairs per cell",
		"median high-quality fragments per cell",
		"fraction of high-quality fragments overlapping peaks",
		"sequenced read pairs", "number of peaks",
	},
	domain.ChemistryTenXVisiumFFPE: {
		"number of spots under tissue", "mean reads per spot",
		"median genes per spot", "number of reads",
		"reads mapped confidently to probe set", "genes detected", "median umi counts per spot",
	},
	domain.ChemistrySeekGeneRNA: {
		"estimated_number_of_cells", "mean_reads_per_cell",
		"median_genes_per_cell", "number_of_reads",
		"reads_mapped_confidently_to_genome", "total_genes_detected", "median_umi_counts_per_cell",
	},
	domain.ChemistrySeekGeneFullRNA: {
		"estimated_number_of_cells", "mean_reads_per_cell",
		"median_genes_per_cell", "number_of_reads",
		"reads_mapped_confidently_to_genome", "total_genes_detected", "median_umi_counts_per_cell",
	},
	domain.ChemistrySeekGeneVDJ: {
		"estimated number of cells", "mean read pairs per cell",
		"number of cells with productive v-j spanning pair", "number of read pairs",
		"reads mapped to any v(d)j gene", "reads mapped to tra", "reads mapped to trb",
		"median tra umis per cell", "median trb umis per cell", "q30 bases in umi",
	},
}

// StatsFilename возвращает имя файла сводки метрик flowcell.
func StatsFilename(flowcell string) string {
	return flowcell + "_statistics_summary.csv"
}

// readStats читает первую строку stat-файла. Ключи — имена колонок в нижнем регистре.
func readStats(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := gocsv.CSVToMaps(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make(map[string]string)
	if len(rows) == 0 {
		return out, nil
	}
	for k, v := range rows[0] {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out, nil
}

// statsRow собирает строку сводки образца. Пустой statPath — stat-файла нет.
func statsRow(entry sampleFiles) map[string]string {
	row := map[string]string{
		"sample_id": entry.sample.SampleID,
		"seq_type":  string(entry.sample.Chemistry),
	}
	columns := statColumns[entry.sample.Chemistry]

	if entry.stat == "" {
		for _, col := range columns {
			row[col] = statMissing
		}
		return row
	}

	values, err := readStats(entry.stat)
	for _, col := range columns {
		switch v, ok := values[col]; {
		case err != nil:
			row[col] = statError
		case ok:
			row[col] = v
		default:
			row[col] = statMissing
		}
	}
	return row
}

// writeStats записывает сводку: sample_id, seq_type и объединение метрик chemistry группы.
func writeStats(path string, entries []sampleFiles) error {
	header := []string{"sample_id", "seq_type"}
	seen := map[string]bool{"sample_id": true, "seq_type": true}
	for _, e := range entries {
		for _, col := range statColumns[e.sample.Chemistry] {
			if !seen[col] {
				seen[col] = true
				header = append(header, col)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create statistics summary: %w", err)
	}
	defer f.Close()

	w := gocsv.DefaultCSVWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write statistics summary: %w", err)
	}
	for _, e := range entries {
		row := statsRow(e)
		record := make([]string, len(header))
		for i, col := range header {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write statistics summary: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write statistics summary: %w", err)
	}
	return f.Close()
}
