package runsheet

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/paths"
)

const infoCSV = `Flowcell,Sample_ID,Sample_NAME,Descr_ORG,Check_ORG,Desct_TYPE,Description
FC1,S1,donor-1,human,human,SC_TENX_RNA,tissue=blood;age=40
FC1,S1,donor-1b,human,human,SC_TENX_RNA,tissue=blood;age=40
FC1,S2,donor-2,mouse,mouse,SC_TENX_RNA,biotype=brain nuclei
FC1,S3,donor-3,human,human,SC_TENX_Multiome_RNA,tissue=blood
FC2,S9,donor-9,human,human,SC_TENX_RNA,tissue=blood
`

// buildEnv создаёт рабочую директорию с FASTQ для образцов flowcell.
func buildEnv(t *testing.T, flowcell string, samples ...string) BuildOptions {
	t.Helper()

	tables, err := paths.Default()
	if err != nil {
		t.Fatal(err)
	}
	work := t.TempDir()
	fastq := filepath.Join(work, "1.Data", "FASTQ", flowcell)
	if err := os.MkdirAll(fastq, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, s := range samples {
		name := s + "_S1_L001_R1_001.fastq.gz"
		if err := os.WriteFile(filepath.Join(fastq, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return BuildOptions{
		Flowcell: flowcell,
		Tables:   tables,
		Roots:    paths.Roots{WorkRoot: work},
		ImageDir: t.TempDir(),
	}
}

func loadInfoCSV(t *testing.T, content string) []InfoRow {
	t.Helper()
	path := filepath.Join(t.TempDir(), "info.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := LoadInfo(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rows
}

func TestLoadInfo(t *testing.T) {
	rows := loadInfoCSV(t, infoCSV)
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	if rows[2].SampleID != "S2" || rows[2].Type != "SC_TENX_RNA" || rows[2].DescrOrg != "mouse" {
		t.Errorf("unexpected row: %+v", rows[2])
	}
}

func TestBuild(t *testing.T) {
	opts := buildEnv(t, "FC1", "S1", "S2")

	samples, err := Build(loadInfoCSV(t, infoCSV), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected S1 and S2 only, got %+v", samples)
	}

	s1, s2 := samples[0], samples[1]
	if s1.SampleID != "S1" || s1.Reference != "GRCh38" || s1.OrganismName != "human" {
		t.Errorf("unexpected S1: %+v", s1)
	}
	if s1.Tissue != "PBMC;cells" {
		t.Errorf("expected PBMC;cells, got %q", s1.Tissue)
	}
	if s2.Reference != "MM10" || s2.Tissue != "PBMC;nuclei" {
		t.Errorf("unexpected S2: %+v", s2)
	}
	if s1.Cmd != string(domain.ChemistryTenXRNA) {
		t.Errorf("unexpected cmd %q", s1.Cmd)
	}
}

func TestBuild_CheckOrgFallback(t *testing.T) {
	info := []InfoRow{
		{Flowcell: "FC1", SampleID: "S1", DescrOrg: "human", CheckOrg: "mulatta", Type: "SC_TENX_ATAC"},
		{Flowcell: "FC1", SampleID: "S2", DescrOrg: "", CheckOrg: "mouse", Type: "SC_TENX_ATAC"},
	}
	opts := buildEnv(t, "FC1", "S1", "S2")

	samples, err := Build(info, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Пустой Descr_ORG у одной строки переключает весь батч на Check_ORG
	if samples[0].Reference != "MacMul" || samples[1].Reference != "MM10" {
		t.Errorf("expected Check_ORG references, got %s %s", samples[0].Reference, samples[1].Reference)
	}
}

func TestBuild_MissingFastq(t *testing.T) {
	opts := buildEnv(t, "FC1", "S1")

	_, err := Build(loadInfoCSV(t, infoCSV), opts)
	if !errors.Is(err, ErrMissingFastq) {
		t.Fatalf("expected ErrMissingFastq, got %v", err)
	}
	if !strings.Contains(err.Error(), "S2") || strings.Contains(err.Error(), "S3") {
		t.Errorf("error should name only supported samples without fastq: %v", err)
	}
}

func TestBuild_UnknownFlowcell(t *testing.T) {
	opts := buildEnv(t, "FC7")

	if _, err := Build(loadInfoCSV(t, infoCSV), opts); !errors.Is(err, ErrEmptySheet) {
		t.Errorf("expected ErrEmptySheet, got %v", err)
	}
}

func TestBuild_SeekGeneVDJ(t *testing.T) {
	info := []InfoRow{
		{Flowcell: "FC1", SampleID: "R1", DescrOrg: "human", Type: "SC_SeekGene_VDJ", Description: "kit=SGSC5V;tissue=PBMC"},
		{Flowcell: "FC1", SampleID: "T1", DescrOrg: "human", Type: "SC_SeekGene_VDJ", Description: "kit=SGSC5TCR"},
		{Flowcell: "FC1", SampleID: "B1", DescrOrg: "human", Type: "SC_SeekGene_VDJ", Description: "kit=SGSC5BCR"},
	}
	opts := buildEnv(t, "FC1", "R1", "T1", "B1")

	samples, err := Build(info, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		chem  domain.Chemistry
		chain string
	}{
		{domain.ChemistrySeekGeneRNA, "5"},
		{domain.ChemistrySeekGeneVDJ, "TR"},
		{domain.ChemistrySeekGeneVDJ, "IG"},
	}
	for i, w := range want {
		s := samples[i]
		if s.Chemistry != w.chem || s.VDJType != w.chain || s.Cmd != string(w.chem) {
			t.Errorf("%s: expected %s/%s, got %s/%s (cmd %s)", s.SampleID, w.chem, w.chain, s.Chemistry, s.VDJType, s.Cmd)
		}
	}
}

func TestBuild_Visium(t *testing.T) {
	info := []InfoRow{
		{Flowcell: "FC1", SampleID: "V1", DescrOrg: "human", Type: "SC_TENX_Visium_FFPE", Description: "tissue=lung"},
	}
	opts := buildEnv(t, "FC1", "V1")
	image := filepath.Join(opts.ImageDir, "V1_V42A20-001_A1.tif")
	if err := os.WriteFile(image, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	samples, err := Build(info, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := samples[0]
	if s.Image != image || s.Slide != "V42A20-001" || s.Area != "A1" {
		t.Errorf("unexpected image fields: %+v", s)
	}
	if s.Tissue != "lung" {
		t.Errorf("unexpected tissue %q", s.Tissue)
	}
}
