package paths

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shaiso/scauto/internal/domain"
)

var testRoots = Roots{RefRoot: "/refs", ToolRoot: "/soft", WorkRoot: "/work"}

func TestDefault_Valid(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, chem := range domain.Chemistries() {
		if _, err := tables.ResultsFor(chem); err != nil {
			t.Errorf("%s: missing results entry: %v", chem, err)
		}
		if _, ok := tables.Tools[chem]; !ok {
			t.Errorf("%s: missing tool entry", chem)
		}
	}
}

func TestResolve_TenXRNA(t *testing.T) {
	tables, _ := Default()

	bundle, err := tables.Resolve(domain.ChemistryTenXRNA, "GRCh38", testRoots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.DirectoryBundle{
		RefDir:      "/refs/10x_scRNA_GRCh38",
		ResultDir:   "/work/2.Results/10X/scRNA",
		DataDir:     "/work/1.Data/FASTQ",
		ToolDir:     "/soft/cellranger-9.0.1",
		RemoteDir:   "/mnt/cephfs8_rw/functional-genomics/10X_SC_RES/scRNA",
		Postfix:     "outs/web_summary.html",
		StatPostfix: "outs/metrics_summary.csv",
	}
	if bundle != want {
		t.Errorf("bundle mismatch:\n got %+v\nwant %+v", bundle, want)
	}
}

func TestResolve_VisiumProbeSet(t *testing.T) {
	tables, _ := Default()

	bundle, err := tables.Resolve(domain.ChemistryTenXVisiumFFPE, "GRCh38", testRoots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantPrefix := filepath.Join("/soft/spaceranger-3.1.2", "external")
	if len(bundle.ProbeSet) <= len(wantPrefix) || bundle.ProbeSet[:len(wantPrefix)] != wantPrefix {
		t.Errorf("probe set should live under tool dir, got %s", bundle.ProbeSet)
	}
}

func TestResolve_Errors(t *testing.T) {
	tables, _ := Default()

	tests := []struct {
		name     string
		chem     domain.Chemistry
		organism string
		want     error
	}{
		{"unknown chemistry", domain.Chemistry("SC_TENX_Multiome"), "GRCh38", ErrUnknownChemistry},
		{"unknown organism", domain.ChemistryTenXATAC, "MacMul", ErrUnknownOrganism},
		{"null reference", domain.ChemistrySeekGeneRNA, "MM10", ErrNoReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tables.Resolve(tt.chem, tt.organism, testRoots)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRedirectTo_VDJ(t *testing.T) {
	tables, _ := Default()

	bundle, err := tables.Resolve(domain.ChemistrySeekGeneRNA, "GRCh38", testRoots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	redirected, err := tables.RedirectTo(bundle, domain.ChemistrySeekGeneVDJ, testRoots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if redirected.ResultDir != "/work/2.Results/SG/scVDJ" {
		t.Errorf("unexpected result dir: %s", redirected.ResultDir)
	}
	if redirected.RemoteDir != "/mnt/cephfs8_rw/functional-genomics/SG_SC_RES/scVDJ" {
		t.Errorf("unexpected remote dir: %s", redirected.RemoteDir)
	}
	// Референс и маркер отчёта остаются от исходной chemistry
	if redirected.RefDir != bundle.RefDir || redirected.Postfix != bundle.Postfix {
		t.Error("redirect should only touch result and remote dirs")
	}
}

func TestArchived(t *testing.T) {
	tables, _ := Default()
	tables.RemoteRoot = t.TempDir()

	if _, ok := tables.Archived("FC7"); ok {
		t.Fatal("empty remote root must not report archived flowcells")
	}

	want := filepath.Join(tables.RemoteRoot, "SG_SC_RES", "scVDJ", "seeksoultools.1.2.2", "FC7")
	if err := os.MkdirAll(want, 0o755); err != nil {
		t.Fatal(err)
	}
	// Файл с именем flowcell — не архив
	if err := os.WriteFile(filepath.Join(filepath.Dir(want), "FC8"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	dir, ok := tables.Archived("FC7")
	if !ok || dir != want {
		t.Errorf("expected %s, got %q (%v)", want, dir, ok)
	}
	if _, ok := tables.Archived("FC8"); ok {
		t.Error("regular file must not count as archive")
	}
	if _, ok := tables.Archived(""); ok {
		t.Error("empty flowcell must not match the remote dir itself")
	}

	dir, err := tables.ArchiveDir(domain.ChemistryTenXRNA, "FC7")
	if err != nil || dir != filepath.Join(tables.RemoteRoot, "10X_SC_RES", "scRNA", "cellranger-9.0.1", "FC7") {
		t.Errorf("unexpected archive dir %s (%v)", dir, err)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("results:\n  SC_TENX_RNA:\n    local: x\n"))
	if !errors.Is(err, ErrInvalidTables) {
		t.Errorf("expected ErrInvalidTables, got %v", err)
	}
}
