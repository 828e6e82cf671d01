package annotation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/shaiso/scauto/internal/domain"
)

func TestEligible(t *testing.T) {
	eligible := Eligible(nil)

	tests := []struct {
		name   string
		sample domain.Sample
		want   bool
	}{
		{"tenx rna human", domain.Sample{Chemistry: domain.ChemistryTenXRNA, Reference: "GRCh38"}, true},
		{"seekgene rna human", domain.Sample{Chemistry: domain.ChemistrySeekGeneRNA, Reference: "GRCh38"}, true},
		{"tenx rna mouse", domain.Sample{Chemistry: domain.ChemistryTenXRNA, Reference: "MM10"}, false},
		{"vdj human", domain.Sample{Chemistry: domain.ChemistrySeekGeneVDJ, Reference: "GRCh38"}, false},
		{"atac human", domain.Sample{Chemistry: domain.ChemistryTenXATAC, Reference: "GRCh38"}, false},
		{"full rna human", domain.Sample{Chemistry: domain.ChemistrySeekGeneFullRNA, Reference: "GRCh38"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eligible(&tt.sample); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEligible_VDJNeverEligible(t *testing.T) {
	eligible := Eligible([]string{"GRCh38", "MM10", "MacMul"})
	for _, org := range []string{"GRCh38", "MM10", "MacMul"} {
		s := domain.Sample{Chemistry: domain.ChemistrySeekGeneVDJ, Reference: org}
		if eligible(&s) {
			t.Errorf("VDJ sample with %s must not be eligible", org)
		}
	}
}

func TestFindInput(t *testing.T) {
	dir := t.TempDir()
	matrix := filepath.Join(dir, "FC1", "S1_h", "outs", "filtered_feature_bc_matrix.h5")
	if err := os.MkdirAll(filepath.Dir(matrix), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(matrix, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	bundle := domain.DirectoryBundle{ResultDir: dir}
	task := domain.AnnotationTask{SampleID: "S1", Flowcell: "FC1", Chemistry: domain.ChemistryTenXRNA}

	input, err := FindInput(task, bundle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input != matrix {
		t.Errorf("expected %s, got %s", matrix, input)
	}
	if got := OutputPath(input); !strings.HasSuffix(got, "filtered_feature_bc_matrix_annotated_scParadise.h5ad") {
		t.Errorf("unexpected output path: %s", got)
	}

	task.SampleID = "S2"
	if _, err := FindInput(task, bundle); !errors.Is(err, ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}

	task.Chemistry = domain.ChemistrySeekGeneVDJ
	if _, err := FindInput(task, bundle); !errors.Is(err, ErrUnsupportedChemistry) {
		t.Errorf("expected ErrUnsupportedChemistry, got %v", err)
	}
}

func TestFindInput_NoResultDir(t *testing.T) {
	// Матрица в рабочей директории процесса не должна находиться
	dir := t.TempDir()
	stray := filepath.Join(dir, "FC1", "S2_h", "outs", "filtered_feature_bc_matrix.h5")
	if err := os.MkdirAll(filepath.Dir(stray), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stray, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	task := domain.AnnotationTask{SampleID: "S2", Flowcell: "FC1", Chemistry: domain.ChemistryTenXRNA}
	if _, err := FindInput(task, domain.DirectoryBundle{}); !errors.Is(err, ErrNoResultDir) {
		t.Errorf("expected ErrNoResultDir, got %v", err)
	}

	a := NewExecAnnotator(ExecConfig{Executable: "/bin/true"})
	if res := a.Annotate(context.Background(), task, domain.DirectoryBundle{}); res.Success {
		t.Errorf("sample without result dir must not be annotated: %q", res.Message)
	}
}

func TestExecAnnotator(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	mtx := filepath.Join(dir, "FC1", "S1_h", "step3", "filtered_feature_bc_matrix")
	if err := os.MkdirAll(mtx, 0o755); err != nil {
		t.Fatal(err)
	}

	script := filepath.Join(dir, "annotate.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"species=$6\"\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	a := NewExecAnnotator(ExecConfig{Executable: script})
	task := domain.AnnotationTask{
		SampleID:  "S1",
		Flowcell:  "FC1",
		Organism:  "GRCh38",
		Chemistry: domain.ChemistrySeekGeneRNA,
		Tissue:    "PBMC;cells",
	}

	res := a.Annotate(context.Background(), task, domain.DirectoryBundle{ResultDir: dir})
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if !strings.Contains(res.Message, "species=human") {
		t.Errorf("expected program output in message, got %q", res.Message)
	}

	// Ненулевой код выхода — неуспех, а не ошибка
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho model missing\nexit 3\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	res = a.Annotate(context.Background(), task, domain.DirectoryBundle{ResultDir: dir})
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Message, "model missing") {
		t.Errorf("expected program output in message, got %q", res.Message)
	}
}

func TestExecAnnotator_NoExecutable(t *testing.T) {
	a := NewExecAnnotator(ExecConfig{})

	res := a.Annotate(context.Background(), domain.AnnotationTask{SampleID: "S1"}, domain.DirectoryBundle{})
	if res.Success || res.SampleID != "S1" {
		t.Errorf("unexpected result: %+v", res)
	}
}
