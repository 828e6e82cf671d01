package archive

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shaiso/scauto/internal/dispatch"
	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/paths"
)

type fakeProcess struct{ code int }

func (p *fakeProcess) Pid() int { return 1 }

func (p *fakeProcess) Wait() (int, error) { return p.code, nil }

// copyLauncher копирует источник в назначение, как rsync -r SRC DST/.
type copyLauncher struct {
	calls [][]string
	code  int
	noop  bool
}

func (l *copyLauncher) Launch(ctx context.Context, args []string, dir string, log io.Writer) (dispatch.Process, error) {
	l.calls = append(l.calls, args)
	if l.code != 0 || l.noop {
		return &fakeProcess{code: l.code}, nil
	}

	src := args[len(args)-2]
	dst := filepath.Join(args[len(args)-1], filepath.Base(src))
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(src, path)
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
	if err != nil {
		return nil, err
	}
	return &fakeProcess{}, nil
}

type env struct {
	tables *paths.Tables
	roots  paths.Roots
	sheet  string
}

func newEnv(t *testing.T) env {
	t.Helper()
	tables, err := paths.Default()
	if err != nil {
		t.Fatal(err)
	}
	tables.RemoteRoot = t.TempDir()

	sheet := filepath.Join(t.TempDir(), "FC1-run_sheet.csv")
	writeFile(t, sheet, "Flowcell,Sample_ID\nFC1,S1\n")

	return env{tables: tables, roots: paths.Roots{WorkRoot: t.TempDir()}, sheet: sheet}
}

func (e env) archiver(l dispatch.Launcher, cleanup bool) *Archiver {
	return New(Config{
		Tables:   e.tables,
		Roots:    e.roots,
		Launcher: l,
		Cleanup:  cleanup,
		Logger:   slog.New(slog.DiscardHandler),
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// tenxResults создаёт результаты cellranger: S1 с метриками и картинкой, S2 только с отчётом.
func tenxResults(t *testing.T, e env) string {
	t.Helper()
	local := filepath.Join(e.roots.WorkRoot, "2.Results", "10X", "scRNA", "FC1")
	writeFile(t, filepath.Join(local, "S1", "outs", "web_summary.html"), "<html>S1</html>")
	writeFile(t, filepath.Join(local, "S1", "outs", "metrics_summary.csv"),
		"Estimated Number of Cells,Mean Reads per Cell,Median Genes per Cell\n\"1,000\",5000,1200\n")
	writeFile(t, filepath.Join(local, "S1", "outs", "umap.png"), "png")
	writeFile(t, filepath.Join(local, "S2", "outs", "web_summary.html"), "<html>S2</html>")
	return local
}

func tenxSamples() []domain.Sample {
	return []domain.Sample{
		{SampleID: "S1", Flowcell: "FC1", Reference: "GRCh38", Chemistry: domain.ChemistryTenXRNA},
		{SampleID: "S2", Flowcell: "FC1", Reference: "GRCh38", Chemistry: domain.ChemistryTenXRNA},
	}
}

func TestArchive(t *testing.T) {
	e := newEnv(t)
	local := tenxResults(t, e)
	launcher := &copyLauncher{}

	summary, err := e.archiver(launcher, true).Archive(context.Background(), "FC1", e.sheet, tenxSamples())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Groups) != 1 {
		t.Fatalf("expected one group, got %+v", summary.Groups)
	}

	g := summary.Groups[0]
	wantRemote := filepath.Join(e.tables.RemoteRoot, "10X_SC_RES", "scRNA", "cellranger-9.0.1", "FC1")
	if g.RemoteDir != wantRemote {
		t.Errorf("expected remote %s, got %s", wantRemote, g.RemoteDir)
	}
	if g.Reports != 2 || g.Plots != 1 || !g.Removed {
		t.Errorf("unexpected group: %+v", g)
	}
	if _, err := os.Stat(local); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("local results should be removed after verified transfer")
	}

	args := launcher.calls[0]
	if args[0] != "rsync" || args[len(args)-2] != local || !strings.HasSuffix(args[len(args)-1], "cellranger-9.0.1/") {
		t.Errorf("unexpected rsync command: %v", args)
	}

	sum := filepath.Join(wantRemote, "FC1-sum")
	if got := readFile(t, filepath.Join(sum, "S2-report.html")); got != "<html>S2</html>" {
		t.Errorf("unexpected report copy: %q", got)
	}
	if _, err := os.Stat(filepath.Join(sum, "S1_umap.png")); err != nil {
		t.Errorf("plot not copied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(wantRemote, "FC1-run_sheet.csv")); err != nil {
		t.Errorf("run sheet not copied: %v", err)
	}

	stats := readFile(t, filepath.Join(sum, StatsFilename("FC1")))
	lines := strings.Split(strings.TrimSpace(stats), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", stats)
	}
	if !strings.HasPrefix(lines[0], "sample_id,seq_type,estimated number of cells,mean reads per cell") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], `S1,SC_TENX_RNA,"1,000",5000,1200,N/A`) {
		t.Errorf("unexpected S1 row: %s", lines[1])
	}
	if !strings.HasPrefix(lines[2], "S2,SC_TENX_RNA,N/A,N/A") {
		t.Errorf("unexpected S2 row: %s", lines[2])
	}
}

func TestArchive_MissingReport(t *testing.T) {
	e := newEnv(t)
	local := tenxResults(t, e)
	if err := os.RemoveAll(filepath.Join(local, "S2")); err != nil {
		t.Fatal(err)
	}
	launcher := &copyLauncher{}

	_, err := e.archiver(launcher, true).Archive(context.Background(), "FC1", e.sheet, tenxSamples())
	if !errors.Is(err, ErrMissingReport) || !strings.Contains(err.Error(), "S2") {
		t.Fatalf("expected ErrMissingReport for S2, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(local, "FC1-sum")); !errors.Is(err, os.ErrNotExist) {
		t.Error("summary dir must not be created when a report is missing")
	}
	if len(launcher.calls) != 0 {
		t.Error("nothing should be synced")
	}
}

func TestArchive_SyncFailure(t *testing.T) {
	e := newEnv(t)
	local := tenxResults(t, e)

	_, err := e.archiver(&copyLauncher{code: 23}, true).Archive(context.Background(), "FC1", e.sheet, tenxSamples())
	if !errors.Is(err, ErrSync) {
		t.Fatalf("expected ErrSync, got %v", err)
	}
	if _, err := os.Stat(local); err != nil {
		t.Errorf("local results must survive a failed sync: %v", err)
	}
}

func TestArchive_TransferIncomplete(t *testing.T) {
	e := newEnv(t)
	local := tenxResults(t, e)

	_, err := e.archiver(&copyLauncher{noop: true}, true).Archive(context.Background(), "FC1", e.sheet, tenxSamples())
	if !errors.Is(err, ErrTransferIncomplete) {
		t.Fatalf("expected ErrTransferIncomplete, got %v", err)
	}
	if _, err := os.Stat(local); err != nil {
		t.Errorf("local results must survive an incomplete transfer: %v", err)
	}
}

func TestArchive_KeepLocal(t *testing.T) {
	e := newEnv(t)
	local := tenxResults(t, e)

	summary, err := e.archiver(&copyLauncher{}, false).Archive(context.Background(), "FC1", e.sheet, tenxSamples())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Groups[0].Removed {
		t.Error("cleanup disabled, local dir must stay")
	}
	if _, err := os.Stat(filepath.Join(local, "FC1-sum", "S1-report.html")); err != nil {
		t.Errorf("summary missing locally: %v", err)
	}
	if dir, ok := e.archiver(nil, false).Archived("FC1"); !ok || dir != summary.Groups[0].RemoteDir {
		t.Errorf("archived flowcell not detected: %q %v", dir, ok)
	}
}

func TestArchive_SeekGeneVDJBatch(t *testing.T) {
	e := newEnv(t)
	local := filepath.Join(e.roots.WorkRoot, "2.Results", "SG", "scVDJ", "FC1")
	writeFile(t, filepath.Join(local, "R1", "R1_report.html"), "rna")
	writeFile(t, filepath.Join(local, "R1", "R1_summary.csv"), "estimated_number_of_cells\n800\n")
	writeFile(t, filepath.Join(local, "T1", "outs", "report.html"), "vdj")

	samples := []domain.Sample{
		{SampleID: "R1", Flowcell: "FC1", Reference: "GRCh38", Chemistry: domain.ChemistrySeekGeneRNA, VDJType: "5"},
		{SampleID: "T1", Flowcell: "FC1", Reference: "GRCh38", Chemistry: domain.ChemistrySeekGeneVDJ, VDJType: "TR"},
	}

	summary, err := e.archiver(&copyLauncher{}, false).Archive(context.Background(), "FC1", e.sheet, samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Groups) != 1 || summary.Groups[0].Chemistry != domain.ChemistrySeekGeneVDJ {
		t.Fatalf("RNA and VDJ should be archived together: %+v", summary.Groups)
	}
	if summary.Groups[0].Reports != 2 {
		t.Errorf("expected 2 reports, got %d", summary.Groups[0].Reports)
	}

	stats := readFile(t, filepath.Join(local, "FC1-sum", StatsFilename("FC1")))
	if !strings.Contains(stats, "R1,SC_SeekGene_RNA,800") {
		t.Errorf("RNA metrics missing: %q", stats)
	}
}
