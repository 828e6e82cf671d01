package dispatch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/shaiso/scauto/internal/commands"
	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/paths"
)

// --- Fakes ---

type fakeProcess struct {
	code int
}

func (p *fakeProcess) Pid() int { return 4242 }

func (p *fakeProcess) Wait() (int, error) { return p.code, nil }

type fakeLauncher struct {
	mu    sync.Mutex
	calls [][]string
	dirs  []string
	err   error
}

func (l *fakeLauncher) Launch(ctx context.Context, args []string, dir string, log io.Writer) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return nil, l.err
	}
	l.calls = append(l.calls, args)
	l.dirs = append(l.dirs, dir)
	return &fakeProcess{}, nil
}

type countingBuilder struct {
	chem  domain.Chemistry
	calls int
	err   error
}

func (b *countingBuilder) Chemistry() domain.Chemistry { return b.chem }

func (b *countingBuilder) Build(req *commands.Request) (*commands.Command, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return &commands.Command{
		Args:    []string{"tool", req.SampleID, req.ResultDir},
		LogPath: filepath.Join(req.ResultDir, req.Flowcell, req.SampleID+"_output.log"),
	}, nil
}

func newTestDispatcher(t *testing.T, reg *commands.Registry, launcher Launcher) (*Dispatcher, paths.Roots) {
	t.Helper()

	tables, err := paths.Default()
	if err != nil {
		t.Fatalf("default tables: %v", err)
	}
	root := t.TempDir()
	roots := paths.Roots{
		RefRoot:  filepath.Join(root, "refs"),
		ToolRoot: filepath.Join(root, "soft"),
		WorkRoot: filepath.Join(root, "work"),
	}
	return New(Config{Tables: tables, Roots: roots, Registry: reg, Launcher: launcher}), roots
}

func tenxSample(id string) *domain.Sample {
	return &domain.Sample{
		SampleID:  id,
		Flowcell:  "FC1",
		Reference: "GRCh38",
		Chemistry: domain.ChemistryTenXRNA,
	}
}

var testBudget = domain.ResourceBudget{CoresPerSample: 20, MemoryPerSampleGB: 300}

// --- Tests ---

func TestDispatch_Started(t *testing.T) {
	launcher := &fakeLauncher{}
	d, roots := newTestDispatcher(t, nil, launcher)

	sample := tenxSample("S1")
	batch := domain.Summarize([]domain.Sample{*sample})

	res := d.Dispatch(context.Background(), sample, batch, testBudget)
	if res.Status != domain.SampleStatusRunning {
		t.Fatalf("expected RUNNING, got %s (%v)", res.Status, res.Err)
	}
	defer res.Log.Close()

	flowcellDir := filepath.Join(roots.WorkRoot, "2.Results/10X/scRNA", "FC1")
	if len(launcher.dirs) != 1 || launcher.dirs[0] != flowcellDir {
		t.Errorf("expected cwd %s, got %v", flowcellDir, launcher.dirs)
	}
	if res.LogPath != filepath.Join(flowcellDir, "S1_h_output.log") {
		t.Errorf("unexpected log path: %s", res.LogPath)
	}
	if _, err := os.Stat(res.LogPath); err != nil {
		t.Errorf("log file should exist: %v", err)
	}
	if res.RemoteDir != "/mnt/cephfs8_rw/functional-genomics/10X_SC_RES/scRNA" {
		t.Errorf("unexpected remote dir: %s", res.RemoteDir)
	}
	if !strings.Contains(strings.Join(launcher.calls[0], " "), "--localmem 300") {
		t.Errorf("10x command should carry memory: %v", launcher.calls[0])
	}

	code, err := res.Wait()
	if err != nil || code != 0 {
		t.Errorf("expected exit 0, got %d (%v)", code, err)
	}
}

func TestDispatch_Idempotent(t *testing.T) {
	builder := &countingBuilder{chem: domain.ChemistryTenXRNA}
	reg := commands.NewRegistry()
	if err := reg.Register(builder); err != nil {
		t.Fatal(err)
	}
	launcher := &fakeLauncher{}
	d, roots := newTestDispatcher(t, reg, launcher)

	// Отчёт предыдущего запуска
	report := filepath.Join(roots.WorkRoot, "2.Results/10X/scRNA", "FC1", "S1_h", "outs", "web_summary.html")
	if err := os.MkdirAll(filepath.Dir(report), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(report, []byte("<html/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	sample := tenxSample("S1")
	res := d.Dispatch(context.Background(), sample, domain.Summarize([]domain.Sample{*sample}), testBudget)

	if res.Status != domain.SampleStatusSkipped {
		t.Fatalf("expected SKIPPED, got %s (%v)", res.Status, res.Err)
	}
	defer res.Log.Close()

	if res.Process != nil {
		t.Error("skipped sample must not have a process")
	}
	if builder.calls != 0 {
		t.Errorf("command builder must not be called, got %d calls", builder.calls)
	}
	if len(launcher.calls) != 0 {
		t.Errorf("launcher must not be called, got %d calls", len(launcher.calls))
	}
	if !strings.HasSuffix(res.LogPath, "S1_ann.log") {
		t.Errorf("unexpected log path: %s", res.LogPath)
	}
	if res.RemoteDir == "" {
		t.Error("skipped sample should keep its remote dir")
	}
}

func TestDispatch_VDJRedirect(t *testing.T) {
	reg := commands.NewRegistry()
	for _, chem := range []domain.Chemistry{domain.ChemistrySeekGeneRNA, domain.ChemistrySeekGeneVDJ} {
		if err := reg.Register(&countingBuilder{chem: chem}); err != nil {
			t.Fatal(err)
		}
	}
	d, roots := newTestDispatcher(t, reg, &fakeLauncher{})

	samples := []domain.Sample{
		{SampleID: "R1", Flowcell: "FC1", Reference: "GRCh38", Chemistry: domain.ChemistrySeekGeneRNA},
		{SampleID: "V1", Flowcell: "FC1", Reference: "GRCh38", Chemistry: domain.ChemistrySeekGeneVDJ, VDJType: "TR"},
	}
	batch := domain.Summarize(samples)

	bundle, err := d.Resolve(&samples[0], batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vdjBundle, err := d.Resolve(&samples[1], batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bundle.ResultDir != vdjBundle.ResultDir {
		t.Errorf("RNA result dir should be redirected to VDJ: %s != %s", bundle.ResultDir, vdjBundle.ResultDir)
	}
	if bundle.RemoteDir != vdjBundle.RemoteDir {
		t.Errorf("RNA remote dir should be redirected to VDJ: %s != %s", bundle.RemoteDir, vdjBundle.RemoteDir)
	}
	if bundle.ResultDir != filepath.Join(roots.WorkRoot, "2.Results/SG/scVDJ") {
		t.Errorf("unexpected result dir: %s", bundle.ResultDir)
	}

	req := d.Request(&samples[1], batch, vdjBundle, testBudget)
	if req.Chain != "TR" || req.ChemistryCode != commands.ChemistryCodeVDJ {
		t.Errorf("unexpected VDJ request extras: chain=%q code=%q", req.Chain, req.ChemistryCode)
	}
	if req.MemoryGB != 0 {
		t.Errorf("SeekGene request must not carry memory, got %d", req.MemoryGB)
	}

	// Без VDJ в батче RNA остаётся в своих директориях
	alone := domain.Summarize(samples[:1])
	own, err := d.Resolve(&samples[0], alone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if own.ResultDir != filepath.Join(roots.WorkRoot, "2.Results/SG/scRNA") {
		t.Errorf("unexpected result dir without VDJ: %s", own.ResultDir)
	}
}

func TestDispatch_Failures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		sample   *domain.Sample
		builder  *countingBuilder
		launcher *fakeLauncher
		want     error
		resolved bool
	}{
		{
			name:     "unknown organism",
			sample:   &domain.Sample{SampleID: "S1", Flowcell: "FC1", Reference: "Danio", Chemistry: domain.ChemistryTenXRNA},
			builder:  &countingBuilder{chem: domain.ChemistryTenXRNA},
			launcher: &fakeLauncher{},
			want:     ErrResolvePaths,
		},
		{
			name:     "builder error",
			sample:   tenxSample("S1"),
			builder:  &countingBuilder{chem: domain.ChemistryTenXRNA, err: boom},
			launcher: &fakeLauncher{},
			want:     ErrBuildCommand,
			resolved: true,
		},
		{
			name:     "no builder",
			sample:   tenxSample("S1"),
			builder:  &countingBuilder{chem: domain.ChemistryTenXATAC},
			launcher: &fakeLauncher{},
			want:     commands.ErrNoBuilder,
			resolved: true,
		},
		{
			name:     "launch error",
			sample:   tenxSample("S1"),
			builder:  &countingBuilder{chem: domain.ChemistryTenXRNA},
			launcher: &fakeLauncher{err: boom},
			want:     boom,
			resolved: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := commands.NewRegistry()
			if err := reg.Register(tt.builder); err != nil {
				t.Fatal(err)
			}
			d, _ := newTestDispatcher(t, reg, tt.launcher)

			res := d.Dispatch(context.Background(), tt.sample, domain.Summarize([]domain.Sample{*tt.sample}), testBudget)
			if res.Status != domain.SampleStatusFailed {
				t.Fatalf("expected FAILED, got %s", res.Status)
			}
			if res.Process != nil || res.Log != nil {
				t.Error("failed result must carry neither process nor log")
			}
			if !errors.Is(res.Err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, res.Err)
			}
			// После разрешения путей bundle остаётся для аннотации и назначения
			if got := res.Bundle.ResultDir != ""; got != tt.resolved {
				t.Errorf("bundle kept = %v, want %v (%+v)", got, tt.resolved, res.Bundle)
			}
			if got := res.RemoteDir != ""; got != tt.resolved {
				t.Errorf("remote dir kept = %v, want %v", got, tt.resolved)
			}
		})
	}
}

func TestExecLauncher(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")
	log, err := os.Create(logPath)
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	l := &ExecLauncher{}
	proc, err := l.Launch(context.Background(), []string{"sh", "-c", "pwd; echo oops >&2; exit 3"}, dir, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	code, err := proc.Wait()
	if err != nil {
		t.Fatalf("unexpected wait error: %v", err)
	}
	if code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}

	data, _ := os.ReadFile(logPath)
	if !strings.Contains(string(data), "oops") {
		t.Errorf("stderr should go to log, got %q", data)
	}

	if _, err := l.Launch(context.Background(), nil, dir, log); !errors.Is(err, ErrLaunch) {
		t.Errorf("expected ErrLaunch, got %v", err)
	}
}

func TestExecLauncher_Cancel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &ExecLauncher{}

	proc, err := l.Launch(ctx, []string{"sleep", "30"}, t.TempDir(), io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cancel()

	code, _ := proc.Wait()
	if code == 0 {
		t.Error("cancelled process must not report success")
	}
}
