package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shaiso/scauto/internal/archive"
	"github.com/shaiso/scauto/internal/commands"
	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/mq"
	"github.com/shaiso/scauto/internal/runsheet"
)

type fakeSkipList struct {
	mu      sync.Mutex
	skip    map[string]bool
	reasons map[string]string
}

func newFakeSkipList(flowcells ...string) *fakeSkipList {
	l := &fakeSkipList{skip: make(map[string]bool), reasons: make(map[string]string)}
	for _, fc := range flowcells {
		l.skip[fc] = true
	}
	return l
}

func (l *fakeSkipList) Contains(flowcell string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.skip[flowcell]
}

func (l *fakeSkipList) Add(flowcell, reason string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.skip[flowcell] {
		return false, nil
	}
	l.skip[flowcell] = true
	l.reasons[flowcell] = reason
	return true, nil
}

type fakeArchiver struct {
	archived map[string]string
	err      error
	calls    []string
	samples  []domain.Sample
}

func (a *fakeArchiver) Archived(flowcell string) (string, bool) {
	dir, ok := a.archived[flowcell]
	return dir, ok
}

func (a *fakeArchiver) Archive(ctx context.Context, flowcell, sheetPath string, samples []domain.Sample) (*archive.Summary, error) {
	a.calls = append(a.calls, flowcell)
	a.samples = samples
	if a.err != nil {
		return nil, a.err
	}
	return &archive.Summary{Flowcell: flowcell, Groups: []archive.Group{{Chemistry: domain.ChemistryTenXRNA, Reports: len(samples)}}}, nil
}

func newTestDaemon(t *testing.T, launcher *fakeLauncher, skip SkipList) (*Daemon, string) {
	t.Helper()

	reg := commands.NewRegistry()
	if err := reg.Register(&stubBuilder{chem: domain.ChemistryTenXRNA}); err != nil {
		t.Fatal(err)
	}
	d, _ := newDispatcher(t, reg, launcher)

	sheetDir := t.TempDir()
	daemon := NewDaemon(DaemonConfig{
		Orchestrator: New(Config{Dispatcher: d, StaggerDelay: -1}),
		RunSheetDir:  sheetDir,
		SkipList:     skip,
	})
	return daemon, sheetDir
}

func writeSheet(t *testing.T, dir string, samples []domain.Sample) string {
	t.Helper()
	path := filepath.Join(dir, runsheet.Filename(samples[0].Flowcell))
	if err := runsheet.Save(path, samples); err != nil {
		t.Fatalf("save run sheet: %v", err)
	}
	return path
}

func TestDaemon_RunFlowcell(t *testing.T) {
	launcher := &fakeLauncher{}
	skip := newFakeSkipList()
	daemon, dir := newTestDaemon(t, launcher, skip)
	path := writeSheet(t, dir, rnaSamples("S1", "S2"))

	// Пустой путь — run sheet ищется в RunSheetDir
	report, err := daemon.RunFlowcell(context.Background(), "FC1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Processed != 2 || report.Status != domain.FlowcellStatusSucceeded {
		t.Errorf("unexpected report: processed=%d status=%s", report.Processed, report.Status)
	}

	saved, err := runsheet.Load(path)
	if err != nil {
		t.Fatalf("reload run sheet: %v", err)
	}
	for _, s := range saved {
		if s.RemotePath == "" {
			t.Errorf("%s: remote path should be written back to the run sheet", s.SampleID)
		}
	}
	if skip.Contains("FC1") {
		t.Error("successful flowcell should not be added to the skip list")
	}
	if len(daemon.ActiveFlowcells()) != 0 {
		t.Errorf("flowcell should be released, active: %v", daemon.ActiveFlowcells())
	}
}

func TestDaemon_FailedFlowcellIsSkipListed(t *testing.T) {
	launcher := &fakeLauncher{codes: map[string]int{"S2": 2}}
	skip := newFakeSkipList()
	daemon, dir := newTestDaemon(t, launcher, skip)
	path := writeSheet(t, dir, rnaSamples("S1", "S2"))

	report, err := daemon.RunFlowcell(context.Background(), "FC1", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Failed != 1 {
		t.Errorf("expected 1 failed sample, got %d", report.Failed)
	}
	if !skip.Contains("FC1") {
		t.Fatal("failed flowcell should be added to the skip list")
	}
	if skip.reasons["FC1"] != "1 of 2 samples failed" {
		t.Errorf("unexpected reason %q", skip.reasons["FC1"])
	}
}

func TestDaemon_SkippedFlowcell(t *testing.T) {
	launcher := &fakeLauncher{}
	daemon, dir := newTestDaemon(t, launcher, newFakeSkipList("FC1"))
	writeSheet(t, dir, rnaSamples("S1"))

	_, err := daemon.RunFlowcell(context.Background(), "FC1", "")
	if !errors.Is(err, ErrFlowcellSkipped) {
		t.Fatalf("expected ErrFlowcellSkipped, got %v", err)
	}
	if len(launcher.started) != 0 {
		t.Errorf("nothing should be launched, got %v", launcher.started)
	}
}

func TestDaemon_ActiveFlowcell(t *testing.T) {
	daemon, dir := newTestDaemon(t, &fakeLauncher{}, nil)
	writeSheet(t, dir, rnaSamples("S1"))

	if !daemon.acquire("FC1") {
		t.Fatal("first acquire should succeed")
	}
	_, err := daemon.RunFlowcell(context.Background(), "FC1", "")
	if !errors.Is(err, ErrFlowcellActive) {
		t.Errorf("expected ErrFlowcellActive, got %v", err)
	}

	daemon.release("FC1")
	if _, err := daemon.RunFlowcell(context.Background(), "FC1", ""); err != nil {
		t.Errorf("released flowcell should run: %v", err)
	}
}

func TestDaemon_Stopped(t *testing.T) {
	daemon, _ := newTestDaemon(t, &fakeLauncher{}, nil)
	daemon.Stop()

	if !daemon.IsStopped() {
		t.Error("daemon should report stopped")
	}
	if _, err := daemon.RunFlowcell(context.Background(), "FC1", ""); !errors.Is(err, ErrOrchestratorStopped) {
		t.Errorf("expected ErrOrchestratorStopped, got %v", err)
	}
}

func TestDaemon_StartWithoutBroker(t *testing.T) {
	daemon, _ := newTestDaemon(t, &fakeLauncher{}, nil)
	if err := daemon.Start(context.Background()); !errors.Is(err, mq.ErrNoChannel) {
		t.Errorf("expected ErrNoChannel, got %v", err)
	}
}

func TestDaemon_ArchivesSucceededFlowcell(t *testing.T) {
	daemon, dir := newTestDaemon(t, &fakeLauncher{}, nil)
	arch := &fakeArchiver{}
	daemon.archiver = arch
	writeSheet(t, dir, rnaSamples("S1", "S2"))

	report, err := daemon.RunFlowcell(context.Background(), "FC1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(arch.calls) != 1 || report.Archive == nil || report.Archive.Groups[0].Reports != 2 {
		t.Fatalf("flowcell should be archived once: calls=%v archive=%+v", arch.calls, report.Archive)
	}
	// Архиватор получает образцы с путями назначения
	for _, s := range arch.samples {
		if s.RemotePath == "" {
			t.Errorf("%s: remote path not set before archiving", s.SampleID)
		}
	}
}

func TestDaemon_FailedFlowcellNotArchived(t *testing.T) {
	daemon, dir := newTestDaemon(t, &fakeLauncher{codes: map[string]int{"S2": 1}}, newFakeSkipList())
	arch := &fakeArchiver{}
	daemon.archiver = arch
	writeSheet(t, dir, rnaSamples("S1", "S2"))

	report, err := daemon.RunFlowcell(context.Background(), "FC1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(arch.calls) != 0 || report.Archive != nil {
		t.Errorf("flowcell with failed samples must not be archived: %v", arch.calls)
	}
}

func TestDaemon_ArchivedFlowcellNotProcessed(t *testing.T) {
	launcher := &fakeLauncher{}
	daemon, dir := newTestDaemon(t, launcher, nil)
	daemon.archiver = &fakeArchiver{archived: map[string]string{"FC1": "/remote/10X_SC_RES/scRNA/cellranger-9.0.1/FC1"}}
	writeSheet(t, dir, rnaSamples("S1"))

	_, err := daemon.RunFlowcell(context.Background(), "FC1", "")
	if !errors.Is(err, ErrFlowcellArchived) {
		t.Fatalf("expected ErrFlowcellArchived, got %v", err)
	}
	if len(launcher.started) != 0 {
		t.Errorf("nothing should be launched, got %v", launcher.started)
	}
}

func TestDaemon_ArchiveError(t *testing.T) {
	daemon, dir := newTestDaemon(t, &fakeLauncher{}, nil)
	daemon.archiver = &fakeArchiver{err: archive.ErrSync}
	writeSheet(t, dir, rnaSamples("S1"))

	report, err := daemon.RunFlowcell(context.Background(), "FC1", "")
	if !errors.Is(err, ErrArchive) || !errors.Is(err, archive.ErrSync) {
		t.Fatalf("expected archive error, got %v", err)
	}
	if report == nil || report.Processed != 1 {
		t.Errorf("report of processed samples should be returned: %+v", report)
	}
	if got := classify(context.Background(), err); got == nil || errors.Is(got, mq.ErrReject) {
		t.Errorf("archive failure should be retried, got %v", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantNil    bool
		wantReject bool
	}{
		{"success", nil, true, false},
		{"skip listed", fmt.Errorf("%w: FC1", ErrFlowcellSkipped), true, false},
		{"archived", fmt.Errorf("%w: /remote/FC1", ErrFlowcellArchived), true, false},
		{"archive failed", fmt.Errorf("%w: copy: %w", ErrArchive, os.ErrNotExist), false, false},
		{"already active", fmt.Errorf("%w: FC1", ErrFlowcellActive), true, false},
		{"missing sheet", fmt.Errorf("open run sheet: %w", os.ErrNotExist), false, true},
		{"malformed sheet", fmt.Errorf("%w: x", runsheet.ErrMalformedSheet), false, true},
		{"invalid row", fmt.Errorf("%w: row 1", runsheet.ErrInvalidRow), false, true},
		{"cancelled", fmt.Errorf("%w: %w", ErrBatchCancelled, context.Canceled), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(context.Background(), tt.err)
			if tt.wantNil {
				if got != nil {
					t.Errorf("expected ack, got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected an error")
			}
			if errors.Is(got, mq.ErrReject) != tt.wantReject {
				t.Errorf("reject = %v, want %v (%v)", errors.Is(got, mq.ErrReject), tt.wantReject, got)
			}
		})
	}
}

func TestDaemon_HandleFlowcellPending_BadPayload(t *testing.T) {
	daemon, _ := newTestDaemon(t, &fakeLauncher{}, nil)

	delivery := &mq.Delivery{Message: mq.Message{
		Type:    mq.MessageTypeFlowcellPending,
		Payload: map[string]any{"run_sheet": "/x.csv"},
	}}
	if err := daemon.handleFlowcellPending(context.Background(), delivery); !errors.Is(err, mq.ErrReject) {
		t.Errorf("message without flowcell should be rejected, got %v", err)
	}
}
