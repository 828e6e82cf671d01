package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shaiso/scauto/internal/dispatch"
	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/paths"
)

// DefaultRsync — команда синхронизации без аргументов источника и назначения.
var DefaultRsync = []string{"rsync", "-r", "--no-links", "--checksum"}

// Config — конфигурация Archiver.
type Config struct {
	Tables *paths.Tables
	Roots  paths.Roots

	// Launcher запускает rsync (default: dispatch.ExecLauncher).
	Launcher dispatch.Launcher

	// Rsync — команда синхронизации (default: DefaultRsync).
	Rsync []string

	// Cleanup удаляет локальную директорию flowcell после сверки числа файлов.
	Cleanup bool

	Logger *slog.Logger
}

// Archiver собирает summary и переносит результаты flowcell в удалённое хранилище.
type Archiver struct {
	tables   *paths.Tables
	roots    paths.Roots
	launcher dispatch.Launcher
	rsync    []string
	cleanup  bool
	logger   *slog.Logger
}

// New создаёт Archiver.
func New(cfg Config) *Archiver {
	launcher := cfg.Launcher
	if launcher == nil {
		launcher = &dispatch.ExecLauncher{}
	}
	rsync := cfg.Rsync
	if len(rsync) == 0 {
		rsync = DefaultRsync
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Archiver{
		tables:   cfg.Tables,
		roots:    cfg.Roots,
		launcher: launcher,
		rsync:    rsync,
		cleanup:  cfg.Cleanup,
		logger:   logger,
	}
}

// Group — итог архивации одной группы chemistry.
type Group struct {
	Chemistry  domain.Chemistry `json:"chemistry"`
	LocalDir   string           `json:"local_dir"`
	SummaryDir string           `json:"summary_dir"`
	RemoteDir  string           `json:"remote_dir"`
	Reports    int              `json:"reports"`
	Plots      int              `json:"plots"`
	Files      int              `json:"files"`
	Removed    bool             `json:"removed"`
}

// Summary — итог архивации flowcell.
type Summary struct {
	Flowcell string  `json:"flowcell"`
	Groups   []Group `json:"groups"`
}

// sampleFiles — найденные файлы образца.
type sampleFiles struct {
	sample domain.Sample
	report string
	stat   string
}

// group — образцы, которые архивируются вместе.
type group struct {
	chem    domain.Chemistry
	local   string
	archive string
	entries []sampleFiles
}

// Archived сообщает, есть ли flowcell в удалённом хранилище.
func (a *Archiver) Archived(flowcell string) (string, bool) {
	return a.tables.Archived(flowcell)
}

// Archive собирает summary каждой группы, копирует run sheet и синхронизирует
// <local>/<flowcell> с хранилищем.
//
// Отчёты ищутся до изменений на диске: если хоть у одного образца отчёта нет,
// возвращается ErrMissingReport и ничего не копируется.
func (a *Archiver) Archive(ctx context.Context, flowcell, sheetPath string, samples []domain.Sample) (*Summary, error) {
	groups, err := a.collect(flowcell, samples)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Flowcell: flowcell}
	for _, g := range groups {
		logger := a.logger.With("flowcell", flowcell, "chemistry", g.chem)

		res, err := a.summarize(flowcell, sheetPath, g)
		if err != nil {
			return summary, err
		}
		logger.Info("summary collected", "dir", res.SummaryDir, "reports", res.Reports, "plots", res.Plots)

		if err := a.sync(ctx, flowcell, g, &res); err != nil {
			return summary, err
		}
		logger.Info("results archived", "remote_dir", res.RemoteDir, "files", res.Files, "removed", res.Removed)

		summary.Groups = append(summary.Groups, res)
	}
	return summary, nil
}

// collect группирует образцы и находит их отчёты и stat-файлы.
func (a *Archiver) collect(flowcell string, samples []domain.Sample) ([]*group, error) {
	batch := domain.Summarize(samples)

	byChem := make(map[domain.Chemistry]*group)
	var order []domain.Chemistry
	var missing []string

	for _, s := range samples {
		chem := s.Chemistry
		if batch.HasVDJ() && chem.SharesVDJPipeline() {
			chem = domain.ChemistrySeekGeneVDJ
		}

		g, ok := byChem[chem]
		if !ok {
			local, err := a.tables.LocalDir(chem, a.roots)
			if err != nil {
				return nil, err
			}
			archive, err := a.tables.ArchiveDir(chem, flowcell)
			if err != nil {
				return nil, err
			}
			g = &group{
				chem:    chem,
				local:   filepath.Join(local, flowcell),
				archive: archive,
			}
			byChem[chem] = g
			order = append(order, chem)
		}

		// Маркеры отчёта и метрик — от собственной chemistry образца
		res, err := a.tables.ResultsFor(s.Chemistry)
		if err != nil {
			return nil, err
		}
		report := firstMatch(filepath.Join(g.local, s.SampleID+"*", "*"+res.Postfix))
		if report == "" {
			missing = append(missing, s.SampleID)
			continue
		}
		g.entries = append(g.entries, sampleFiles{
			sample: s,
			report: report,
			stat:   firstMatch(filepath.Join(g.local, s.SampleID+"*", "*"+res.Stat)),
		})
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingReport, strings.Join(missing, ", "))
	}

	out := make([]*group, 0, len(order))
	for _, chem := range order {
		out = append(out, byChem[chem])
	}
	return out, nil
}

// summarize заполняет <flowcell>-sum и копирует run sheet.
func (a *Archiver) summarize(flowcell, sheetPath string, g *group) (Group, error) {
	res := Group{
		Chemistry:  g.chem,
		LocalDir:   g.local,
		SummaryDir: filepath.Join(g.local, flowcell+"-sum"),
		RemoteDir:  g.archive,
	}
	if err := os.MkdirAll(res.SummaryDir, 0o755); err != nil {
		return res, fmt.Errorf("create summary dir: %w", err)
	}

	if err := writeStats(filepath.Join(res.SummaryDir, StatsFilename(flowcell)), g.entries); err != nil {
		return res, err
	}

	for _, e := range g.entries {
		id := e.sample.SampleID
		if err := copyFile(e.report, filepath.Join(res.SummaryDir, id+"-report.html")); err != nil {
			return res, err
		}
		res.Reports++

		for _, plot := range plots(filepath.Dir(e.report)) {
			if err := copyFile(plot, filepath.Join(res.SummaryDir, id+"_"+filepath.Base(plot))); err != nil {
				return res, err
			}
			res.Plots++
		}
	}

	if sheetPath != "" {
		if err := copyFile(sheetPath, filepath.Join(g.local, filepath.Base(sheetPath))); err != nil {
			return res, err
		}
	}
	return res, nil
}

// sync запускает rsync <local>/<flowcell> <remote>/<tool>/ и сверяет число файлов.
func (a *Archiver) sync(ctx context.Context, flowcell string, g *group, res *Group) error {
	remote := filepath.Dir(g.archive)
	if err := os.MkdirAll(remote, 0o755); err != nil {
		return fmt.Errorf("create remote dir: %w", err)
	}

	logPath := filepath.Join(filepath.Dir(g.local), flowcell+"-rsync.log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("create rsync log: %w", err)
	}
	defer logFile.Close()

	args := append(append([]string{}, a.rsync...), g.local, remote+string(filepath.Separator))
	if err := a.run(ctx, args, logFile); err != nil {
		return err
	}

	local, err := countFiles(g.local)
	if err != nil {
		return fmt.Errorf("count local files: %w", err)
	}
	remoteCount, err := countFiles(res.RemoteDir)
	if err != nil {
		return fmt.Errorf("count remote files: %w", err)
	}
	res.Files = remoteCount
	if local != remoteCount {
		return fmt.Errorf("%w: %s: %d local, %d remote", ErrTransferIncomplete, res.RemoteDir, local, remoteCount)
	}

	if a.cleanup {
		if err := os.RemoveAll(g.local); err != nil {
			return fmt.Errorf("remove local results: %w", err)
		}
		res.Removed = true
	}
	return nil
}

func (a *Archiver) run(ctx context.Context, args []string, log io.Writer) error {
	proc, err := a.launcher.Launch(ctx, args, "", log)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSync, err)
	}
	code, err := proc.Wait()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSync, err)
	}
	if code != 0 {
		return fmt.Errorf("%w: exit code %d", ErrSync, code)
	}
	return nil
}

// plots возвращает картинки рядом с отчётом и в step3/filtered_feature_bc_matrix.
func plots(dir string) []string {
	var out []string
	for _, pattern := range []string{
		filepath.Join(dir, "*.png"),
		filepath.Join(dir, "step3", "filtered_feature_bc_matrix", "*.png"),
	} {
		matches, _ := filepath.Glob(pattern)
		out = append(out, matches...)
	}
	return out
}

func firstMatch(pattern string) string {
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[0]
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

func countFiles(root string) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	return n, err
}
