package cli

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/scauto/internal/app"
	"github.com/shaiso/scauto/internal/config"
	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/orchestrator"
	"github.com/shaiso/scauto/internal/paths"
	"github.com/shaiso/scauto/internal/runsheet"
	"github.com/shaiso/scauto/internal/skiplist"
)

// ConfigFunc загружает конфигурацию после разбора флагов.
type ConfigFunc func() (*config.Config, error)

// NewProcessCmd создаёт команду локальной обработки run sheet.
func NewProcessCmd(configFn ConfigFunc, loggerFn func() *slog.Logger, outputFn func() *Output) *cobra.Command {
	var flowcell string

	cmd := &cobra.Command{
		Use:   "process RUN_SHEET",
		Short: "Process a flowcell run sheet on this machine",
		Long: "Dispatches every sample of the run sheet, waits for the tools, annotates eligible\n" +
			"samples and writes destination paths back into the run sheet.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFn()
			if err != nil {
				return err
			}

			sheet := args[0]
			if flowcell == "" {
				flowcell, err = flowcellOf(sheet)
				if err != nil {
					return err
				}
			}

			a, err := app.New(cfg, loggerFn(), app.Options{})
			if err != nil {
				return err
			}

			report, err := a.Daemon.RunFlowcell(cmd.Context(), flowcell, sheet)
			if report != nil {
				printReport(outputFn(), report)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&flowcell, "flowcell", "", "Flowcell id (default: from the run sheet file name)")

	return cmd
}

// flowcellOf берёт flowcell из имени файла или из первой строки run sheet.
func flowcellOf(sheet string) (string, error) {
	if fc, err := runsheet.FlowcellFromFilename(sheet); err == nil {
		return fc, nil
	}
	samples, err := runsheet.Load(sheet)
	if err != nil {
		return "", err
	}
	if len(samples) == 0 || samples[0].Flowcell == "" {
		return "", runsheet.ErrEmptySheet
	}
	return samples[0].Flowcell, nil
}

func printReport(out *Output, report *orchestrator.Report) {
	headers := []string{"#", "SAMPLE", "CHEMISTRY", "STATUS", "EXIT", "ANNOTATED", "REMOTE", "ERROR"}
	rows := make([][]string, len(report.Samples))
	for i, s := range report.Samples {
		rows[i] = []string{
			strconv.Itoa(s.Position + 1), s.SampleID, string(s.Chemistry), string(s.Status),
			exitCode(s.ExitCode), annotated(s.Annotated), s.RemotePath, s.Error,
		}
	}
	out.Print(headers, rows, report)

	if !out.jsonMode {
		out.Success(fmt.Sprintf(
			"%s: %d processed, %d failed, %d skipped, %d annotated, %d annotation failures in %s",
			report.Status, report.Processed, report.Failed, report.Skipped,
			report.Annotated, report.AnnotationFailed, report.Duration.Round(time.Second),
		))
		if report.Archive != nil {
			for _, g := range report.Archive.Groups {
				out.Success(fmt.Sprintf("Archived %s: %d reports, %d files -> %s", g.Chemistry, g.Reports, g.Files, g.RemoteDir))
			}
		}
	}
}

// NewResourcesCmd создаёт команду расчёта ресурсов батча.
func NewResourcesCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "resources N",
		Short: "Show the per-sample resource budget for a batch of N samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid sample count %q", args[0])
			}

			budget, err := orchestrator.AllocateResources(n)
			if err != nil {
				return err
			}
			cores, memory := budget.Totals(n)

			outputFn().Details([][2]string{
				{"Samples", strconv.Itoa(n)},
				{"Cores per sample", strconv.Itoa(budget.CoresPerSample)},
				{"Memory per sample (GB)", strconv.Itoa(budget.MemoryPerSampleGB)},
				{"Total cores", strconv.Itoa(cores)},
				{"Total memory (GB)", strconv.Itoa(memory)},
			}, map[string]int{
				"samples":              n,
				"cores_per_sample":     budget.CoresPerSample,
				"memory_per_sample_gb": budget.MemoryPerSampleGB,
				"total_cores":          cores,
				"total_memory_gb":      memory,
			})
			return nil
		},
	}
}

// NewChemistriesCmd создаёт команду списка поддерживаемых chemistry.
func NewChemistriesCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "chemistries",
		Short: "List supported chemistries",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := paths.Default()
			if err != nil {
				return err
			}

			type chemistryInfo struct {
				Code      domain.Chemistry `json:"code"`
				Tool      string           `json:"tool"`
				RemoteDir string           `json:"remote_dir"`
			}

			chems := domain.Chemistries()
			infos := make([]chemistryInfo, len(chems))
			rows := make([][]string, len(chems))
			for i, c := range chems {
				remote, _ := tables.RemoteDir(c)
				infos[i] = chemistryInfo{Code: c, Tool: tables.Tools[c], RemoteDir: remote}
				rows[i] = []string{string(c), tables.Tools[c], remote}
			}

			outputFn().Print([]string{"CHEMISTRY", "TOOL", "REMOTE"}, rows, infos)
			return nil
		},
	}
}

// NewSkipCmd создаёт группу команд skip-листа.
func NewSkipCmd(configFn ConfigFunc, loggerFn func() *slog.Logger, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skip",
		Short: "Manage the flowcell skip list",
	}

	open := func() (*skiplist.List, error) {
		cfg, err := configFn()
		if err != nil {
			return nil, err
		}
		return skiplist.Open(cfg.SkipListPath, loggerFn())
	}

	var reason string
	add := &cobra.Command{
		Use:   "add FLOWCELL",
		Short: "Add a flowcell to the skip list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := open()
			if err != nil {
				return err
			}
			added, err := list.Add(args[0], reason)
			if err != nil {
				return err
			}

			out := outputFn()
			if !added {
				out.Success(fmt.Sprintf("Flowcell already skipped: %s", args[0]))
				return nil
			}
			out.Success(fmt.Sprintf("Flowcell skipped: %s", args[0]))
			return nil
		},
	}
	add.Flags().StringVar(&reason, "reason", "manual", "Reason recorded in the log")

	list := &cobra.Command{
		Use:   "list",
		Short: "List skipped flowcells",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := open()
			if err != nil {
				return err
			}

			flowcells := l.Flowcells()
			rows := make([][]string, len(flowcells))
			for i, fc := range flowcells {
				rows[i] = []string{fc}
			}
			outputFn().Print([]string{"FLOWCELL"}, rows, map[string]any{
				"skip_flowcells": flowcells,
				"last_updated":   l.LastUpdated(),
			})
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}
