package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewFlowcellCmd создаёт группу команд для запусков flowcell через API.
func NewFlowcellCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flowcell",
		Short: "Inspect and enqueue flowcell runs",
	}

	cmd.AddCommand(
		newFlowcellListCmd(clientFn, outputFn),
		newFlowcellShowCmd(clientFn, outputFn),
		newFlowcellSamplesCmd(clientFn, outputFn),
		newFlowcellEnqueueCmd(clientFn, outputFn),
	)

	return cmd
}

func newFlowcellListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListFlowcellsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List flowcell runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := clientFn().ListFlowcells(opts)
			if err != nil {
				return err
			}

			headers := []string{"ID", "FLOWCELL", "STATUS", "SAMPLES", "OK", "FAILED", "SKIPPED", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.ID, r.Flowcell, r.Status,
					strconv.Itoa(r.Samples), strconv.Itoa(r.Processed),
					strconv.Itoa(r.Failed), strconv.Itoa(r.Skipped),
					r.CreatedAt,
				}
			}

			outputFn().Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Flowcell, "flowcell", "", "Filter by flowcell")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED, SKIPPED)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newFlowcellShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show flowcell run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := clientFn().GetFlowcell(args[0])
			if err != nil {
				return err
			}

			outputFn().Details([][2]string{
				{"ID", run.ID},
				{"Flowcell", run.Flowcell},
				{"Status", run.Status},
				{"Phase", run.Phase},
				{"Budget", fmt.Sprintf("%d cores, %d GB per sample", run.Budget.CoresPerSample, run.Budget.MemoryPerSampleGB)},
				{"Samples", fmt.Sprintf("%d (ok %d, failed %d, skipped %d)", run.Samples, run.Processed, run.Failed, run.Skipped)},
				{"Annotation", fmt.Sprintf("ok %d, failed %d", run.Annotated, run.AnnotationFailed)},
				{"Duration", (time.Duration(run.DurationMs) * time.Millisecond).String()},
				{"Error", run.Error},
				{"Created", run.CreatedAt},
			}, run)
			return nil
		},
	}
}

func newFlowcellSamplesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "samples ID",
		Short: "List samples of a flowcell run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := clientFn().ListSamples(args[0])
			if err != nil {
				return err
			}

			headers := []string{"#", "SAMPLE", "CHEMISTRY", "STATUS", "EXIT", "ANNOTATED", "ERROR"}
			rows := make([][]string, len(samples))
			for i, s := range samples {
				rows[i] = []string{
					strconv.Itoa(s.Position + 1), s.SampleID, s.Chemistry, s.Status,
					exitCode(s.ExitCode), annotated(s.Annotated), s.Error,
				}
			}

			outputFn().Print(headers, rows, samples)
			return nil
		},
	}
}

func newFlowcellEnqueueCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var runSheet string

	cmd := &cobra.Command{
		Use:   "enqueue FLOWCELL",
		Short: "Queue a flowcell for processing by the orchestrator daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := clientFn().Enqueue(args[0], runSheet)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Flowcell queued: %s", resp.Flowcell))
			if out.jsonMode {
				out.JSON(resp)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runSheet, "run-sheet", "", "Run sheet path (default: <run_sheet_dir>/<flowcell>-run_sheet.csv)")

	return cmd
}

func exitCode(code *int) string {
	if code == nil {
		return "-"
	}
	return strconv.Itoa(*code)
}

func annotated(v *bool) string {
	switch {
	case v == nil:
		return "-"
	case *v:
		return "yes"
	default:
		return "no"
	}
}
