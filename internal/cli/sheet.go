package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shaiso/scauto/internal/runsheet"
)

// NewSheetCmd создаёт группу команд run sheet.
func NewSheetCmd(configFn ConfigFunc, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Build flowcell run sheets",
	}

	var (
		flowcell string
		outPath  string
	)

	build := &cobra.Command{
		Use:   "build INFO_SHEET",
		Short: "Build <flowcell>-run_sheet.csv from the lab info sheet",
		Long: "Selects the flowcell rows of the info sheet, checks that every supported sample\n" +
			"has FASTQ files and writes the run sheet into the run sheet directory.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFn()
			if err != nil {
				return err
			}
			tables, err := cfg.Tables()
			if err != nil {
				return err
			}

			info, err := runsheet.LoadInfo(args[0])
			if err != nil {
				return err
			}
			samples, err := runsheet.Build(info, runsheet.BuildOptions{
				Flowcell: flowcell,
				Tables:   tables,
				Roots:    cfg.Roots,
				ImageDir: cfg.ImageDir,
			})
			if err != nil {
				return err
			}

			path := outPath
			if path == "" {
				path = filepath.Join(cfg.RunSheetDir, runsheet.Filename(flowcell))
			}
			if err := runsheet.Save(path, samples); err != nil {
				return err
			}

			out := outputFn()
			rows := make([][]string, len(samples))
			for i, s := range samples {
				rows[i] = []string{s.SampleID, s.Reference, string(s.Chemistry), s.Tissue}
			}
			out.Print([]string{"SAMPLE", "REFERENCE", "CHEMISTRY", "TISSUE"}, rows, map[string]any{
				"run_sheet": path,
				"samples":   samples,
			})
			if !out.jsonMode {
				out.Success(fmt.Sprintf("Run sheet written: %s", path))
			}
			return nil
		},
	}
	build.Flags().StringVar(&flowcell, "flowcell", "", "Flowcell id")
	build.Flags().StringVar(&outPath, "out", "", "Output path (default: <run_sheet_dir>/<flowcell>-run_sheet.csv)")
	_ = build.MarkFlagRequired("flowcell")

	cmd.AddCommand(build)
	return cmd
}
