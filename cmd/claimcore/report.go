package main

import (
	"claimcore/internal/core"
	"claimcore/internal/ingest"
	"os"

	"github.com/spf13/cobra"
)

type preprocessReport struct {
	Source     string                        `json:"source"`
	Stats      ingest.PreprocessStats        `json:"stats"`
	Rejections map[ingest.RejectionClass]int `json:"rejections"`
}

type reportOutput struct {
	core.ReportSummary
	Preprocess *preprocessReport `json:"preprocess,omitempty"`
}

func newReportCmd(a *app) *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print every report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, closeStore, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			summary, err := svc.Summary(ctx)
			if err != nil {
				return err
			}
			out := reportOutput{ReportSummary: summary}
			if csvPath != "" {
				pre, err := preprocessFile(csvPath)
				if err != nil {
					return err
				}
				out.Preprocess = pre
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "raw claims CSV to clean and break down by rejection class")
	return cmd
}

func preprocessFile(path string) (*preprocessReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	rows, stats, err := ingest.Preprocess(f)
	if err != nil {
		return nil, err
	}
	return &preprocessReport{Source: path, Stats: stats, Rejections: ingest.RejectionBreakdown(rows)}, nil
}
