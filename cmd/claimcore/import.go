package main

import (
	"claimcore/internal/blob"
	"claimcore/internal/ingest"

	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	var fromBlob bool
	cmd := &cobra.Command{
		Use:   "import <file|blob-key>",
		Short: "Import a claims CSV into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeStore, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			var summary ingest.Summary
			if fromBlob {
				store, err := blob.Open(ctx, a.cfg.BlobOptions())
				if err != nil {
					return err
				}
				summary, err = svc.ImportClaimsFromBlob(ctx, store, args[0])
				if err != nil {
					return err
				}
			} else {
				summary, err = svc.ImportClaimsCSV(ctx, args[0])
				if err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().BoolVar(&fromBlob, "from-blob", false, "treat the argument as a key in the configured blob store")
	return cmd
}
