package main

import (
	"claimcore/internal/blob"
	"claimcore/internal/core"
	"fmt"

	"github.com/spf13/cobra"
)

func newArchiveCmd(a *app) *cobra.Command {
	var (
		prefix string
		list   bool
		keep   int
	)
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Write the current snapshot to the blob store",
		Long: `Writes the current snapshot document to <prefix>/<UTC timestamp>.json in
the configured blob store. With --list, prints existing archives instead.
With --keep N (or archive.keep), older archives beyond the newest N are
deleted after writing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("prefix") {
				prefix = a.cfg.Archive.Prefix
			}
			if !cmd.Flags().Changed("keep") {
				keep = a.cfg.Archive.Keep
			}
			store, err := blob.Open(ctx, a.cfg.BlobOptions())
			if err != nil {
				return err
			}
			if list {
				infos, err := core.ListArchives(ctx, store, prefix)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), infos)
			}

			svc, closeStore, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()
			info, err := svc.ArchiveSnapshot(ctx, store, prefix)
			if err != nil {
				return err
			}
			result := map[string]any{"archived": info}
			if keep > 0 {
				deleted, err := core.PruneArchives(ctx, store, prefix, keep)
				if err != nil {
					return fmt.Errorf("prune archives: %w", err)
				}
				result["pruned"] = deleted
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "snapshots", "blob key prefix for archives")
	cmd.Flags().BoolVar(&list, "list", false, "list existing archives")
	cmd.Flags().IntVar(&keep, "keep", 0, "keep only the newest N archives (0 keeps all)")
	return cmd
}
