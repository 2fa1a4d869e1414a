package main

import (
	"claimcore/internal/config"
	"claimcore/internal/core"
	"claimcore/internal/logging"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries state resolved by the root command for its subcommands.
type app struct {
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:          "claimcore",
		Short:        "Policyholder and claims record service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logger, err := logging.New(cfg.Log.Level, a.verbose)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "development logging at debug level")

	root.AddCommand(
		newServeCmd(a),
		newImportCmd(a),
		newReportCmd(a),
		newArchiveCmd(a),
	)
	return root
}

// openService opens the configured store and wraps it in a service. The
// returned func releases the store.
func (a *app) openService(ctx context.Context, opts ...core.ServiceOption) (*core.Service, func(), error) {
	store, err := core.OpenPersistentStore(ctx, a.cfg.StorageOptions(), core.NewDefaultRulesEngine(), a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closeFn := func() {
		if err := core.CloseStore(store); err != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
	}
	opts = append([]core.ServiceOption{core.WithLogger(a.logger)}, opts...)
	return core.NewService(store, opts...), closeFn, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
