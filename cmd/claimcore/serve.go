package main

import (
	"claimcore/internal/adapters/exports"
	"claimcore/internal/adapters/httpapi"
	"claimcore/internal/blob"
	"claimcore/internal/core"
	"claimcore/pkg/domain"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, csvPath)
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "claims CSV to import before serving (overrides import.csv_path)")
	return cmd
}

func (a *app) serve(ctx context.Context, csvPath string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return err
	}

	svc, closeStore, err := a.openService(ctx, core.WithMetricsRecorder(recorder))
	if err != nil {
		return err
	}
	defer closeStore()

	if csvPath == "" {
		csvPath = a.cfg.Import.CSVPath
	}
	if csvPath != "" {
		if _, err := svc.ImportClaimsCSV(ctx, csvPath); err != nil {
			if !domain.IsImport(err) {
				return err
			}
			a.logger.Warn("startup import skipped", zap.String("path", csvPath), zap.Error(err))
		}
	}

	opts := []httpapi.Option{httpapi.WithLogger(a.logger), httpapi.WithMetrics(reg, reg)}
	blobs, err := blob.Open(ctx, a.cfg.BlobOptions())
	if err != nil {
		a.logger.Warn("blob store unavailable, report exports disabled", zap.Error(err))
	} else {
		worker := exports.NewWorker(svc, blobs, exports.WithLogger(a.logger))
		worker.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = worker.Stop(stopCtx)
		}()
		opts = append(opts, httpapi.WithExports(worker))
	}

	router, err := httpapi.NewRouter(svc, opts...)
	if err != nil {
		return err
	}
	return httpapi.Serve(ctx, a.cfg.HTTP.Addr, router, a.logger)
}
