package core

import (
	"claimcore/internal/blob"
	"claimcore/internal/ingest"
	"claimcore/pkg/domain"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// ImportClaims loads a claims CSV from r in a single transaction. On any
// malformed row nothing is applied and a *domain.ImportError is returned.
func (s *Service) ImportClaims(ctx context.Context, source string, r io.Reader) (summary ingest.Summary, err error) {
	defer s.observe(ctx, "import_claims", time.Now(), &err)
	_, err = s.run(ctx, "import_claims", func(tx Transaction) error {
		var applyErr error
		summary, applyErr = ingest.Apply(tx, source, r)
		return applyErr
	})
	if err != nil {
		s.logger.Warn("claims import failed", zap.String("source", source), zap.Error(err))
		return ingest.Summary{Source: source}, err
	}
	s.logger.Info("claims imported",
		zap.String("source", source),
		zap.Int("rows_read", summary.RowsRead),
		zap.Int("policyholders_derived", summary.PolicyholdersDerived),
		zap.Int("claims_imported", summary.ClaimsImported),
		zap.Int("rows_skipped", summary.RowsSkipped))
	return summary, nil
}

// ImportClaimsCSV imports the CSV file at path.
func (s *Service) ImportClaimsCSV(ctx context.Context, path string) (ingest.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return ingest.Summary{Source: path}, &domain.ImportError{Source: path, Err: err}
	}
	defer func() { _ = f.Close() }()
	return s.ImportClaims(ctx, path, f)
}

// ImportClaimsFromBlob streams the CSV object at key from store.
func (s *Service) ImportClaimsFromBlob(ctx context.Context, store blob.Store, key string) (ingest.Summary, error) {
	source := fmt.Sprintf("%s://%s", store.Driver(), key)
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return ingest.Summary{Source: source}, &domain.ImportError{Source: source, Err: err}
	}
	defer func() { _ = rc.Close() }()
	return s.ImportClaims(ctx, source, rc)
}
