// Package core hosts the claimcore service: validated mutations, reports,
// CSV import, snapshot archiving and storage selection.
package core

import (
	"claimcore/internal/infra/persistence/memory"
	"claimcore/pkg/domain"
	"context"
	"time"

	"go.uber.org/zap"
)

// Service exposes validated transactional operations over a persistent store.
type Service struct {
	store   PersistentStore
	logger  *zap.Logger
	metrics MetricsRecorder
	now     func() time.Time
}

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithLogger sets the structured logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the metrics sink. Nil keeps the no-op recorder.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithClock overrides the time source used for claim dates, report windows
// and archive keys.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		logger:  zap.NewNop(),
		metrics: noopMetricsRecorder{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store with the default rules.
func NewInMemoryService(opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(NewDefaultRulesEngine()), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// observe records metrics for an operation started at start. Call it deferred
// with a pointer to the named error result.
func (s *Service) observe(ctx context.Context, op string, start time.Time, errp *error) {
	success := errp == nil || *errp == nil
	s.metrics.Observe(ctx, op, success, time.Since(start))
	if !success {
		s.logger.Debug("operation failed", zap.String("operation", op), zap.Error(*errp))
	}
}

func (s *Service) run(ctx context.Context, op string, fn func(Transaction) error) (Result, error) {
	res, err := s.store.RunInTransaction(ctx, fn)
	for _, v := range res.Violations {
		fields := []zap.Field{
			zap.String("operation", op),
			zap.String("rule", v.Rule),
			zap.String("entity", string(v.Entity)),
			zap.String("entity_id", v.EntityID),
		}
		switch v.Severity {
		case domain.SeverityBlock:
			s.logger.Warn("rule blocked transaction: "+v.Message, fields...)
		case domain.SeverityWarn:
			s.logger.Warn(v.Message, fields...)
		default:
			s.logger.Info(v.Message, fields...)
		}
	}
	return res, err
}

// RegisterPolicyholder validates and stores a new policyholder, returning its id.
func (s *Service) RegisterPolicyholder(ctx context.Context, name string, age int, policyType PolicyType, sumInsured float64) (id string, err error) {
	defer s.observe(ctx, "register_policyholder", time.Now(), &err)
	if err := validatePolicyholder(name, age, policyType, sumInsured); err != nil {
		return "", err
	}
	_, err = s.run(ctx, "register_policyholder", func(tx Transaction) error {
		created, err := tx.CreatePolicyholder(Policyholder{
			Name:       name,
			Age:        age,
			PolicyType: policyType,
			SumInsured: sumInsured,
		})
		id = created.ID
		return err
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("policyholder registered", zap.String("policyholder_id", id), zap.String("policy_type", string(policyType)))
	return id, nil
}

// SubmitClaim validates and stores a Pending claim dated now, returning its id.
func (s *Service) SubmitClaim(ctx context.Context, policyholderID string, amount float64, reason string) (id string, err error) {
	defer s.observe(ctx, "submit_claim", time.Now(), &err)
	_, err = s.run(ctx, "submit_claim", func(tx Transaction) error {
		holder, ok := tx.FindPolicyholder(policyholderID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityPolicyholder, ID: policyholderID}
		}
		if err := validateClaim(holder, amount, reason); err != nil {
			return err
		}
		created, err := tx.CreateClaim(Claim{
			PolicyholderID: policyholderID,
			Amount:         amount,
			Reason:         reason,
			Status:         domain.ClaimPending,
			Date:           s.now().UTC(),
		})
		id = created.ID
		return err
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("claim submitted", zap.String("claim_id", id), zap.String("policyholder_id", policyholderID))
	return id, nil
}

// UpdateClaimStatus moves a claim to status. Approved claims cannot return to Pending.
func (s *Service) UpdateClaimStatus(ctx context.Context, claimID string, status ClaimStatus) (err error) {
	defer s.observe(ctx, "update_claim_status", time.Now(), &err)
	_, err = s.run(ctx, "update_claim_status", func(tx Transaction) error {
		_, err := tx.UpdateClaim(claimID, func(c *Claim) error {
			if err := validateStatusChange(c.Status, status); err != nil {
				return err
			}
			c.Status = status
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Info("claim status updated", zap.String("claim_id", claimID), zap.String("status", string(status)))
	return nil
}
