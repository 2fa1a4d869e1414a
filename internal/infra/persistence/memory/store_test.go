package memory

import (
	"claimcore/pkg/domain"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingRule struct{}

func (blockingRule) Name() string { return "block_everything" }

func (blockingRule) Evaluate(context.Context, domain.RuleView, []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{Rule: "block_everything", Severity: domain.SeverityBlock, Message: "blocked"}}}, nil
}

type recordingRule struct {
	changes []domain.Change
}

func (r *recordingRule) Name() string { return "recording" }

func (r *recordingRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	r.changes = append(r.changes, changes...)
	return domain.Result{}, nil
}

func fixedClock() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }

func TestStoreRunInTransactionAndSnapshots(t *testing.T) {
	store := NewStore(nil, WithClock(fixedClock))
	ctx := context.Background()

	var holder domain.Policyholder
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, ok := tx.FindPolicyholder("missing")
		assert.False(t, ok)

		var err error
		holder, err = tx.CreatePolicyholder(domain.Policyholder{Name: "Jane Doe", Age: 30, PolicyType: domain.PolicyHealth, SumInsured: 50000})
		if err != nil {
			return err
		}
		assert.NotEmpty(t, holder.ID)

		claim, err := tx.CreateClaim(domain.Claim{PolicyholderID: holder.ID, Amount: 100, Reason: "checkup", Status: domain.ClaimPending})
		if err != nil {
			return err
		}
		assert.Equal(t, fixedClock(), claim.Date)
		assert.Len(t, tx.Snapshot().ListClaims(), 1)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, store.ListPolicyholders(), 1)
	require.Len(t, store.ListClaims(), 1)

	got, ok := store.GetPolicyholder(holder.ID)
	require.True(t, ok)
	assert.Equal(t, holder, got)

	snapshot := store.ExportState()
	store.ImportState(Snapshot{})
	assert.Empty(t, store.ListPolicyholders())
	store.ImportState(snapshot)
	assert.Len(t, store.ListClaims(), 1)
	assert.NotNil(t, store.RulesEngine())
	assert.Equal(t, fixedClock(), store.NowFunc()())
}

func TestStoreRollsBackOnError(t *testing.T) {
	store := NewStore(nil)
	boom := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreatePolicyholder(domain.Policyholder{Name: "Ghost"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.ListPolicyholders())
}

func TestStorePersistFailureKeepsPreviousState(t *testing.T) {
	diskFull := errors.New("disk full")
	fail := false
	var written []Snapshot
	store := NewStore(nil, WithPersist(func(_ context.Context, snapshot Snapshot) error {
		if fail {
			return diskFull
		}
		written = append(written, snapshot)
		return nil
	}))
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreatePolicyholder(domain.Policyholder{ID: "p1", Name: "Kept"})
		return err
	})
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.Contains(t, written[0].Policyholders, "p1")

	fail = true
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreatePolicyholder(domain.Policyholder{ID: "p2", Name: "Lost"})
		return err
	})
	assert.ErrorIs(t, err, diskFull)
	_, ok := store.GetPolicyholder("p2")
	assert.False(t, ok)
	assert.Len(t, store.ListPolicyholders(), 1)
	assert.Len(t, written, 1)
}

func TestStoreRuleViolationBlocksCommit(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	store.RulesEngine().Register(blockingRule{})
	res, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreatePolicyholder(domain.Policyholder{Name: "Blocked"})
		return e
	})
	require.Error(t, err)
	assert.True(t, domain.IsRuleViolation(err))
	assert.True(t, res.HasBlocking())
	assert.Empty(t, store.ListPolicyholders())
}

func TestStoreDuplicateCreateFails(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreatePolicyholder(domain.Policyholder{ID: "p1", Name: "A"}); err != nil {
			return err
		}
		_, err := tx.CreatePolicyholder(domain.Policyholder{ID: "p1", Name: "B"})
		return err
	})
	require.Error(t, err)
	assert.Empty(t, store.ListPolicyholders())
}

func TestStorePutReplacesAndRecordsImportChanges(t *testing.T) {
	rule := &recordingRule{}
	engine := domain.NewRulesEngine()
	engine.Register(rule)
	store := NewStore(engine)
	ctx := context.Background()
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	for _, amount := range []float64{100, 250} {
		_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if _, err := tx.PutPolicyholder(domain.Policyholder{ID: "C1", Name: "Customer C1", Age: 30, PolicyType: domain.PolicyVehicle, SumInsured: 1000}); err != nil {
				return err
			}
			_, err := tx.PutClaim(domain.Claim{ID: "CL1", PolicyholderID: "C1", Amount: amount, Status: domain.ClaimApproved, Date: day})
			return err
		})
		require.NoError(t, err)
	}

	claim, ok := store.GetClaim("CL1")
	require.True(t, ok)
	assert.Equal(t, 250.0, claim.Amount)
	assert.Equal(t, day, claim.Date)
	require.Len(t, rule.changes, 4)
	last := rule.changes[3]
	assert.Equal(t, domain.ActionImport, last.Action)
	before, ok := last.Before.(domain.Claim)
	require.True(t, ok)
	assert.Equal(t, 100.0, before.Amount)

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.PutClaim(domain.Claim{})
		return err
	})
	assert.Error(t, err)
}

func TestStoreUpdateClaim(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateClaim(domain.Claim{ID: "c1", PolicyholderID: "p1", Amount: 10, Status: domain.ClaimPending})
		return err
	})
	require.NoError(t, err)

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateClaim("c1", func(c *domain.Claim) error {
			c.Status = domain.ClaimApproved
			c.ID = "tampered"
			return nil
		})
		return err
	})
	require.NoError(t, err)
	claim, ok := store.GetClaim("c1")
	require.True(t, ok)
	assert.Equal(t, domain.ClaimApproved, claim.Status)
	assert.Equal(t, "c1", claim.ID)

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateClaim("nope", func(*domain.Claim) error { return nil })
		return err
	})
	assert.True(t, domain.IsNotFound(err))
}

func TestStoreListOrderIsStable(t *testing.T) {
	store := NewStore(nil)
	early := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(24 * time.Hour)
	store.ImportState(Snapshot{
		Policyholders: map[string]domain.Policyholder{"b": {ID: "b"}, "a": {ID: "a"}},
		Claims: map[string]domain.Claim{
			"z": {ID: "z", Date: early},
			"y": {ID: "y", Date: late},
			"x": {ID: "x", Date: early},
		},
	})

	var ids []string
	for _, c := range store.ListClaims() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"x", "z", "y"}, ids)
	holders := store.ListPolicyholders()
	assert.Equal(t, "a", holders[0].ID)

	err := store.View(context.Background(), func(view domain.TransactionView) error {
		assert.Len(t, view.ListClaims(), 3)
		_, ok := view.FindClaim("y")
		assert.True(t, ok)
		_, ok = view.FindPolicyholder("b")
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
}
