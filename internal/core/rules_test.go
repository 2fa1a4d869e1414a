package core

import (
	"claimcore/pkg/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRulesEngineRegistersClaimRules(t *testing.T) {
	assert.Equal(t, []string{claimStatusTransitionRuleName, claimPolicyholderReferenceRuleName}, NewDefaultRulesEngine().Rules())
}

func TestStatusTransitionRuleBlocksApprovedToPending(t *testing.T) {
	svc := newTestService(t)
	date := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	seed(t, svc,
		[]Policyholder{{ID: "p", Name: "Rule Holder", Age: 40, PolicyType: domain.PolicyLife, SumInsured: 100}},
		[]Claim{{ID: "c", PolicyholderID: "p", Amount: 10, Reason: "r", Status: domain.ClaimApproved, Date: date}})

	res, err := svc.Store().RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpdateClaim("c", func(c *Claim) error {
			c.Status = domain.ClaimPending
			return nil
		})
		return err
	})
	require.Error(t, err)
	assert.True(t, domain.IsRuleViolation(err))
	assert.True(t, res.HasBlocking())
	claim, _ := svc.Store().GetClaim("c")
	assert.Equal(t, domain.ClaimApproved, claim.Status)
}

func TestStatusTransitionRuleIgnoresImports(t *testing.T) {
	rule := ClaimStatusTransitionRule()
	before := Claim{ID: "c", Status: domain.ClaimApproved}
	after := Claim{ID: "c", Status: domain.ClaimPending}
	res, err := rule.Evaluate(context.Background(), nil, []domain.Change{
		{Entity: domain.EntityClaim, Action: domain.ActionImport, Before: before, After: after},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Violations)

	res, err = rule.Evaluate(context.Background(), nil, []domain.Change{
		{Entity: domain.EntityClaim, Action: domain.ActionUpdate, Before: before, After: after},
	})
	require.NoError(t, err)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, domain.SeverityBlock, res.Violations[0].Severity)
}

func TestPolicyholderReferenceRuleWarns(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.Store().RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.PutClaim(Claim{ID: "orphan", PolicyholderID: "ghost", Amount: 1, Reason: "r", Status: domain.ClaimPending})
		return err
	})
	require.NoError(t, err)
	require.Len(t, res.Violations, 1)
	v := res.Violations[0]
	assert.Equal(t, claimPolicyholderReferenceRuleName, v.Rule)
	assert.Equal(t, domain.SeverityWarn, v.Severity)
	assert.Equal(t, "orphan", v.EntityID)
	_, ok := svc.Store().GetClaim("orphan")
	assert.True(t, ok)
}
