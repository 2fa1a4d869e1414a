package core

import (
	"claimcore/pkg/domain"
	"context"
	"fmt"
)

const claimPolicyholderReferenceRuleName = "claim_policyholder_reference"

// ClaimPolicyholderReferenceRule warns when a written claim points at a
// policyholder that does not exist in the post-transaction view.
func ClaimPolicyholderReferenceRule() domain.Rule {
	return claimPolicyholderReferenceRule{}
}

type claimPolicyholderReferenceRule struct{}

func (claimPolicyholderReferenceRule) Name() string { return claimPolicyholderReferenceRuleName }

func (claimPolicyholderReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityClaim {
			continue
		}
		claim, ok := change.After.(domain.Claim)
		if !ok {
			continue
		}
		if _, exists := view.FindPolicyholder(claim.PolicyholderID); exists {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     claimPolicyholderReferenceRuleName,
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("claim %s references unknown policyholder %q", claim.ID, claim.PolicyholderID),
			Entity:   domain.EntityClaim,
			EntityID: claim.ID,
		})
	}
	return res, nil
}
