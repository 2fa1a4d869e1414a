package core

import (
	"claimcore/pkg/domain"
	"context"
	"fmt"
)

const claimStatusTransitionRuleName = "claim_status_transition"

// ClaimStatusTransitionRule blocks status updates that leave the canonical
// status set or move an Approved claim back to Pending. Imports are
// authoritative and are not checked.
func ClaimStatusTransitionRule() domain.Rule {
	return claimStatusTransitionRule{}
}

type claimStatusTransitionRule struct{}

func (claimStatusTransitionRule) Name() string { return claimStatusTransitionRuleName }

func (claimStatusTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityClaim || change.Action != domain.ActionUpdate {
			continue
		}
		before, okBefore := change.Before.(domain.Claim)
		after, okAfter := change.After.(domain.Claim)
		if !okBefore || !okAfter || before.Status == after.Status {
			continue
		}
		if before.Status.CanTransition(after.Status) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     claimStatusTransitionRuleName,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("cannot move claim %s from %s to %s", after.ID, before.Status, after.Status),
			Entity:   domain.EntityClaim,
			EntityID: after.ID,
		})
	}
	return res, nil
}
