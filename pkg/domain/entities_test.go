package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyTypeValid(t *testing.T) {
	for _, p := range PolicyTypes() {
		assert.True(t, p.Valid(), "policy type %s", p)
	}
	assert.False(t, PolicyType("Travel").Valid())
	assert.False(t, PolicyType("health").Valid())
	assert.False(t, PolicyType("").Valid())
}

func TestClaimStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ClaimStatus
		want     bool
	}{
		{ClaimPending, ClaimApproved, true},
		{ClaimPending, ClaimRejected, true},
		{ClaimPending, ClaimPending, true},
		{ClaimApproved, ClaimRejected, true},
		{ClaimApproved, ClaimApproved, true},
		{ClaimApproved, ClaimPending, false},
		{ClaimRejected, ClaimPending, true},
		{ClaimRejected, ClaimApproved, true},
		{ClaimPending, ClaimStatus("Closed"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestResultMergeAndBlocking(t *testing.T) {
	var res Result
	res.Merge(Result{})
	assert.Empty(t, res.Violations)
	assert.False(t, res.HasBlocking())

	res.Merge(Result{Violations: []Violation{{Rule: "a", Severity: SeverityWarn}}})
	assert.False(t, res.HasBlocking())

	res.Merge(Result{Violations: []Violation{{Rule: "b", Severity: SeverityBlock}}})
	assert.Len(t, res.Violations, 2)
	assert.True(t, res.HasBlocking())
}
