// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by claimcore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityPolicyholder identifies an insured party record.
	EntityPolicyholder EntityType = "policyholder"
	// EntityClaim identifies a claim record.
	EntityClaim EntityType = "claim"
)

// PolicyType enumerates the coverage products a policyholder may hold.
type PolicyType string

// Supported policy types.
const (
	PolicyHealth  PolicyType = "Health"
	PolicyVehicle PolicyType = "Vehicle"
	PolicyLife    PolicyType = "Life"
)

// PolicyTypes lists every policy type in reporting order.
func PolicyTypes() []PolicyType {
	return []PolicyType{PolicyHealth, PolicyVehicle, PolicyLife}
}

// Valid reports whether p is one of the supported policy types.
func (p PolicyType) Valid() bool {
	switch p {
	case PolicyHealth, PolicyVehicle, PolicyLife:
		return true
	default:
		return false
	}
}

// ClaimStatus enumerates claim workflow states.
type ClaimStatus string

// Canonical claim statuses. Approved claims never move back to Pending.
const (
	ClaimPending  ClaimStatus = "Pending"
	ClaimApproved ClaimStatus = "Approved"
	ClaimRejected ClaimStatus = "Rejected"
)

// Valid reports whether s is one of the canonical claim statuses.
func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimPending, ClaimApproved, ClaimRejected:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a claim in status s may move to next.
func (s ClaimStatus) CanTransition(next ClaimStatus) bool {
	if !next.Valid() {
		return false
	}
	return s != ClaimApproved || next != ClaimPending
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Policyholder is an insured party with a coverage limit.
type Policyholder struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Age        int        `json:"age"`
	PolicyType PolicyType `json:"policy_type"`
	SumInsured float64    `json:"sum_insured"`
}

// Claim is a request for payout against a policyholder's coverage.
type Claim struct {
	ID             string      `json:"id"`
	PolicyholderID string      `json:"policyholder_id"`
	Amount         float64     `json:"claim_amount"`
	Reason         string      `json:"reason"`
	Status         ClaimStatus `json:"status"`
	Date           time.Time   `json:"date"`
}

// Change describes a mutation applied within a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	// ActionImport indicates an entity was written by a bulk import, replacing any previous record.
	ActionImport Action = "import"
)

// Violation captures a single rule outcome.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
