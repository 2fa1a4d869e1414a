package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreatePolicyholder(Policyholder) (Policyholder, error)
	// PutPolicyholder inserts or replaces a policyholder keeping the supplied ID.
	PutPolicyholder(Policyholder) (Policyholder, error)
	CreateClaim(Claim) (Claim, error)
	// PutClaim inserts or replaces a claim keeping the supplied ID and date.
	PutClaim(Claim) (Claim, error)
	UpdateClaim(id string, mutator func(*Claim) error) (Claim, error)
	FindPolicyholder(id string) (Policyholder, bool)
	FindClaim(id string) (Claim, bool)
}

// TransactionView provides read-only access to snapshot data for rules and reports.
type TransactionView interface {
	ListPolicyholders() []Policyholder
	ListClaims() []Claim
	FindPolicyholder(id string) (Policyholder, bool)
	FindClaim(id string) (Claim, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetPolicyholder(id string) (Policyholder, bool)
	GetClaim(id string) (Claim, bool)
	ListPolicyholders() []Policyholder
	ListClaims() []Claim
}
