package core

import "claimcore/pkg/domain"

type (
	// Policyholder aliases domain.Policyholder.
	Policyholder = domain.Policyholder
	// Claim aliases domain.Claim.
	Claim = domain.Claim
	// PolicyType aliases domain.PolicyType.
	PolicyType = domain.PolicyType
	// ClaimStatus aliases domain.ClaimStatus.
	ClaimStatus = domain.ClaimStatus
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore.
	PersistentStore = domain.PersistentStore
)
