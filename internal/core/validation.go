package core

import (
	"claimcore/pkg/domain"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits for incoming records.
const (
	MinAge          = 18
	MaxAge          = 100
	MaxSumInsured   = 10_000_000.0
	MaxReasonLength = 500
)

var namePattern = regexp.MustCompile(`^[A-Za-z\s]+$`)

func validatePolicyholder(name string, age int, policyType PolicyType, sumInsured float64) error {
	if strings.TrimSpace(name) == "" || !namePattern.MatchString(name) {
		return domain.ValidationError{Field: "name", Message: "must contain letters and spaces only"}
	}
	if age < MinAge || age > MaxAge {
		return domain.ValidationError{Field: "age", Message: fmt.Sprintf("must be between %d and %d", MinAge, MaxAge)}
	}
	if !policyType.Valid() {
		return domain.ValidationError{Field: "policy_type", Message: fmt.Sprintf("%q is not one of Health, Vehicle, Life", policyType)}
	}
	if !(sumInsured > 0 && sumInsured <= MaxSumInsured) {
		return domain.ValidationError{Field: "sum_insured", Message: "must be greater than 0 and at most 10,000,000"}
	}
	return nil
}

func validateClaim(holder Policyholder, amount float64, reason string) error {
	if !(amount > 0 && amount <= holder.SumInsured) {
		return domain.ValidationError{Field: "claim_amount", Message: "must be positive and not exceed the sum insured"}
	}
	if strings.TrimSpace(reason) == "" || utf8.RuneCountInString(reason) > MaxReasonLength {
		return domain.ValidationError{Field: "reason", Message: fmt.Sprintf("must be non-empty and at most %d characters", MaxReasonLength)}
	}
	return nil
}

func validateStatusChange(current, next ClaimStatus) error {
	if !next.Valid() {
		return domain.ValidationError{Field: "status", Message: fmt.Sprintf("%q is not one of Pending, Approved, Rejected", next)}
	}
	if !current.CanTransition(next) {
		return domain.ValidationError{Field: "status", Message: fmt.Sprintf("cannot revert %s to %s", current, next)}
	}
	return nil
}
