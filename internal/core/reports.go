package core

import (
	"claimcore/pkg/domain"
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Risk thresholds. A policyholder exceeding any of them is high risk.
const (
	RiskWindow           = 365 * 24 * time.Hour
	RiskMaxRecentClaims  = 3
	RiskMaxRejected      = 2
	UnknownPolicyholder  = "Unknown"
	monthKeyLayout       = "2006-01"
	riskClaimRatioString = "0.8"
)

var riskMaxClaimRatio = decimal.RequireFromString(riskClaimRatioString)

// RiskEntry describes a flagged policyholder.
type RiskEntry struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	ClaimCount    int     `json:"claim_count"`
	ClaimRatio    float64 `json:"claim_ratio"`
	RejectedCount int     `json:"rejected_count"`
}

// ClaimSummary is the compact claim view used by the highest and pending reports.
type ClaimSummary struct {
	ClaimID          string  `json:"claim_id"`
	PolicyholderName string  `json:"policyholder_name"`
	Amount           float64 `json:"amount"`
	Reason           string  `json:"reason"`
}

// ClaimDetail is a claim joined with its owner's name.
type ClaimDetail struct {
	ID               string      `json:"id"`
	PolicyholderName string      `json:"policyholder_name"`
	ClaimAmount      float64     `json:"claim_amount"`
	Reason           string      `json:"reason"`
	Status           ClaimStatus `json:"status"`
	Date             time.Time   `json:"date"`
}

// ReportSummary bundles every report for one point in time.
type ReportSummary struct {
	GeneratedAt                time.Time              `json:"generated_at"`
	Policyholders              int                    `json:"policyholders"`
	Claims                     int                    `json:"claims"`
	HighRisk                   []RiskEntry            `json:"high_risk"`
	ClaimsByPolicyType         map[PolicyType]int     `json:"claims_by_policy_type"`
	MonthlyClaims              map[string]int         `json:"monthly_claims"`
	AvgClaimAmountByPolicyType map[PolicyType]float64 `json:"avg_claim_amount_by_policy_type"`
	HighestClaim               *ClaimSummary          `json:"highest_claim,omitempty"`
	PendingClaims              []ClaimSummary         `json:"pending_claims"`
}

func ownerName(view TransactionView, id string) string {
	if holder, ok := view.FindPolicyholder(id); ok {
		return holder.Name
	}
	return UnknownPolicyholder
}

func summarize(view TransactionView, c Claim) ClaimSummary {
	return ClaimSummary{ClaimID: c.ID, PolicyholderName: ownerName(view, c.PolicyholderID), Amount: c.Amount, Reason: c.Reason}
}

func (s *Service) view(ctx context.Context, op string, fn func(TransactionView) error) (err error) {
	defer s.observe(ctx, op, time.Now(), &err)
	return s.store.View(ctx, fn)
}

// GetPolicyholder returns the policyholder with id.
func (s *Service) GetPolicyholder(ctx context.Context, id string) (holder Policyholder, err error) {
	err = s.view(ctx, "get_policyholder", func(v TransactionView) error {
		var ok bool
		if holder, ok = v.FindPolicyholder(id); !ok {
			return domain.NotFoundError{Entity: domain.EntityPolicyholder, ID: id}
		}
		return nil
	})
	return holder, err
}

// GetClaim returns the claim with id joined with its owner's name.
func (s *Service) GetClaim(ctx context.Context, id string) (detail ClaimDetail, err error) {
	err = s.view(ctx, "get_claim", func(v TransactionView) error {
		c, ok := v.FindClaim(id)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityClaim, ID: id}
		}
		detail = ClaimDetail{
			ID:               c.ID,
			PolicyholderName: ownerName(v, c.PolicyholderID),
			ClaimAmount:      c.Amount,
			Reason:           c.Reason,
			Status:           c.Status,
			Date:             c.Date,
		}
		return nil
	})
	return detail, err
}

// ClaimFrequency counts every claim filed by the policyholder.
func (s *Service) ClaimFrequency(ctx context.Context, policyholderID string) (count int, err error) {
	err = s.view(ctx, "claim_frequency", func(v TransactionView) error {
		if _, ok := v.FindPolicyholder(policyholderID); !ok {
			return domain.NotFoundError{Entity: domain.EntityPolicyholder, ID: policyholderID}
		}
		for _, c := range v.ListClaims() {
			if c.PolicyholderID == policyholderID {
				count++
			}
		}
		return nil
	})
	return count, err
}

// HighRiskPolicyholders flags holders with more than three claims in the
// trailing year, an approved-amount ratio above 0.8 of the sum insured, or
// more than two rejected claims. Results follow policyholder id order.
func (s *Service) HighRiskPolicyholders(ctx context.Context) (entries []RiskEntry, err error) {
	entries = []RiskEntry{}
	cutoff := s.now().Add(-RiskWindow)
	err = s.view(ctx, "high_risk_policyholders", func(v TransactionView) error {
		entries = highRisk(v, cutoff)
		return nil
	})
	return entries, err
}

func highRisk(v TransactionView, cutoff time.Time) []RiskEntry {
	type tally struct {
		recent, rejected int
		approved         decimal.Decimal
	}
	tallies := make(map[string]*tally)
	for _, c := range v.ListClaims() {
		t, ok := tallies[c.PolicyholderID]
		if !ok {
			t = &tally{}
			tallies[c.PolicyholderID] = t
		}
		if !c.Date.Before(cutoff) {
			t.recent++
		}
		switch c.Status {
		case domain.ClaimRejected:
			t.rejected++
		case domain.ClaimApproved:
			t.approved = t.approved.Add(decimal.NewFromFloat(c.Amount))
		}
	}

	out := []RiskEntry{}
	for _, holder := range v.ListPolicyholders() {
		t, ok := tallies[holder.ID]
		if !ok {
			continue
		}
		ratio := decimal.Zero
		if holder.SumInsured > 0 {
			ratio = t.approved.Div(decimal.NewFromFloat(holder.SumInsured))
		}
		if t.recent > RiskMaxRecentClaims || ratio.GreaterThan(riskMaxClaimRatio) || t.rejected > RiskMaxRejected {
			out = append(out, RiskEntry{
				ID:            holder.ID,
				Name:          holder.Name,
				ClaimCount:    t.recent,
				ClaimRatio:    ratio.InexactFloat64(),
				RejectedCount: t.rejected,
			})
		}
	}
	return out
}

// ClaimsByPolicyType counts claims per owner policy type. Every policy type is
// present and claims without a known owner are ignored.
func (s *Service) ClaimsByPolicyType(ctx context.Context) (counts map[PolicyType]int, err error) {
	err = s.view(ctx, "claims_by_policy_type", func(v TransactionView) error {
		counts = claimsByPolicyType(v)
		return nil
	})
	return counts, err
}

func claimsByPolicyType(v TransactionView) map[PolicyType]int {
	counts := make(map[PolicyType]int, len(domain.PolicyTypes()))
	for _, pt := range domain.PolicyTypes() {
		counts[pt] = 0
	}
	for _, c := range v.ListClaims() {
		if holder, ok := v.FindPolicyholder(c.PolicyholderID); ok {
			counts[holder.PolicyType]++
		}
	}
	return counts
}

// MonthlyClaims counts claims per calendar month (UTC, "YYYY-MM").
func (s *Service) MonthlyClaims(ctx context.Context) (counts map[string]int, err error) {
	err = s.view(ctx, "monthly_claims", func(v TransactionView) error {
		counts = monthlyClaims(v)
		return nil
	})
	return counts, err
}

func monthlyClaims(v TransactionView) map[string]int {
	counts := make(map[string]int)
	for _, c := range v.ListClaims() {
		counts[c.Date.UTC().Format(monthKeyLayout)]++
	}
	return counts
}

// AvgClaimAmountByPolicyType averages Approved claim amounts per owner policy
// type. Types without Approved claims report 0.
func (s *Service) AvgClaimAmountByPolicyType(ctx context.Context) (avgs map[PolicyType]float64, err error) {
	err = s.view(ctx, "avg_claim_amount_by_policy_type", func(v TransactionView) error {
		avgs = avgClaimAmount(v)
		return nil
	})
	return avgs, err
}

func avgClaimAmount(v TransactionView) map[PolicyType]float64 {
	sums := make(map[PolicyType]decimal.Decimal)
	counts := make(map[PolicyType]int64)
	for _, c := range v.ListClaims() {
		if c.Status != domain.ClaimApproved {
			continue
		}
		holder, ok := v.FindPolicyholder(c.PolicyholderID)
		if !ok {
			continue
		}
		sums[holder.PolicyType] = sums[holder.PolicyType].Add(decimal.NewFromFloat(c.Amount))
		counts[holder.PolicyType]++
	}
	avgs := make(map[PolicyType]float64, len(domain.PolicyTypes()))
	for _, pt := range domain.PolicyTypes() {
		if counts[pt] == 0 {
			avgs[pt] = 0
			continue
		}
		avgs[pt] = sums[pt].Div(decimal.NewFromInt(counts[pt])).InexactFloat64()
	}
	return avgs
}

// HighestClaim returns the Approved claim with the largest amount. On a tie
// the earliest claim in date, then id, order wins. ok is false when no claim
// is Approved.
func (s *Service) HighestClaim(ctx context.Context) (summary ClaimSummary, ok bool, err error) {
	err = s.view(ctx, "highest_claim", func(v TransactionView) error {
		summary, ok = highestClaim(v)
		return nil
	})
	return summary, ok, err
}

func highestClaim(v TransactionView) (ClaimSummary, bool) {
	var best Claim
	found := false
	for _, c := range v.ListClaims() {
		if c.Status != domain.ClaimApproved {
			continue
		}
		if !found || c.Amount > best.Amount {
			best, found = c, true
		}
	}
	if !found {
		return ClaimSummary{}, false
	}
	return summarize(v, best), true
}

// PendingClaims lists Pending claims in date, then id, order.
func (s *Service) PendingClaims(ctx context.Context) (pending []ClaimSummary, err error) {
	err = s.view(ctx, "pending_claims", func(v TransactionView) error {
		pending = pendingClaims(v)
		return nil
	})
	return pending, err
}

func pendingClaims(v TransactionView) []ClaimSummary {
	out := []ClaimSummary{}
	for _, c := range v.ListClaims() {
		if c.Status == domain.ClaimPending {
			out = append(out, summarize(v, c))
		}
	}
	return out
}

// Summary computes every report against a single consistent view.
func (s *Service) Summary(ctx context.Context) (summary ReportSummary, err error) {
	now := s.now()
	err = s.view(ctx, "summary", func(v TransactionView) error {
		summary = ReportSummary{
			GeneratedAt:                now.UTC(),
			Policyholders:              len(v.ListPolicyholders()),
			Claims:                     len(v.ListClaims()),
			HighRisk:                   highRisk(v, now.Add(-RiskWindow)),
			ClaimsByPolicyType:         claimsByPolicyType(v),
			MonthlyClaims:              monthlyClaims(v),
			AvgClaimAmountByPolicyType: avgClaimAmount(v),
			PendingClaims:              pendingClaims(v),
		}
		if highest, ok := highestClaim(v); ok {
			summary.HighestClaim = &highest
		}
		return nil
	})
	return summary, err
}
