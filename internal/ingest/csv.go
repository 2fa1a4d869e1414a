// Package ingest loads claims exported as CSV into the record store and
// cleans raw exports for rejection reporting.
package ingest

import (
	"claimcore/pkg/domain"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// CSV column names used by the claims export.
const (
	ColCustomerID       = "CUSTOMER_ID"
	ColClaimID          = "CLAIM_ID"
	ColClaimAmount      = "CLAIM_AMOUNT"
	ColClaimDate        = "CLAIM_DATE"
	ColPaidAmount       = "PAID_AMOUNT"
	ColRejectionRemarks = "REJECTION_REMARKS"
	ColPremiumCollected = "PREMIUM_COLLECTED"
)

// RequiredColumns must all be present in the header of an importable file.
var RequiredColumns = []string{ColCustomerID, ColClaimID, ColClaimAmount, ColClaimDate, ColPaidAmount, ColRejectionRemarks}

// ClaimDateLayout is the CLAIM_DATE format.
const ClaimDateLayout = "2006-01-02"

// Defaults applied to policyholders derived from a customer id.
const (
	DefaultAge           = 30
	DefaultPolicyType    = domain.PolicyVehicle
	DefaultSumInsured    = 100000.0
	DefaultClaimReason   = "Vehicle damage"
	sumInsuredMultiplier = 2
)

// Summary reports what an import did.
type Summary struct {
	Source               string `json:"source"`
	RowsRead             int    `json:"rows_read"`
	PolicyholdersDerived int    `json:"policyholders_derived"`
	ClaimsImported       int    `json:"claims_imported"`
	RowsSkipped          int    `json:"rows_skipped"`
}

// Apply reads a claims CSV from r and writes its records through tx.
// Unseen customers become default policyholders, existing ones are left
// untouched, and claims are upserted by CLAIM_ID so a later row wins. Any
// malformed row aborts with a *domain.ImportError; callers run Apply inside a
// single transaction so nothing is committed in that case.
func Apply(tx domain.Transaction, source string, r io.Reader) (Summary, error) {
	summary := Summary{Source: source}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return summary, &domain.ImportError{Source: source, Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return summary, &domain.ImportError{Source: source, Err: err}
	}
	index, err := headerIndex(header)
	if err != nil {
		return summary, &domain.ImportError{Source: source, Line: 1, Err: err}
	}

	seen := make(map[string]struct{})
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, &domain.ImportError{Source: source, Err: err}
		}
		line, _ := reader.FieldPos(0)
		summary.RowsRead++
		derived, imported, err := applyRow(tx, index, record, seen)
		if err != nil {
			return summary, &domain.ImportError{Source: source, Line: line, Err: err}
		}
		if derived {
			summary.PolicyholdersDerived++
		}
		if imported {
			summary.ClaimsImported++
		} else {
			summary.RowsSkipped++
		}
	}
	return summary, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[cleanHeader(name)] = i
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns %s", strings.Join(missing, ", "))
	}
	return index, nil
}

// cleanHeader strips whitespace, quotes and a UTF-8 byte order mark.
func cleanHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.TrimSpace(strings.ReplaceAll(name, `"`, ""))
}

func applyRow(tx domain.Transaction, index map[string]int, record []string, seen map[string]struct{}) (derived, imported bool, err error) {
	field := func(col string) string { return strings.TrimSpace(record[index[col]]) }

	customerID := field(ColCustomerID)
	if customerID == "" {
		return false, false, fmt.Errorf("missing %s", ColCustomerID)
	}
	rawAmount := field(ColClaimAmount)
	var amount float64
	if rawAmount != "" {
		if amount, err = parseFinite(rawAmount); err != nil {
			return false, false, fmt.Errorf("%s %q: %w", ColClaimAmount, rawAmount, err)
		}
	}

	if _, ok := seen[customerID]; !ok {
		seen[customerID] = struct{}{}
		if _, exists := tx.FindPolicyholder(customerID); !exists {
			sumInsured := DefaultSumInsured
			if rawAmount != "" {
				sumInsured = amount * sumInsuredMultiplier
			}
			if _, err := tx.PutPolicyholder(domain.Policyholder{
				ID:         customerID,
				Name:       "Customer " + customerID,
				Age:        DefaultAge,
				PolicyType: DefaultPolicyType,
				SumInsured: sumInsured,
			}); err != nil {
				return false, false, err
			}
			derived = true
		}
	}

	if rawAmount == "" {
		return derived, false, nil
	}
	claimID := field(ColClaimID)
	if claimID == "" {
		return derived, false, fmt.Errorf("missing %s", ColClaimID)
	}
	rawDate := field(ColClaimDate)
	date, err := time.Parse(ClaimDateLayout, rawDate)
	if err != nil {
		return derived, false, fmt.Errorf("%s %q: %w", ColClaimDate, rawDate, err)
	}
	remark := field(ColRejectionRemarks)
	if _, err := tx.PutClaim(domain.Claim{
		ID:             claimID,
		PolicyholderID: customerID,
		Amount:         amount,
		Reason:         reasonFor(remark),
		Status:         statusFor(remark, field(ColPaidAmount)),
		Date:           date,
	}); err != nil {
		return derived, false, err
	}
	return derived, true, nil
}

var errNotFinite = errors.New("not a finite number")

// parseFinite parses a decimal amount. NaN and infinities are rejected since
// they cannot be written to a snapshot.
func parseFinite(raw string) (float64, error) {
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errNotFinite
	}
	return n, nil
}

func reasonFor(remark string) string {
	if remark == "" {
		return DefaultClaimReason
	}
	return remark
}

func statusFor(remark, paid string) domain.ClaimStatus {
	switch {
	case remark != "":
		return domain.ClaimRejected
	case paid != "":
		return domain.ClaimApproved
	default:
		return domain.ClaimPending
	}
}
