package jsonfile

import (
	"claimcore/internal/infra/persistence/memory"
	"claimcore/pkg/domain"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// document is the on-disk snapshot layout: two record collections.
type document struct {
	Policyholders []domain.Policyholder `json:"policyholders"`
	Claims        []claimRecord         `json:"claims"`
}

type claimRecord struct {
	ID             string             `json:"id"`
	PolicyholderID string             `json:"policyholder_id"`
	Amount         float64            `json:"claim_amount"`
	Reason         string             `json:"reason"`
	Status         domain.ClaimStatus `json:"status"`
	Date           string             `json:"date"`
}

// Accepted claim date layouts. Older snapshots carry naive ISO timestamps,
// which are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}

// EncodeSnapshot writes the snapshot as an indented JSON document with
// policyholders ordered by ID and claims ordered by date, then ID.
func EncodeSnapshot(w io.Writer, snapshot memory.Snapshot) error {
	doc := document{
		Policyholders: make([]domain.Policyholder, 0, len(snapshot.Policyholders)),
		Claims:        make([]claimRecord, 0, len(snapshot.Claims)),
	}
	for _, p := range snapshot.Policyholders {
		doc.Policyholders = append(doc.Policyholders, p)
	}
	sort.Slice(doc.Policyholders, func(i, j int) bool { return doc.Policyholders[i].ID < doc.Policyholders[j].ID })

	claims := make([]domain.Claim, 0, len(snapshot.Claims))
	for _, c := range snapshot.Claims {
		claims = append(claims, c)
	}
	sort.Slice(claims, func(i, j int) bool {
		if !claims[i].Date.Equal(claims[j].Date) {
			return claims[i].Date.Before(claims[j].Date)
		}
		return claims[i].ID < claims[j].ID
	})
	for _, c := range claims {
		doc.Claims = append(doc.Claims, claimRecord{
			ID:             c.ID,
			PolicyholderID: c.PolicyholderID,
			Amount:         c.Amount,
			Reason:         c.Reason,
			Status:         c.Status,
			Date:           c.Date.UTC().Format(time.RFC3339Nano),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// DecodeSnapshot reads a snapshot document. Records are reconstructed
// verbatim, including their identifiers and dates.
func DecodeSnapshot(r io.Reader) (memory.Snapshot, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return memory.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	snapshot := memory.Snapshot{
		Policyholders: make(map[string]domain.Policyholder, len(doc.Policyholders)),
		Claims:        make(map[string]domain.Claim, len(doc.Claims)),
	}
	for i, p := range doc.Policyholders {
		if p.ID == "" {
			return memory.Snapshot{}, fmt.Errorf("policyholder %d: missing id", i)
		}
		snapshot.Policyholders[p.ID] = p
	}
	for i, rec := range doc.Claims {
		if rec.ID == "" {
			return memory.Snapshot{}, fmt.Errorf("claim %d: missing id", i)
		}
		date, err := parseDate(rec.Date)
		if err != nil {
			return memory.Snapshot{}, fmt.Errorf("claim %s: %w", rec.ID, err)
		}
		snapshot.Claims[rec.ID] = domain.Claim{
			ID:             rec.ID,
			PolicyholderID: rec.PolicyholderID,
			Amount:         rec.Amount,
			Reason:         rec.Reason,
			Status:         rec.Status,
			Date:           date,
		}
	}
	return snapshot, nil
}
