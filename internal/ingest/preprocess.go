package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// Row is one cleaned export row. Fields holds every column by header name
// with whitespace and quotes removed.
type Row struct {
	Fields           map[string]string `json:"fields"`
	ClaimAmount      float64           `json:"claim_amount"`
	PremiumCollected float64           `json:"premium_collected"`
	PaidAmount       float64           `json:"paid_amount"`
	RejectionClass   RejectionClass    `json:"rejection_class"`
}

// PreprocessStats counts rows seen and dropped by Preprocess.
type PreprocessStats struct {
	Read    int `json:"read"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
}

var numericColumns = map[string]bool{
	ColClaimAmount:      true,
	ColPremiumCollected: true,
	ColPaidAmount:       true,
}

// Preprocess cleans a raw claims export. Rows with the wrong number of
// columns, a negative or unparsable amount, or a blank CLAIM_ID or
// CUSTOMER_ID are dropped. Empty amounts read as zero. An empty input yields
// no rows and no error.
func Preprocess(r io.Reader) ([]Row, PreprocessStats, error) {
	var stats PreprocessStats
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, nil
	}
	if err != nil {
		return nil, stats, err
	}
	for i := range header {
		header[i] = cleanHeader(header[i])
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.Read++
			stats.Dropped++
			continue
		}
		if err != nil {
			return nil, stats, err
		}
		stats.Read++
		row, ok := cleanRow(header, record)
		if !ok {
			stats.Dropped++
			continue
		}
		rows = append(rows, row)
		stats.Kept++
	}
	return rows, stats, nil
}

func cleanRow(header, record []string) (Row, bool) {
	if len(record) != len(header) {
		return Row{}, false
	}
	row := Row{Fields: make(map[string]string, len(header))}
	for i, name := range header {
		value := strings.TrimSpace(strings.ReplaceAll(record[i], `"`, ""))
		row.Fields[name] = value
		switch {
		case numericColumns[name]:
			n := 0.0
			if value != "" {
				var err error
				if n, err = parseFinite(value); err != nil || n < 0 {
					return Row{}, false
				}
			}
			switch name {
			case ColClaimAmount:
				row.ClaimAmount = n
			case ColPremiumCollected:
				row.PremiumCollected = n
			case ColPaidAmount:
				row.PaidAmount = n
			}
		case name == ColClaimID || name == ColCustomerID:
			if value == "" {
				return Row{}, false
			}
		}
	}
	row.RejectionClass = ClassifyRejection(row.Fields[ColRejectionRemarks])
	return row, true
}

// RejectionBreakdown counts rows per rejection class. Every class is present.
func RejectionBreakdown(rows []Row) map[RejectionClass]int {
	out := make(map[RejectionClass]int, len(RejectionClasses()))
	for _, class := range RejectionClasses() {
		out[class] = 0
	}
	for _, row := range rows {
		out[row.RejectionClass]++
	}
	return out
}
