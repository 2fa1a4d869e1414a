package ingest

import "strings"

// RejectionClass buckets free-text rejection remarks for reporting.
type RejectionClass string

// Rejection classes produced by ClassifyRejection.
const (
	ClassFakeDocument  RejectionClass = "Fake_document"
	ClassNotCovered    RejectionClass = "Not_Covered"
	ClassPolicyExpired RejectionClass = "Policy_expired"
	ClassNoRemark      RejectionClass = "NoRemark"
	ClassUnknown       RejectionClass = "Unknown"
)

// Checked in order; the first matching needle wins.
var rejectionRules = []struct {
	needle string
	class  RejectionClass
}{
	{"fake_document", ClassFakeDocument},
	{"not_covered", ClassNotCovered},
	{"policy_expired", ClassPolicyExpired},
}

// ClassifyRejection maps a remark to its class with a case-insensitive
// substring match. Blank remarks are NoRemark, unmatched ones Unknown.
func ClassifyRejection(remark string) RejectionClass {
	if strings.TrimSpace(remark) == "" {
		return ClassNoRemark
	}
	lower := strings.ToLower(remark)
	for _, rule := range rejectionRules {
		if strings.Contains(lower, rule.needle) {
			return rule.class
		}
	}
	return ClassUnknown
}

// RejectionClasses lists every class in reporting order.
func RejectionClasses() []RejectionClass {
	return []RejectionClass{ClassFakeDocument, ClassNotCovered, ClassPolicyExpired, ClassNoRemark, ClassUnknown}
}
