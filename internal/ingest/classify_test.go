package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRejection(t *testing.T) {
	cases := []struct {
		remark string
		want   RejectionClass
	}{
		{"", ClassNoRemark},
		{"   \t", ClassNoRemark},
		{"Fake_Document submitted", ClassFakeDocument},
		{"claim NOT_COVERED under plan", ClassNotCovered},
		{"policy_expired last month", ClassPolicyExpired},
		{"fake_document and policy_expired", ClassFakeDocument},
		{"not_covered, policy_expired", ClassNotCovered},
		{"customer withdrew", ClassUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyRejection(tc.remark), "remark %q", tc.remark)
	}
}
