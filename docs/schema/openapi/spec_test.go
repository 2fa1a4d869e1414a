package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecIsCopied(t *testing.T) {
	first := Spec()
	require.NotEmpty(t, first)
	assert.Contains(t, string(first), "/api/claims/{id}/status:")
	first[0] = 'X'
	assert.NotEqual(t, first[0], Spec()[0])
}
