package memory

import (
	"bytes"
	"claimcore/internal/blob/core"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreIsolatesReturnedData(t *testing.T) {
	store := New()
	ctx := context.Background()
	_, err := store.Put(ctx, "k", bytes.NewReader([]byte("value")), core.PutOptions{Metadata: map[string]string{"a": "1"}})
	require.NoError(t, err)

	info, rc, err := store.Get(ctx, "k")
	require.NoError(t, err)
	info.Metadata["a"] = "mutated"
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	data[0] = 'X'

	head, err := store.Head(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "1", head.Metadata["a"])
	assert.Equal(t, "2063c1608d6e0baf80249c42e2be5804", head.ETag)
	_, rc, err = store.Get(ctx, "k")
	require.NoError(t, err)
	again, _ := io.ReadAll(rc)
	assert.Equal(t, "value", string(again))
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	_, err := New().Put(context.Background(), " ", bytes.NewReader(nil), core.PutOptions{})
	assert.ErrorContains(t, err, "empty key")
}
