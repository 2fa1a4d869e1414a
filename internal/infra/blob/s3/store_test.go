package s3

import (
	"bytes"
	"claimcore/internal/blob/core"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreMockedBasicFlow(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	payload := []byte("CLAIM_ID,CUSTOMER_ID\r\nc1,p1\r\n")
	info, err := store.Put(ctx, "imports/claims.csv", bytes.NewReader(payload), core.PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"origin": "test"},
	})
	require.NoError(t, err)
	assert.Equal(t, "imports/claims.csv", info.Key)
	assert.Equal(t, "text/csv", info.ContentType)
	assert.Equal(t, int64(len(payload)), info.Size)
	assert.Equal(t, "etag123", info.ETag)
	assert.Equal(t, "test", info.Metadata["origin"])

	_, err = store.Put(ctx, "imports/claims.csv", bytes.NewReader([]byte("ignored")), core.PutOptions{})
	assert.True(t, errors.Is(err, core.ErrExists))

	_, rc, err := store.Get(ctx, "imports/claims.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, payload, data)

	ok, err := store.Delete(ctx, "imports/claims.csv")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Delete(ctx, "imports/claims.csv")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreMissingKeysMapToNotFound(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	_, err := store.Head(ctx, "nope")
	assert.True(t, errors.Is(err, core.ErrNotFound), "head: %v", err)
	_, _, err = store.Get(ctx, "nope")
	assert.True(t, errors.Is(err, core.ErrNotFound), "get: %v", err)
}

func TestStoreListFollowsContinuationTokens(t *testing.T) {
	rt := &mockRoundTripper{state: make(map[string]mockObj), pageSize: 2}
	store := newMockStore(rt)
	ctx := context.Background()
	for i := 4; i >= 0; i-- {
		_, err := store.Put(ctx, fmt.Sprintf("snapshots/%d.json", i), bytes.NewReader([]byte("{}")), core.PutOptions{})
		require.NoError(t, err)
	}
	_, err := store.Put(ctx, "other/x.json", bytes.NewReader([]byte("{}")), core.PutOptions{})
	require.NoError(t, err)

	list, err := store.List(ctx, "snapshots/")
	require.NoError(t, err)
	require.Len(t, list, 5)
	for i, info := range list {
		assert.Equal(t, fmt.Sprintf("snapshots/%d.json", i), info.Key)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorContains(t, err, "bucket required")

	s, err := New(context.Background(), Config{Bucket: "bkt", Endpoint: "https://minio.local", PathStyle: true, AccessKeyID: "AKIA", SecretAccessKey: "SECRET"})
	require.NoError(t, err)
	assert.Equal(t, core.DriverS3, s.Driver())
}

func TestDecodeChunked(t *testing.T) {
	body := []byte("5;chunk-signature=abc\r\nhello\r\n2\r\n\r\n\r\n0\r\nx-amz-checksum-crc32:AAAA\r\n\r\n")
	out, err := decodeChunked(body)
	require.NoError(t, err)
	assert.Equal(t, "hello\r\n", string(out))

	_, err = decodeChunked([]byte("zz\r\n"))
	assert.Error(t, err)
}
