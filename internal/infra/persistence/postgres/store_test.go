package postgres

import (
	"claimcore/internal/infra/persistence/postgres/testutil"
	"claimcore/pkg/domain"
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubStore(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "", domain.NewRulesEngine())
	require.NoError(t, err)
	return store, conn
}

func TestNewStoreEnsuresStateTable(t *testing.T) {
	_, conn := stubStore(t)
	require.NotEmpty(t, conn.Execs)
	assert.Contains(t, conn.Execs[0], "CREATE TABLE IF NOT EXISTS state")
}

func TestStorePersistsBucketsAndReloads(t *testing.T) {
	ctx := context.Background()
	store, conn := stubStore(t)
	require.NoError(t, store.Load(ctx))

	date := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreatePolicyholder(domain.Policyholder{ID: "p1", Name: "Pat Roe", Age: 50, PolicyType: domain.PolicyHealth, SumInsured: 9000}); err != nil {
			return err
		}
		_, err := tx.CreateClaim(domain.Claim{ID: "c1", PolicyholderID: "p1", Amount: 100, Reason: "checkup", Status: domain.ClaimPending, Date: date})
		return err
	})
	require.NoError(t, err)
	require.Len(t, conn.Tables["state"], 2)

	db := store.DB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	reloaded, err := NewStore(ctx, "postgres://ignored", domain.NewRulesEngine())
	require.NoError(t, err)
	require.NoError(t, reloaded.Load(ctx))
	holder, ok := reloaded.GetPolicyholder("p1")
	require.True(t, ok)
	assert.Equal(t, "Pat Roe", holder.Name)
	claim, ok := reloaded.GetClaim("c1")
	require.True(t, ok)
	assert.True(t, date.Equal(claim.Date))
}

func TestStoreLoadCorruptPayloadIsImportError(t *testing.T) {
	store, conn := stubStore(t)
	conn.Tables["state"] = []map[string]any{{"bucket": "claims", "payload": []byte("{broken")}}
	err := store.Load(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsImport(err))
	assert.Empty(t, store.ListClaims())
}

func TestStorePersistFailures(t *testing.T) {
	ctx := context.Background()
	create := func(id string) func(domain.Transaction) error {
		return func(tx domain.Transaction) error {
			_, err := tx.CreatePolicyholder(domain.Policyholder{ID: id, Name: "Fail Case"})
			return err
		}
	}

	store, conn := stubStore(t)
	conn.FailBegin = true
	_, err := store.RunInTransaction(ctx, create("a"))
	assert.ErrorContains(t, err, "begin tx")

	store, conn = stubStore(t)
	conn.FailTables = map[string]bool{"state": true}
	_, err = store.RunInTransaction(ctx, create("b"))
	assert.ErrorContains(t, err, "upsert policyholders")

	store, conn = stubStore(t)
	conn.FailCommit = true
	_, err = store.RunInTransaction(ctx, create("c"))
	assert.ErrorContains(t, err, "commit")
	assert.Empty(t, store.ListPolicyholders(), "a failed write must not publish the transaction")

	conn.FailCommit = false
	_, err = store.RunInTransaction(ctx, create("d"))
	require.NoError(t, err)
	_, ok := store.GetPolicyholder("d")
	assert.True(t, ok)
}

func TestNewStorePingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	_, err := NewStore(context.Background(), "", nil)
	assert.ErrorContains(t, err, "ping postgres")
}

func TestStoreAgainstLiveDatabase(t *testing.T) {
	dsn := os.Getenv("CLAIMCORE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CLAIMCORE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	store, err := NewStore(ctx, dsn, domain.NewRulesEngine())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Load(ctx))
	id := "live-" + time.Now().UTC().Format("150405.000000000")
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.PutPolicyholder(domain.Policyholder{ID: id, Name: "Live Check", Age: 40, PolicyType: domain.PolicyLife, SumInsured: 1})
		return err
	})
	require.NoError(t, err)
}
