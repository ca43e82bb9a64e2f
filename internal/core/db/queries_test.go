package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "blockvis.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUp(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	applied, err := MigrateUp(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_initial_schema.sql"}, applied)

	applied, err = MigrateUp(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, applied)

	statuses, err := MigrateStatus(ctx, db)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Applied)
	require.NotNil(t, statuses[0].AppliedAt)
	assert.WithinDuration(t, time.Now(), *statuses[0].AppliedAt, time.Minute)

	assert.NoError(t, RequireSchema(ctx, db))
}

func TestMigrateStatus_Pending(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	statuses, err := MigrateStatus(ctx, db)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	assert.False(t, statuses[0].Applied)
	assert.Len(t, statuses[0].Checksum, 64)

	assert.Error(t, RequireSchema(ctx, db))
}

func TestMigrateUp_ChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := MigrateUp(ctx, db)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "UPDATE migrations SET checksum = 'tampered'")
	require.NoError(t, err)

	_, err = MigrateUp(ctx, db)
	assert.ErrorContains(t, err, "checksum mismatch")
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(`-- header
CREATE TABLE a (x INTEGER);

-- second
CREATE INDEX idx_a ON a(x);
`)
	assert.Equal(t, []string{"CREATE TABLE a (x INTEGER)", "CREATE INDEX idx_a ON a(x)"}, stmts)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := MigrateUp(ctx, db)
	require.NoError(t, err)

	q, err := LoadQueries(db)
	require.NoError(t, err)
	assert.Same(t, db, q.DB())

	now := time.Now().UTC()
	_, err = q.Exec(ctx, "create-tenant", "t1", "acme", now)
	require.NoError(t, err)

	var tenant struct {
		TenantID  string    `db:"tenant_id"`
		Name      string    `db:"name"`
		CreatedAt time.Time `db:"created_at"`
	}
	require.NoError(t, q.Get(ctx, "get-tenant-by-name", &tenant, "acme"))
	assert.Equal(t, "t1", tenant.TenantID)

	err = q.Get(ctx, "get-tenant-by-name", &tenant, "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	_, err = q.Exec(ctx, "no-such-query")
	assert.ErrorIs(t, err, ErrQueryNotFound)
}

func TestQueries_InTx(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := MigrateUp(ctx, db)
	require.NoError(t, err)
	q, err := LoadQueries(db)
	require.NoError(t, err)

	now := time.Now().UTC()
	boom := errors.New("boom")

	err = q.InTx(ctx, func(tx *Queries) error {
		if _, err := tx.Exec(ctx, "create-tenant", "t1", "rolled-back", now); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var names []string
	require.NoError(t, sqlx.SelectContext(ctx, db, &names, "SELECT name FROM tenants"))
	assert.Empty(t, names)

	err = q.InTx(ctx, func(tx *Queries) error {
		if _, err := tx.Exec(ctx, "create-tenant", "t2", "committed", now); err != nil {
			return err
		}
		return tx.InTx(ctx, func(inner *Queries) error {
			_, err := inner.Exec(ctx, "create-tenant", "t3", "nested", now)
			return err
		})
	})
	require.NoError(t, err)

	require.NoError(t, sqlx.SelectContext(ctx, db, &names, "SELECT name FROM tenants ORDER BY name"))
	assert.Equal(t, []string{"committed", "nested"}, names)
}
