package blocks

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/solatis/blockvis/internal/core/db"
	"github.com/solatis/blockvis/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDoc = types.DocumentID("post-1")

type fixture struct {
	ctx     context.Context
	queries *db.Queries
	tenant  types.TenantID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "blocks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	_, err = db.MigrateUp(ctx, database)
	require.NoError(t, err)

	queries, err := db.LoadQueries(database)
	require.NoError(t, err)

	tenant := types.NewTenantID()
	_, err = queries.Exec(ctx, "create-tenant", string(tenant), "acme", time.Now().UTC())
	require.NoError(t, err)

	return &fixture{ctx: ctx, queries: queries, tenant: tenant}
}

// insertRaw writes a row without running the migrator, as an old writer would have.
func (f *fixture) insertRaw(t *testing.T, document types.DocumentID, attrs types.Attributes) types.BlockID {
	t.Helper()
	data, err := json.Marshal(attrs)
	require.NoError(t, err)

	id := types.NewBlockID()
	now := time.Now().UTC()
	_, err = f.queries.Exec(f.ctx, "insert-block",
		string(id), string(f.tenant), string(document), "core/group", string(data), "legacy", now, now)
	require.NoError(t, err)
	return id
}

func (f *fixture) storedAttributes(t *testing.T, id types.BlockID) (types.Attributes, int64) {
	t.Helper()
	var r blockRow
	require.NoError(t, f.queries.Get(f.ctx, "get-block", &r, string(f.tenant), string(id)))
	attrs, err := types.ParseAttributes([]byte(r.Attributes))
	require.NoError(t, err)
	return attrs, r.Revision
}

func legacyAttrs() types.Attributes {
	return types.Attributes{
		types.LegacyRuleSetKey: map[string]any{"id": "5", "devices": "hide", "mobile": "on", "state": "out"},
		types.ClassNameKey:     "b5 blockopts-hide lead",
		"content":              "hello",
	}
}

func ruleSet(t *testing.T, attrs types.Attributes) map[string]any {
	t.Helper()
	rs, ok := attrs[types.RuleSetKey].(map[string]any)
	require.True(t, ok, "rule set missing: %v", attrs)
	return rs
}

func TestCreate_MigratesLegacyBag(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)

	b, err := store.Create(f.ctx, f.tenant, testDoc, "core/group", legacyAttrs())
	require.NoError(t, err)

	assert.Equal(t, types.SchemaCurrent, b.SchemaState)
	assert.Equal(t, int64(1), b.Revision)
	assert.Equal(t, "lead", b.Attributes.ClassName())

	stored, rev := f.storedAttributes(t, b.ID)
	assert.Equal(t, int64(1), rev)
	rs := ruleSet(t, stored)
	assert.Equal(t, true, rs["migrated"])
	assert.Equal(t, false, rs["mobile"])
	assert.Equal(t, false, rs["loggedin"])
	assert.Equal(t, "hello", stored["content"])

	history, err := store.History(f.ctx, f.tenant, b.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "primary", history[0].Path)
	assert.Equal(t, int64(0), history[0].FromRevision)
}

func TestCreate_PlainBagHasNoHistory(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)

	b, err := store.Create(f.ctx, f.tenant, testDoc, "core/paragraph", nil)
	require.NoError(t, err)
	assert.Equal(t, types.SchemaNone, b.SchemaState)
	assert.NotNil(t, b.Attributes)

	history, err := store.History(f.ctx, f.tenant, b.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)

	_, err := store.Create(f.ctx, f.tenant, "", "core/paragraph", nil)
	assert.ErrorIs(t, err, types.ErrMissingDocument)

	_, err = store.Create(f.ctx, f.tenant, testDoc, "", nil)
	assert.ErrorIs(t, err, types.ErrMissingBlockType)

	huge := types.Attributes{"content": strings.Repeat("x", types.MaxAttributesSize)}
	_, err = store.Create(f.ctx, f.tenant, testDoc, "core/paragraph", huge)
	assert.ErrorIs(t, err, types.ErrAttributesTooLarge)
}

func TestGet_MigratesOnRead(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)
	id := f.insertRaw(t, testDoc, legacyAttrs())

	b, err := store.Get(f.ctx, f.tenant, id)
	require.NoError(t, err)
	assert.Equal(t, types.SchemaCurrent, b.SchemaState)
	assert.Equal(t, int64(2), b.Revision)
	assert.Equal(t, "lead", b.Attributes.ClassName())

	stored, rev := f.storedAttributes(t, id)
	assert.Equal(t, int64(2), rev)
	assert.Equal(t, true, ruleSet(t, stored)["migrated"])

	again, err := store.Get(f.ctx, f.tenant, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.Revision)
	assert.Equal(t, b.Attributes, again.Attributes)

	history, err := store.History(f.ctx, f.tenant, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(1), history[0].FromRevision)
}

func TestGet_MigrateOnReadDisabled(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries, WithMigrateOnRead(false))
	id := f.insertRaw(t, testDoc, legacyAttrs())

	b, err := store.Get(f.ctx, f.tenant, id)
	require.NoError(t, err)
	assert.Equal(t, types.SchemaCurrent, b.SchemaState)
	assert.Equal(t, int64(1), b.Revision)
	assert.Equal(t, true, ruleSet(t, b.Attributes)["migrated"])

	stored, rev := f.storedAttributes(t, id)
	assert.Equal(t, int64(1), rev)
	assert.NotContains(t, stored, types.RuleSetKey)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)

	_, err := store.Get(f.ctx, f.tenant, types.NewBlockID())
	assert.ErrorIs(t, err, types.ErrBlockNotFound)

	id := f.insertRaw(t, testDoc, types.Attributes{})
	_, err = store.Get(f.ctx, types.NewTenantID(), id)
	assert.ErrorIs(t, err, types.ErrBlockNotFound, "other tenants must not see the block")
}

func TestSetAttributes(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)

	b, err := store.Create(f.ctx, f.tenant, testDoc, "core/paragraph", types.Attributes{
		"content": "v1",
		"align":   "left",
	})
	require.NoError(t, err)

	updated, err := store.SetAttributes(f.ctx, f.tenant, b.ID, types.Attributes{
		"content": "v2",
		"align":   nil,
	}, b.Revision)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Revision)
	assert.Equal(t, "v2", updated.Attributes["content"])
	assert.NotContains(t, updated.Attributes, "align")

	_, err = store.SetAttributes(f.ctx, f.tenant, b.ID, types.Attributes{"content": "stale"}, 1)
	assert.ErrorIs(t, err, types.ErrRevisionConflict)

	stored, rev := f.storedAttributes(t, b.ID)
	assert.Equal(t, int64(2), rev)
	assert.Equal(t, "v2", stored["content"])
}

func TestSetAttributes_MigratesPatchedLegacyRules(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)

	b, err := store.Create(f.ctx, f.tenant, testDoc, "core/paragraph", types.Attributes{})
	require.NoError(t, err)

	updated, err := store.SetAttributes(f.ctx, f.tenant, b.ID, types.Attributes{
		types.LegacyRuleSetKey: map[string]any{"devices": "show", "desktop": "on"},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, types.SchemaCurrent, updated.SchemaState)
	rs := ruleSet(t, updated.Attributes)
	assert.Equal(t, true, rs["desktop"])
	assert.Equal(t, false, rs["tablet"])

	// Once migrated, a stale legacy patch has no effect on the rules.
	again, err := store.SetAttributes(f.ctx, f.tenant, b.ID, types.Attributes{
		types.LegacyRuleSetKey: map[string]any{"devices": "hide", "desktop": "on"},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, true, ruleSet(t, again.Attributes)["desktop"])

	history, err := store.History(f.ctx, f.tenant, b.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSetAttributes_NotFound(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)

	_, err := store.SetAttributes(f.ctx, f.tenant, types.NewBlockID(), types.Attributes{"a": 1}, 0)
	assert.ErrorIs(t, err, types.ErrBlockNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)

	b, err := store.Create(f.ctx, f.tenant, testDoc, "core/paragraph", nil)
	require.NoError(t, err)

	require.NoError(t, store.Delete(f.ctx, f.tenant, b.ID))
	assert.ErrorIs(t, store.Delete(f.ctx, f.tenant, b.ID), types.ErrBlockNotFound)

	_, err = store.Get(f.ctx, f.tenant, b.ID)
	assert.ErrorIs(t, err, types.ErrBlockNotFound)
}

func TestListDocument(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)

	first, err := store.Create(f.ctx, f.tenant, testDoc, "core/heading", nil)
	require.NoError(t, err)
	legacy := f.insertRaw(t, testDoc, legacyAttrs())
	_, err = store.Create(f.ctx, f.tenant, "post-2", "core/heading", nil)
	require.NoError(t, err)

	list, err := store.ListDocument(f.ctx, f.tenant, testDoc)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, legacy, list[1].ID)
	assert.Equal(t, types.SchemaCurrent, list[1].SchemaState)

	_, rev := f.storedAttributes(t, legacy)
	assert.Equal(t, int64(1), rev, "listing must not write")

	_, err = store.ListDocument(f.ctx, f.tenant, "")
	assert.ErrorIs(t, err, types.ErrMissingDocument)
}

func TestMigrateDocument(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)

	legacy := f.insertRaw(t, testDoc, legacyAttrs())
	f.insertRaw(t, testDoc, types.Attributes{"content": "plain"})
	f.insertRaw(t, testDoc, types.Attributes{
		types.RuleSetKey: map[string]any{"migrated": true, "desktop": "wrong type"},
	})

	report, err := store.MigrateDocument(f.ctx, f.tenant, testDoc, ModePrimary)
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Scanned: 3, Migrated: 1, Unchanged: 2, Defaulted: 1}, report)

	stored, rev := f.storedAttributes(t, legacy)
	assert.Equal(t, int64(2), rev)
	assert.Equal(t, true, ruleSet(t, stored)["migrated"])

	report, err = store.MigrateDocument(f.ctx, f.tenant, testDoc, ModePrimary)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Migrated)
	assert.Equal(t, 3, report.Unchanged)
}

func TestMigrateDocument_Compat(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)
	id := f.insertRaw(t, testDoc, legacyAttrs())

	report, err := store.MigrateDocument(f.ctx, f.tenant, testDoc, ModeCompat)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Migrated)

	stored, _ := f.storedAttributes(t, id)
	rs := ruleSet(t, stored)
	assert.Equal(t, false, rs["migrated"])
	assert.Equal(t, true, rs["mobile"])
	assert.Equal(t, false, rs["loggedin"])

	report, err = store.MigrateDocument(f.ctx, f.tenant, testDoc, ModePrimary)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Migrated)

	stored, rev := f.storedAttributes(t, id)
	assert.Equal(t, int64(3), rev)
	assert.Equal(t, false, ruleSet(t, stored)["mobile"])

	history, err := store.History(f.ctx, f.tenant, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "compat", history[0].Path)
	assert.Equal(t, "primary", history[1].Path)
}

func TestMigrateDocument_Validation(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.queries)

	_, err := store.MigrateDocument(f.ctx, f.tenant, "", ModePrimary)
	assert.ErrorIs(t, err, types.ErrMissingDocument)

	ctx, cancel := context.WithCancel(f.ctx)
	f.insertRaw(t, testDoc, legacyAttrs())
	cancel()
	_, err = store.MigrateDocument(ctx, f.tenant, testDoc, ModePrimary)
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("compat")
	require.NoError(t, err)
	assert.Equal(t, ModeCompat, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModePrimary, m)

	_, err = ParseMode("sideways")
	assert.Error(t, err)
}
