// Package blocks persists block attribute bags and runs the rule-set
// migrator at the document-load boundary.
package blocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/blockvis/internal/core/db"
	"github.com/solatis/blockvis/internal/core/logger"
	"github.com/solatis/blockvis/internal/rules"
	"github.com/solatis/blockvis/internal/types"
)

/*
 * Block store.
 *
 * Every write passes the bag through rules.Migrate before it is stored, so
 * legacy rule sets only survive in rows written before the upgrade. Reads
 * migrate those rows: with migrate-on-read the rewritten bag is stored back
 * in the same transaction as a block_migrations audit row, guarded by the
 * row revision. A concurrent writer wins; the reader retries against the
 * new row.
 *
 * The store never interprets attributes beyond the keys the migrator owns.
 */

// maxConflictRetries bounds optimistic retries on the read path.
const maxConflictRetries = 3

// Block is a stored block with its attribute bag.
type Block struct {
	ID          types.BlockID
	TenantID    types.TenantID
	DocumentID  types.DocumentID
	Type        string
	Attributes  types.Attributes
	SchemaState types.SchemaState
	Revision    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type blockRow struct {
	BlockID     string    `db:"block_id"`
	TenantID    string    `db:"tenant_id"`
	DocumentID  string    `db:"document_id"`
	BlockType   string    `db:"block_type"`
	Attributes  string    `db:"attributes"`
	SchemaState string    `db:"schema_state"`
	Revision    int64     `db:"revision"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r blockRow) block() (*Block, error) {
	attrs, err := types.ParseAttributes([]byte(r.Attributes))
	if err != nil {
		return nil, fmt.Errorf("block %s: stored %w", r.BlockID, err)
	}
	return &Block{
		ID:          types.BlockID(r.BlockID),
		TenantID:    types.TenantID(r.TenantID),
		DocumentID:  types.DocumentID(r.DocumentID),
		Type:        r.BlockType,
		Attributes:  attrs,
		SchemaState: types.ParseSchemaState(r.SchemaState),
		Revision:    r.Revision,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

// MigrationRecord is one block_migrations audit row.
type MigrationRecord struct {
	ID           string    `db:"migration_id"`
	BlockID      string    `db:"block_id"`
	TenantID     string    `db:"tenant_id"`
	Path         string    `db:"path"`
	FromRevision int64     `db:"from_revision"`
	Issues       string    `db:"issues"`
	MigratedAt   time.Time `db:"migrated_at"`
}

// Store is the block repository.
type Store struct {
	queries       *db.Queries
	log           *logger.Logger
	migrateOnRead bool
	now           func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for migration events.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithMigrateOnRead controls whether Get persists migrated bags.
func WithMigrateOnRead(enabled bool) Option {
	return func(s *Store) { s.migrateOnRead = enabled }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a block store over the named queries.
func NewStore(queries *db.Queries, opts ...Option) *Store {
	s := &Store{
		queries:       queries,
		log:           logger.Nop(),
		migrateOnRead: true,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new block. The bag is migrated before it is written.
func (s *Store) Create(ctx context.Context, tenant types.TenantID, document types.DocumentID, blockType string, attrs types.Attributes) (*Block, error) {
	if document == "" {
		return nil, types.ErrMissingDocument
	}
	if blockType == "" {
		return nil, types.ErrMissingBlockType
	}
	if attrs == nil {
		attrs = types.Attributes{}
	}

	res := rules.Migrate(attrs)
	encoded, err := encodeAttributes(res.Attributes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	b := &Block{
		ID:          types.NewBlockID(),
		TenantID:    tenant,
		DocumentID:  document,
		Type:        blockType,
		Attributes:  res.Attributes,
		SchemaState: res.State,
		Revision:    1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.queries.InTx(ctx, func(q *db.Queries) error {
		if _, err := q.Exec(ctx, "insert-block",
			string(b.ID), string(tenant), string(document), blockType, encoded, res.State.String(), now, now,
		); err != nil {
			return fmt.Errorf("insert block: %w", err)
		}
		return s.audit(ctx, q, b, res, 0)
	})
	if err != nil {
		return nil, err
	}

	s.logMigration(b, res, "create")
	return b, nil
}

// Get loads a block, migrating a legacy rule set on the way out.
func (s *Store) Get(ctx context.Context, tenant types.TenantID, id types.BlockID) (*Block, error) {
	for attempt := 0; ; attempt++ {
		b, err := s.load(ctx, s.queries, tenant, id)
		if err != nil {
			return nil, err
		}

		res := rules.Migrate(b.Attributes)
		if !res.Changed() {
			return b, nil
		}
		if !s.migrateOnRead {
			b.Attributes = res.Attributes
			b.SchemaState = res.State
			return b, nil
		}

		err = s.queries.InTx(ctx, func(q *db.Queries) error {
			return s.write(ctx, q, b, res)
		})
		if errors.Is(err, types.ErrRevisionConflict) && attempt < maxConflictRetries {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logMigration(b, res, "read")
		return b, nil
	}
}

// SetAttributes shallow-merges patch into the stored bag and migrates the
// result. A nil patch value removes the key. When ifRevision is non-zero
// the write fails with ErrRevisionConflict unless the stored revision
// matches.
func (s *Store) SetAttributes(ctx context.Context, tenant types.TenantID, id types.BlockID, patch types.Attributes, ifRevision int64) (*Block, error) {
	var (
		b   *Block
		res rules.Result
	)
	err := s.queries.InTx(ctx, func(q *db.Queries) error {
		var err error
		b, err = s.load(ctx, q, tenant, id)
		if err != nil {
			return err
		}
		if ifRevision != 0 && b.Revision != ifRevision {
			return fmt.Errorf("%w: block %s at revision %d, expected %d", types.ErrRevisionConflict, id, b.Revision, ifRevision)
		}

		res = rules.Migrate(b.Attributes.Merge(patch))
		return s.write(ctx, q, b, res)
	})
	if err != nil {
		return nil, err
	}

	s.logMigration(b, res, "write")
	return b, nil
}

// Delete removes a block.
func (s *Store) Delete(ctx context.Context, tenant types.TenantID, id types.BlockID) error {
	result, err := s.queries.Exec(ctx, "delete-block", string(tenant), string(id))
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", types.ErrBlockNotFound, id)
	}
	return nil
}

// ListDocument returns the blocks of a document in creation order. Bags
// are migrated in memory; use MigrateDocument to persist.
func (s *Store) ListDocument(ctx context.Context, tenant types.TenantID, document types.DocumentID) ([]*Block, error) {
	if document == "" {
		return nil, types.ErrMissingDocument
	}

	var rows []blockRow
	if err := s.queries.Select(ctx, "list-document-blocks", &rows, string(tenant), string(document)); err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}

	out := make([]*Block, 0, len(rows))
	for _, r := range rows {
		b, err := r.block()
		if err != nil {
			return nil, err
		}
		res := rules.Migrate(b.Attributes)
		b.Attributes = res.Attributes
		b.SchemaState = res.State
		out = append(out, b)
	}
	return out, nil
}

// History returns the migration audit trail of a block, oldest first.
func (s *Store) History(ctx context.Context, tenant types.TenantID, id types.BlockID) ([]MigrationRecord, error) {
	var records []MigrationRecord
	if err := s.queries.Select(ctx, "list-block-migrations", &records, string(tenant), string(id)); err != nil {
		return nil, fmt.Errorf("list block migrations: %w", err)
	}
	return records, nil
}

func (s *Store) load(ctx context.Context, q *db.Queries, tenant types.TenantID, id types.BlockID) (*Block, error) {
	var r blockRow
	err := q.Get(ctx, "get-block", &r, string(tenant), string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrBlockNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get block: %w", err)
	}
	return r.block()
}

// write stores res over b under b's revision and records the audit row.
// b is updated to the stored state.
func (s *Store) write(ctx context.Context, q *db.Queries, b *Block, res rules.Result) error {
	encoded, err := encodeAttributes(res.Attributes)
	if err != nil {
		return err
	}

	now := s.now()
	result, err := q.Exec(ctx, "update-block-attributes",
		encoded, res.State.String(), now, string(b.TenantID), string(b.ID), b.Revision,
	)
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: block %s changed since revision %d", types.ErrRevisionConflict, b.ID, b.Revision)
	}

	from := b.Revision
	b.Attributes = res.Attributes
	b.SchemaState = res.State
	b.Revision++
	b.UpdatedAt = now

	return s.audit(ctx, q, b, res, from)
}

// audit records a rule-set migration. Unchanged bags leave no trail.
func (s *Store) audit(ctx context.Context, q *db.Queries, b *Block, res rules.Result, fromRevision int64) error {
	if !res.Changed() {
		return nil
	}
	issues := ""
	if res.Issues != nil {
		issues = res.Issues.Error()
	}
	_, err := q.Exec(ctx, "insert-block-migration",
		types.NewRecordID(), string(b.ID), string(b.TenantID), res.Path.String(), fromRevision, issues, s.now(),
	)
	if err != nil {
		return fmt.Errorf("record block migration: %w", err)
	}
	return nil
}

func (s *Store) logMigration(b *Block, res rules.Result, trigger string) {
	if res.Issues != nil {
		s.log.Warn("rule set fields defaulted",
			"block_id", b.ID, "tenant_id", b.TenantID, "issues", res.Issues.Error())
	}
	if res.Changed() {
		s.log.Info("block rule set migrated",
			"block_id", b.ID,
			"tenant_id", b.TenantID,
			"document_id", b.DocumentID,
			"path", res.Path.String(),
			"trigger", trigger,
			"revision", b.Revision)
	}
}

func encodeAttributes(attrs types.Attributes) (string, error) {
	data, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidAttributes, err)
	}
	if len(data) > types.MaxAttributesSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", types.ErrAttributesTooLarge, len(data), types.MaxAttributesSize)
	}
	return string(data), nil
}
