package blocks

import (
	"context"
	"errors"
	"fmt"

	"github.com/solatis/blockvis/internal/core/db"
	"github.com/solatis/blockvis/internal/rules"
	"github.com/solatis/blockvis/internal/types"
)

// Mode selects the migration transform for a document sweep.
type Mode int

const (
	// ModePrimary upgrades legacy rule sets and marks them migrated.
	ModePrimary Mode = iota
	// ModeCompat resets device rules to visible without marking migrated.
	ModeCompat
)

// ParseMode maps "primary" and "compat" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "primary":
		return ModePrimary, nil
	case "compat":
		return ModeCompat, nil
	default:
		return ModePrimary, fmt.Errorf("unknown migration mode %q (want primary or compat)", s)
	}
}

func (m Mode) transform() func(types.Attributes) rules.Result {
	if m == ModeCompat {
		return rules.MigrateCompat
	}
	return rules.Migrate
}

// SweepReport summarises a MigrateDocument run.
type SweepReport struct {
	Scanned   int
	Migrated  int
	Unchanged int
	Defaulted int // blocks whose rule set had fields replaced by defaults
	Conflicts int // blocks skipped because a concurrent write won
}

// MigrateDocument runs every block of a document through the migrator and
// persists the changed ones. A block modified concurrently is counted as a
// conflict and left to the next read.
func (s *Store) MigrateDocument(ctx context.Context, tenant types.TenantID, document types.DocumentID, mode Mode) (SweepReport, error) {
	var report SweepReport
	if document == "" {
		return report, types.ErrMissingDocument
	}

	var rows []blockRow
	if err := s.queries.Select(ctx, "list-document-blocks", &rows, string(tenant), string(document)); err != nil {
		return report, fmt.Errorf("list blocks: %w", err)
	}

	migrate := mode.transform()
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		b, err := r.block()
		if err != nil {
			return report, err
		}
		res := migrate(b.Attributes)
		if res.Issues != nil {
			report.Defaulted++
		}
		if !res.Changed() {
			report.Unchanged++
			continue
		}

		err = s.queries.InTx(ctx, func(q *db.Queries) error {
			return s.write(ctx, q, b, res)
		})
		if errors.Is(err, types.ErrRevisionConflict) {
			report.Conflicts++
			continue
		}
		if err != nil {
			return report, err
		}
		report.Migrated++
		s.logMigration(b, res, "sweep")
	}

	s.log.Info("document migration sweep",
		"tenant_id", tenant,
		"document_id", document,
		"scanned", report.Scanned,
		"migrated", report.Migrated,
		"conflicts", report.Conflicts)
	return report, nil
}
