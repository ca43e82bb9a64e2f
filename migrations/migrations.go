// Package migrations embeds the schema migrations for each supported driver.
package migrations

import "embed"

// SqliteMigrations holds migrations/sqlite/*.sql.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

// PostgresMigrations holds migrations/postgres/*.sql.
//
//go:embed postgres/*.sql
var PostgresMigrations embed.FS
