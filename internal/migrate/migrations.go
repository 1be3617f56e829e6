// Package migrate applies the embedded activity-history schema.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

//go:embed sql/*.sql
var schemaFS embed.FS

// Migrate brings the history database up to the newest embedded schema.
// Filenames are NNNN_name.sql; schema_version records the last applied number.
func Migrate(db *sql.DB) error {
	names, err := fs.Glob(schemaFS, "sql/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version(version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}
	current := 0
	err = tx.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&current)
	if err == sql.ErrNoRows {
		if _, err := tx.Exec(`INSERT INTO schema_version(version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema_version: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}

	for _, name := range names {
		var v int
		if _, err := fmt.Sscanf(path.Base(name), "%d_", &v); err != nil {
			return fmt.Errorf("invalid migration filename %s: %w", name, err)
		}
		if v <= current {
			continue
		}
		stmt, err := schemaFS.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(stmt)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		if _, err := tx.Exec(`UPDATE schema_version SET version=?`, v); err != nil {
			return fmt.Errorf("update schema_version: %w", err)
		}
		current = v
	}
	return tx.Commit()
}
