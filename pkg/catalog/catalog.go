// Package catalog reads the SRA metadata catalog (an SRAmetadb-style SQLite
// database) and materializes candidate tables for classification.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

var (
	// ErrCatalogUnavailable reports a catalog that cannot be opened or that
	// lacks the sra relation. Callers retry by re-invoking with a fresh handle.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrQueryFailed reports a query that failed to execute against an open
	// catalog.
	ErrQueryFailed = errors.New("catalog query failed")
)

// relation is the table holding one row per sequencing run.
const relation = "sra"

// Catalog is a read-only handle to the metadata catalog.
type Catalog struct {
	*sql.DB
	path string
}

// Open opens the catalog at the given path and verifies the sra relation
// exists. The catalog is treated as a read-only snapshot; nothing here writes.
func Open(path string) (*Catalog, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogUnavailable, path, err)
	}

	sqlDB, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogUnavailable, path, err)
	}

	cat := &Catalog{DB: sqlDB, path: path}
	if err := cat.ensureRelationExists(); err != nil {
		_ = cat.Close()
		return nil, err
	}
	return cat, nil
}

// openDB opens a SQLite database at the given path.
func openDB(path string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA query_only = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to set query_only: %w", err)
	}
	return sqlDB, nil
}

// ensureRelationExists checks that the sra relation is present.
func (c *Catalog) ensureRelationExists() error {
	var name string
	err := c.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", relation,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s: no %q relation", ErrCatalogUnavailable, c.path, relation)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCatalogUnavailable, c.path, err)
	}
	return nil
}

// Path returns the catalog file path.
func (c *Catalog) Path() string {
	return c.path
}

// StrategyCount is one row of the catalog overview.
type StrategyCount struct {
	LibraryStrategy string
	Runs            int64
}

// Stats returns the total run count and the per-library-strategy breakdown,
// most frequent strategy first.
func (c *Catalog) Stats() (total int64, byStrategy []StrategyCount, err error) {
	if err := c.QueryRow("SELECT COUNT(*) FROM " + relation).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	rows, err := c.Query(
		"SELECT COALESCE(library_strategy, ''), COUNT(*) FROM " + relation +
			" GROUP BY library_strategy ORDER BY COUNT(*) DESC, library_strategy",
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc StrategyCount
		if err := rows.Scan(&sc.LibraryStrategy, &sc.Runs); err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		byStrategy = append(byStrategy, sc)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return total, byStrategy, nil
}
