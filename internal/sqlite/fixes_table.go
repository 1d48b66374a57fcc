package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/geotask/pkg/types"
)

// ErrFixSourceEmpty is returned when saving a fix without a source name.
var ErrFixSourceEmpty = errors.New("fix source is required")

// FixTable stores position fixes so a recent one can be reused instead of
// acquiring a new one. Only the newest Config.History() fixes per source
// are kept.
type FixTable struct {
	backend *Backend
	keep    int
}

// Latest returns the most recently acquired fix for source.
// Returns ErrNotFound when none is stored.
func (ft *FixTable) Latest(source string) (types.Fix, error) {
	var (
		fix        types.Fix
		acquiredAt string
	)
	err := ft.backend.withDB(func(db *sql.DB) error {
		err := db.QueryRow(
			"SELECT fix_id, source, latitude, longitude, accuracy, acquired_at FROM fixes "+
				"WHERE source = ? ORDER BY acquired_at DESC LIMIT 1",
			source,
		).Scan(&fix.FixID, &fix.Source, &fix.Coordinate.Latitude, &fix.Coordinate.Longitude,
			&fix.Coordinate.Accuracy, &acquiredAt)
		if err == sql.ErrNoRows {
			return types.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reading latest fix: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Fix{}, err
	}

	t, err := time.Parse(timeLayout, acquiredAt)
	if err != nil {
		return types.Fix{}, fmt.Errorf("parsing fix time %q: %w", acquiredAt, err)
	}
	fix.AcquiredAt = t
	return fix, nil
}

// Save stores fix, generating a UUID v7 when FixID is empty, and prunes the
// source's history down to the newest entries. Returns the ID used.
func (ft *FixTable) Save(fix types.Fix) (string, error) {
	if fix.Source == "" {
		return "", ErrFixSourceEmpty
	}
	if fix.FixID == "" {
		fix.FixID = generateUUID()
	}
	if fix.AcquiredAt.IsZero() {
		fix.AcquiredAt = time.Now()
	}

	err := ft.backend.withDB(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO fixes (fix_id, source, latitude, longitude, accuracy, acquired_at) VALUES (?, ?, ?, ?, ?, ?)",
			fix.FixID, fix.Source, fix.Coordinate.Latitude, fix.Coordinate.Longitude,
			fix.Coordinate.Accuracy, fix.AcquiredAt.UTC().Format(timeLayout),
		); err != nil {
			return fmt.Errorf("persisting fix: %w", err)
		}

		if _, err := tx.Exec(
			"DELETE FROM fixes WHERE source = ? AND fix_id NOT IN "+
				"(SELECT fix_id FROM fixes WHERE source = ? ORDER BY acquired_at DESC LIMIT ?)",
			fix.Source, fix.Source, ft.keep,
		); err != nil {
			return fmt.Errorf("pruning fixes: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing fix: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return fix.FixID, nil
}

// count returns the number of stored fixes for source.
func (ft *FixTable) count(source string) (int, error) {
	var n int
	err := ft.backend.withDB(func(db *sql.DB) error {
		return db.QueryRow("SELECT COUNT(*) FROM fixes WHERE source = ?", source).Scan(&n)
	})
	return n, err
}
