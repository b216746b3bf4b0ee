package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SeenRow is one row of the seen_jobs table.
type SeenRow struct {
	Key       string
	Company   string
	Title     string
	URL       string
	FirstSeen time.Time
}

func Migrate(db *sql.DB) error {

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS seen_jobs (
  key TEXT PRIMARY KEY,
  company TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL DEFAULT '',
  first_seen TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_seen_jobs_first_seen
ON seen_jobs(first_seen);
`); err != nil {
		return err
	}

	// Mark schema v1
	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

func ListSeen(ctx context.Context, db *sql.DB) ([]SeenRow, error) {
	rows, err := db.QueryContext(ctx, `
SELECT key, company, title, url, first_seen
FROM seen_jobs
ORDER BY key;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeenRow
	for rows.Next() {
		var r SeenRow
		var firstSeen string
		if err := rows.Scan(&r.Key, &r.Company, &r.Title, &r.URL, &firstSeen); err != nil {
			return nil, err
		}
		r.FirstSeen, _ = time.Parse(time.RFC3339, firstSeen)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceSeen inserts add and deletes del in one transaction, so a failed
// save leaves the table as it was.
func ReplaceSeen(ctx context.Context, db *sql.DB, add []SeenRow, del []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if len(add) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO seen_jobs(key, company, title, url, first_seen)
VALUES(?,?,?,?,?);`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range add {
			if _, err := stmt.ExecContext(ctx, r.Key, r.Company, r.Title, r.URL, r.FirstSeen.UTC().Format(time.RFC3339)); err != nil {
				return fmt.Errorf("insert seen %q: %w", r.Key, err)
			}
		}
	}

	for _, k := range del {
		if _, err := tx.ExecContext(ctx, `DELETE FROM seen_jobs WHERE key = ?;`, k); err != nil {
			return fmt.Errorf("delete seen %q: %w", k, err)
		}
	}

	return tx.Commit()
}
