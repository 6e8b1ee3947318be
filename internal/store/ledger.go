package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Status classifies a migration file against the ledger.
type Status string

const (
	// StatusInSync means the recorded fingerprint matches the file.
	StatusInSync Status = "in sync"
	// StatusChanged means the file drifted from its recorded fingerprint.
	StatusChanged Status = "changed"
	// StatusUnapplied means the migration has never been recorded.
	StatusUnapplied Status = "unapplied"
)

// Entry is one ledger row.
type Entry struct {
	ID          string
	Name        string
	Seq         int64
	Fingerprint string
	RecordedAt  string
}

// Record upserts a migration's fingerprint into the ledger.
// Re-recording an existing migration replaces its fingerprint, which
// is how a changed migration returns to in-sync after regeneration.
func (s *Store) Record(ctx context.Context, id, name string, seq int64, fingerprint string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO migrations (id, name, seq, fingerprint)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			seq = excluded.seq,
			fingerprint = excluded.fingerprint,
			recorded_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
	`, id, name, seq, fingerprint)
	if err != nil {
		return fmt.Errorf("record migration %q: %w", id, err)
	}
	return nil
}

// StatusOf compares a migration's current fingerprint against the
// ledger.
func (s *Store) StatusOf(ctx context.Context, id, fingerprint string) (Status, error) {
	var recorded string
	err := s.db.QueryRowContext(ctx,
		`SELECT fingerprint FROM migrations WHERE id = ?`, id,
	).Scan(&recorded)
	if err == sql.ErrNoRows {
		return StatusUnapplied, nil
	}
	if err != nil {
		return "", fmt.Errorf("status of migration %q: %w", id, err)
	}
	if recorded == fingerprint {
		return StatusInSync, nil
	}
	return StatusChanged, nil
}

// List returns every ledger entry ordered by sequence number.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, seq, fingerprint, recorded_at
		FROM migrations
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Seq, &e.Fingerprint, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("list migrations: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	return entries, nil
}
