package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/mailseed/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveState marshals the state document and replaces the single
// campaign_state row. SQLite applies the statement atomically, so readers
// never observe a partially written document.
func (s *SQLiteStore) SaveState(ctx context.Context, state model.CampaignState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling campaign state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO campaign_state (id, doc, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		string(doc), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving campaign state: %w", err)
	}

	return nil
}

// LoadState reads the persisted campaign state document. Unknown fields in
// the document are ignored, so documents written by newer versions load
// cleanly. Returns nil when no state has been persisted yet.
func (s *SQLiteStore) LoadState(ctx context.Context) (*model.CampaignState, error) {
	var doc string
	err := s.db.GetContext(ctx, &doc, "SELECT doc FROM campaign_state WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading campaign state: %w", err)
	}

	var state model.CampaignState
	if err := json.Unmarshal([]byte(doc), &state); err != nil {
		return nil, fmt.Errorf("unmarshaling campaign state: %w", err)
	}

	return &state, nil
}

// AppendThreadRecords inserts a batch of thread records in one transaction.
// Already-present message ids are skipped so a re-flushed checkpoint does
// not fail.
func (s *SQLiteStore) AppendThreadRecords(ctx context.Context, records []model.ThreadRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int
	if err := tx.GetContext(ctx, &seq, "SELECT COALESCE(MAX(seq), 0) FROM thread_records"); err != nil {
		return fmt.Errorf("reading thread record sequence: %w", err)
	}

	const query = `
		INSERT OR IGNORE INTO thread_records (
			message_id, subject, sender_addr, sender_name,
			recipient_addr, recipient_name, seq
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing thread record insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		seq++
		_, err = stmt.ExecContext(ctx,
			r.MessageID, r.Subject, r.SenderAddr, r.SenderName,
			r.RecipientAddr, r.RecipientName, seq,
		)
		if err != nil {
			return fmt.Errorf("inserting thread record %s: %w", r.MessageID, err)
		}
	}

	return tx.Commit()
}

// LoadThreadRecords returns all thread records in insertion order.
func (s *SQLiteStore) LoadThreadRecords(ctx context.Context) ([]model.ThreadRecord, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT message_id, subject, sender_addr, sender_name, recipient_addr, recipient_name
		FROM thread_records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying thread records: %w", err)
	}
	defer rows.Close()

	var records []model.ThreadRecord
	for rows.Next() {
		var r model.ThreadRecord
		err := rows.Scan(
			&r.MessageID, &r.Subject, &r.SenderAddr, &r.SenderName,
			&r.RecipientAddr, &r.RecipientName,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning thread record row: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
