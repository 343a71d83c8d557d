package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite assessment store. It creates the
// database file and schema if they don't exist. Pass ":memory:" for an
// ephemeral store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency on file-backed stores.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS monthly_assessments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		entry_date TEXT NOT NULL,
		phq9_score INTEGER,
		gad7_score INTEGER,
		phq9_data TEXT,
		gad7_data TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_user ON monthly_assessments(user_id);
	CREATE INDEX IF NOT EXISTS idx_assessments_entry_date ON monthly_assessments(entry_date);
	`

	_, err := db.Exec(schema)
	return err
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanAssessment scans a row into an Assessment struct.
func scanAssessment(s scanner) (*Assessment, error) {
	a := &Assessment{}
	var phq9Data, gad7Data sql.NullString

	err := s.Scan(
		&a.ID, &a.UserID, &a.EntryDate,
		&a.PHQ9Score, &a.GAD7Score,
		&phq9Data, &gad7Data, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if phq9Data.Valid && phq9Data.String != "" {
		if err := json.Unmarshal([]byte(phq9Data.String), &a.PHQ9Data); err != nil {
			return nil, fmt.Errorf("decoding phq9 data: %w", err)
		}
	}
	if gad7Data.Valid && gad7Data.String != "" {
		if err := json.Unmarshal([]byte(gad7Data.String), &a.GAD7Data); err != nil {
			return nil, fmt.Errorf("decoding gad7 data: %w", err)
		}
	}
	return a, nil
}

// encodeScaleData marshals the per-question breakdown for storage.
func encodeScaleData(d *ScaleData) (sql.NullString, error) {
	if d == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding scale data: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

// Save appends one assessment record.
func (s *SQLiteStore) Save(ctx context.Context, a *Assessment) error {
	phq9Data, err := encodeScaleData(a.PHQ9Data)
	if err != nil {
		return err
	}
	gad7Data, err := encodeScaleData(a.GAD7Data)
	if err != nil {
		return err
	}

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO monthly_assessments
			(user_id, entry_date, phq9_score, gad7_score, phq9_data, gad7_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.UserID, a.EntryDate, a.PHQ9Score, a.GAD7Score, phq9Data, gad7Data, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		a.ID = id
	}
	return nil
}

const selectColumns = `id, user_id, entry_date, phq9_score, gad7_score, phq9_data, gad7_data, created_at`

// ListByUser returns all assessments for a user ordered by entry date.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID int64) ([]*Assessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM monthly_assessments WHERE user_id = ? ORDER BY entry_date, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var out []*Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Latest returns the most recent assessment for a user.
func (s *SQLiteStore) Latest(ctx context.Context, userID int64) (*Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM monthly_assessments WHERE user_id = ? ORDER BY entry_date DESC, id DESC LIMIT 1`,
		userID,
	)
	a, err := scanAssessment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest assessment: %w", err)
	}
	return a, nil
}

// Count returns the total number of stored assessments.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM monthly_assessments").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
