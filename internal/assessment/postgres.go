package assessment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL assessment store from a
// connection string and ensures the schema exists.
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return store, nil
}

// NewPostgresStoreFromDB wraps an existing connection, for tests.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// createSchema creates the database tables and indexes.
func (s *PostgresStore) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS monthly_assessments (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		entry_date TEXT NOT NULL,
		phq9_score INTEGER,
		gad7_score INTEGER,
		phq9_data JSONB,
		gad7_data JSONB,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_user ON monthly_assessments(user_id);
	CREATE INDEX IF NOT EXISTS idx_assessments_entry_date ON monthly_assessments(entry_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save appends one assessment record.
func (s *PostgresStore) Save(ctx context.Context, a *Assessment) error {
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

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO monthly_assessments
			(user_id, entry_date, phq9_score, gad7_score, phq9_data, gad7_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, a.UserID, a.EntryDate, a.PHQ9Score, a.GAD7Score, phq9Data, gad7Data, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

// ListByUser returns all assessments for a user ordered by entry date.
func (s *PostgresStore) ListByUser(ctx context.Context, userID int64) ([]*Assessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM monthly_assessments WHERE user_id = $1 ORDER BY entry_date, id`,
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
func (s *PostgresStore) Latest(ctx context.Context, userID int64) (*Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM monthly_assessments WHERE user_id = $1 ORDER BY entry_date DESC, id DESC LIMIT 1`,
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
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM monthly_assessments").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
