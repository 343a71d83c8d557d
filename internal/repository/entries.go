// Package repository implements PostgreSQL persistence for daily entries,
// screening records and derived summaries.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/domain"
)

const pgUniqueViolation = "23505"

// EntryRepository handles daily entry persistence.
type EntryRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewEntryRepository creates a new daily entry repository.
func NewEntryRepository(db *pgxpool.Pool, logger *logrus.Logger) *EntryRepository {
	return &EntryRepository{
		db:  db,
		log: logger,
	}
}

// Create inserts a new daily entry. A uniqueness violation on
// (user_id, entry_date) is mapped to *domain.ConflictError.
func (r *EntryRepository) Create(ctx context.Context, entry *domain.DailyEntry) error {
	query := `
		INSERT INTO daily_entries (
			user_id, entry_date, pain_score, fatigue_score, stress_score,
			mood_score, sleep_quality, cognitive_difficulty, sensory_score,
			weather_score, wpi_regions, sss, sleep_hours, exercise,
			exercise_type, exercise_duration_minutes, workload,
			weather_sensitivity, illness, recent_infection, menstrual_phase
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21
		)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		entry.UserID,
		entry.EntryDate,
		entry.PainScore,
		entry.FatigueScore,
		entry.StressScore,
		entry.MoodScore,
		entry.SleepQuality,
		entry.CognitiveDifficulty,
		entry.SensoryScore,
		entry.WeatherScore,
		entry.WPIRegions,
		entry.SSS,
		entry.SleepHours,
		entry.Exercise,
		entry.ExerciseType,
		entry.ExerciseDurationMinutes,
		entry.Workload,
		entry.WeatherSensitivity,
		entry.Illness,
		entry.RecentInfection,
		entry.MenstrualPhase,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return &domain.ConflictError{UserID: entry.UserID, EntryDate: entry.EntryDate}
		}
		r.log.WithFields(logrus.Fields{
			"user_id":    entry.UserID,
			"entry_date": entry.EntryDate,
			"error":      err,
		}).Error("Failed to create daily entry")
		return fmt.Errorf("creating daily entry: %w", err)
	}

	return nil
}

const entryColumns = `
	id, user_id, entry_date::text, pain_score, fatigue_score, stress_score,
	mood_score, sleep_quality, cognitive_difficulty, sensory_score,
	weather_score, wpi_regions, sss, sleep_hours, exercise, exercise_type,
	exercise_duration_minutes, workload, weather_sensitivity, illness,
	recent_infection, menstrual_phase, created_at`

// scanEntry reads one daily entry row.
func scanEntry(row pgx.Row) (*domain.DailyEntry, error) {
	var entry domain.DailyEntry
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.EntryDate,
		&entry.PainScore,
		&entry.FatigueScore,
		&entry.StressScore,
		&entry.MoodScore,
		&entry.SleepQuality,
		&entry.CognitiveDifficulty,
		&entry.SensoryScore,
		&entry.WeatherScore,
		&entry.WPIRegions,
		&entry.SSS,
		&entry.SleepHours,
		&entry.Exercise,
		&entry.ExerciseType,
		&entry.ExerciseDurationMinutes,
		&entry.Workload,
		&entry.WeatherSensitivity,
		&entry.Illness,
		&entry.RecentInfection,
		&entry.MenstrualPhase,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetByDate retrieves the entry for a specific date.
func (r *EntryRepository) GetByDate(ctx context.Context, userID int64, entryDate string) (*domain.DailyEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM daily_entries
		WHERE user_id = $1 AND entry_date = $2`

	entry, err := scanEntry(r.db.QueryRow(ctx, query, userID, entryDate))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("daily entry for %s: %w", entryDate, domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"user_id":    userID,
			"entry_date": entryDate,
			"error":      err,
		}).Error("Failed to get daily entry")
		return nil, fmt.Errorf("getting daily entry: %w", err)
	}
	return entry, nil
}

// ListRange returns the entries between startDate and endDate inclusive,
// ordered by date.
func (r *EntryRepository) ListRange(ctx context.Context, userID int64, startDate, endDate string) ([]*domain.DailyEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM daily_entries
		WHERE user_id = $1 AND entry_date BETWEEN $2 AND $3
		ORDER BY entry_date`

	rows, err := r.db.Query(ctx, query, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("listing daily entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListAll returns every entry for a user ordered by date.
func (r *EntryRepository) ListAll(ctx context.Context, userID int64) ([]*domain.DailyEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM daily_entries
		WHERE user_id = $1
		ORDER BY entry_date`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing daily entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]*domain.DailyEntry, error) {
	var entries []*domain.DailyEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning daily entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
