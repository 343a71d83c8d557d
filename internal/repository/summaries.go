package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/domain"
)

// SummaryRepository handles weekly summary and final report persistence.
// Weekly rows are append-only history; the final report is one row per
// user replaced on recomputation.
type SummaryRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewSummaryRepository creates a new summary repository.
func NewSummaryRepository(db *pgxpool.Pool, logger *logrus.Logger) *SummaryRepository {
	return &SummaryRepository{
		db:  db,
		log: logger,
	}
}

// InsertWeekly appends one weekly summary row.
func (r *SummaryRepository) InsertWeekly(ctx context.Context, summary *domain.WeeklySummary) error {
	query := `
		INSERT INTO weekly_summary (
			user_id, week_start, week_end, week_number, averages, acr_status
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		summary.UserID,
		summary.WeekStart,
		summary.WeekEnd,
		summary.WeekNumber,
		summary.Averages,
		int(summary.ACRStatus),
	).Scan(&summary.ID, &summary.CreatedAt)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"user_id":    summary.UserID,
			"week_start": summary.WeekStart,
			"error":      err,
		}).Error("Failed to insert weekly summary")
		return fmt.Errorf("inserting weekly summary: %w", err)
	}

	return nil
}

// ListWeekly returns all weekly summaries for a user ordered by week start
// then insertion order, so later recomputations of the same week sort
// last.
func (r *SummaryRepository) ListWeekly(ctx context.Context, userID int64) ([]*domain.WeeklySummary, error) {
	query := `
		SELECT id, user_id, week_start::text, week_end::text, week_number,
			   averages, acr_status, created_at
		FROM weekly_summary
		WHERE user_id = $1
		ORDER BY week_start, id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing weekly summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.WeeklySummary
	for rows.Next() {
		var s domain.WeeklySummary
		var acrStatus int
		err := rows.Scan(
			&s.ID, &s.UserID, &s.WeekStart, &s.WeekEnd, &s.WeekNumber,
			&s.Averages, &acrStatus, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning weekly summary: %w", err)
		}
		s.ACRStatus = domain.ACRStatus(acrStatus)
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

// UpsertFinal stores the final report, replacing any previous report for
// the user.
func (r *SummaryRepository) UpsertFinal(ctx context.Context, report *domain.FinalReport) error {
	query := `
		INSERT INTO final_report (user_id, weekly_data, trend, acr_overall, generated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			weekly_data = EXCLUDED.weekly_data,
			trend = EXCLUDED.trend,
			acr_overall = EXCLUDED.acr_overall,
			generated_at = EXCLUDED.generated_at`

	_, err := r.db.Exec(ctx, query,
		report.UserID,
		report.WeeklyData,
		report.Trend,
		report.ACROverall,
		report.GeneratedAt,
	)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"user_id": report.UserID,
			"error":   err,
		}).Error("Failed to store final report")
		return fmt.Errorf("storing final report: %w", err)
	}

	return nil
}

// GetFinal returns the stored final report for a user.
func (r *SummaryRepository) GetFinal(ctx context.Context, userID int64) (*domain.FinalReport, error) {
	query := `
		SELECT user_id, weekly_data, trend, acr_overall, generated_at
		FROM final_report
		WHERE user_id = $1`

	var report domain.FinalReport
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&report.UserID,
		&report.WeeklyData,
		&report.Trend,
		&report.ACROverall,
		&report.GeneratedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("final report for user %d: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting final report: %w", err)
	}
	return &report, nil
}
