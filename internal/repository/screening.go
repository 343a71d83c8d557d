package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/domain"
)

// ScreeningRepository handles screening record persistence. One submission
// writes the summary row plus four per-module detail rows in a single
// transaction; a failure anywhere rolls everything back.
type ScreeningRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewScreeningRepository creates a new screening repository.
func NewScreeningRepository(db *pgxpool.Pool, logger *logrus.Logger) *ScreeningRepository {
	return &ScreeningRepository{
		db:  db,
		log: logger,
	}
}

// Save persists a complete screening record transactionally.
func (r *ScreeningRepository) Save(ctx context.Context, record *domain.ScreeningRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning screening transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO screenings (
			user_id, wpi_score, sss_score, sss_part_a, sss_part_b,
			first_score, primary_score, secondary_count, secondary_score_norm,
			risk_sum, risk_factor_fraction, composite_score, risk_level,
			risk_probability, is_eligible, acr_status, predictor_used,
			fallback_reason, duration
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19
		)
		RETURNING id, created_at`

	err = tx.QueryRow(ctx, query,
		record.UserID,
		record.WPIScore,
		record.SSSScore,
		record.SSSPartA,
		record.SSSPartB,
		record.FirstScore,
		record.PrimaryScore,
		record.SecondaryCount,
		record.SecondaryNorm,
		record.RiskSum,
		record.RiskFraction,
		record.CompositeScore,
		string(record.RiskCategory),
		record.RiskProbability,
		record.IsEligible,
		int(record.ACRStatus),
		record.PredictorUsed,
		string(record.FallbackReason),
		record.Duration,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting screening row: %w", err)
	}

	if err := r.insertDetails(ctx, tx, record); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing screening transaction: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"screening_id": record.ID,
		"user_id":      record.UserID,
		"risk_level":   record.RiskCategory,
	}).Info("Screening record saved")

	return nil
}

// insertDetails writes the per-module detail rows inside the transaction.
func (r *ScreeningRepository) insertDetails(ctx context.Context, tx pgx.Tx, record *domain.ScreeningRecord) error {
	input := record.Input
	if input == nil {
		input = &domain.ScreeningInput{}
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO primary_symptoms (
			screening_id, user_id, wpi_regions, sss_answers, sss_somatic, duration_4_weeks
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.UserID, record.WPIRegions, input.SSSAnswers, input.SSSSomatic, input.Duration4Weeks,
	)
	if err != nil {
		return fmt.Errorf("inserting primary symptoms: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO secondary_symptoms (screening_id, user_id, symptoms, symptom_count)
		VALUES ($1, $2, $3, $4)`,
		record.ID, record.UserID, record.SecondarySymptoms, record.SecondaryCount,
	)
	if err != nil {
		return fmt.Errorf("inserting secondary symptoms: %w", err)
	}

	factors := input.RiskFactors
	_, err = tx.Exec(ctx, `
		INSERT INTO risk_factors (screening_id, user_id, r1, r2, r3, r4, r5, r6, user_sex)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.UserID,
		factors["r1"], factors["r2"], factors["r3"],
		factors["r4"], factors["r5"], factors["r6"],
		input.UserSex,
	)
	if err != nil {
		return fmt.Errorf("inserting risk factors: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO screening_result (
			screening_id, user_id, risk_level, risk_probability, is_eligible,
			acr_status, first_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.UserID,
		string(record.RiskCategory), record.RiskProbability, record.IsEligible,
		int(record.ACRStatus), record.FirstScore,
	)
	if err != nil {
		return fmt.Errorf("inserting screening result: %w", err)
	}

	return nil
}

// Latest returns the most recent screening record for a user.
func (r *ScreeningRepository) Latest(ctx context.Context, userID int64) (*domain.ScreeningRecord, error) {
	query := `
		SELECT s.id, s.user_id, s.wpi_score, s.sss_score, s.sss_part_a,
			   s.sss_part_b, s.first_score, s.primary_score, s.secondary_count,
			   s.secondary_score_norm, s.risk_sum, s.risk_factor_fraction,
			   s.composite_score, s.risk_level, s.risk_probability,
			   s.is_eligible, s.acr_status, s.predictor_used,
			   s.fallback_reason, s.duration, s.created_at,
			   ps.wpi_regions, ss.symptoms
		FROM screenings s
		LEFT JOIN primary_symptoms ps ON ps.screening_id = s.id
		LEFT JOIN secondary_symptoms ss ON ss.screening_id = s.id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT 1`

	var record domain.ScreeningRecord
	var riskLevel, fallbackReason string
	var acrStatus int

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&record.ID,
		&record.UserID,
		&record.WPIScore,
		&record.SSSScore,
		&record.SSSPartA,
		&record.SSSPartB,
		&record.FirstScore,
		&record.PrimaryScore,
		&record.SecondaryCount,
		&record.SecondaryNorm,
		&record.RiskSum,
		&record.RiskFraction,
		&record.CompositeScore,
		&riskLevel,
		&record.RiskProbability,
		&record.IsEligible,
		&acrStatus,
		&record.PredictorUsed,
		&fallbackReason,
		&record.Duration,
		&record.CreatedAt,
		&record.WPIRegions,
		&record.SecondarySymptoms,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("screening for user %d: %w", userID, domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Error("Failed to get latest screening")
		return nil, fmt.Errorf("getting latest screening: %w", err)
	}

	record.RiskCategory = domain.RiskCategory(riskLevel)
	record.ACRStatus = domain.ACRStatus(acrStatus)
	record.FallbackReason = domain.FallbackReason(fallbackReason)
	return &record, nil
}
