package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/domain"
)

// ProfileRepository handles user profile persistence.
type ProfileRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *pgxpool.Pool, logger *logrus.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:  db,
		log: logger,
	}
}

// Upsert writes a profile, merging field by field: a nil field in the input
// keeps the stored value. The merged row is scanned back into the input.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *domain.UserProfile) error {
	query := `
		INSERT INTO user_profiles (user_id, sex, age_group, workload, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			sex = COALESCE(EXCLUDED.sex, user_profiles.sex),
			age_group = COALESCE(EXCLUDED.age_group, user_profiles.age_group),
			workload = COALESCE(EXCLUDED.workload, user_profiles.workload),
			updated_at = NOW()
		RETURNING sex, age_group, workload, updated_at`

	err := r.db.QueryRow(ctx, query,
		profile.UserID,
		profile.Sex,
		profile.AgeGroup,
		profile.Workload,
	).Scan(&profile.Sex, &profile.AgeGroup, &profile.Workload, &profile.UpdatedAt)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"user_id": profile.UserID,
			"error":   err,
		}).Error("Failed to upsert profile")
		return fmt.Errorf("upserting profile: %w", err)
	}

	return nil
}

// Get retrieves the profile for a user, or domain.ErrNotFound.
func (r *ProfileRepository) Get(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, sex, age_group, workload, updated_at
		FROM user_profiles
		WHERE user_id = $1`

	var profile domain.UserProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Sex,
		&profile.AgeGroup,
		&profile.Workload,
		&profile.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("profile for user %d: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return &profile, nil
}
