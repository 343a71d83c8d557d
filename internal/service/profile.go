package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/domain"
)

// ProfileService manages the per-user demographic profile. The stored sex,
// age group and workload feed profile display; the screening path reads
// user_sex from its own submission payload.
type ProfileService struct {
	repo       domain.ProfileRepository
	normalizer *Normalizer
	logger     *logrus.Logger
}

// NewProfileService creates a profile service.
func NewProfileService(repo domain.ProfileRepository, normalizer *Normalizer, logger *logrus.Logger) *ProfileService {
	return &ProfileService{repo: repo, normalizer: normalizer, logger: logger}
}

// Update validates the submitted profile fields and merges them into the
// stored profile. Absent fields keep their stored values; at least one
// field must be submitted.
func (s *ProfileService) Update(ctx context.Context, userID int64, payload map[string]interface{}) (*domain.UserProfile, error) {
	profile := &domain.UserProfile{
		UserID:   userID,
		Sex:      optString(payload["sex"]),
		AgeGroup: optString(payload["age_group"]),
		Workload: optString(payload["workload"]),
	}

	if profile.Sex == nil && profile.AgeGroup == nil && profile.Workload == nil {
		return nil, domain.NewValidationError("profile", "at least one of sex, age_group, workload is required", nil)
	}
	if err := s.normalizer.ValidateProfile(profile.Sex, profile.AgeGroup, profile.Workload); err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("storing profile: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
	}).Info("Profile updated")

	return profile, nil
}

// Get returns the stored profile for a user, or domain.ErrNotFound.
func (s *ProfileService) Get(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	return s.repo.Get(ctx, userID)
}
