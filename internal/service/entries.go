package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/domain"
)

// EntryService manages daily self-report entries.
type EntryService struct {
	repo       domain.EntryRepository
	normalizer *Normalizer
	logger     *logrus.Logger
}

// NewEntryService creates a daily entry service.
func NewEntryService(repo domain.EntryRepository, normalizer *Normalizer, logger *logrus.Logger) *EntryService {
	return &EntryService{repo: repo, normalizer: normalizer, logger: logger}
}

// Create validates and stores one daily entry. A second entry for the same
// (user, date) surfaces as *domain.ConflictError from the repository; there
// is no update path.
func (s *EntryService) Create(ctx context.Context, userID int64, payload map[string]interface{}) (*domain.DailyEntry, error) {
	entry, err := s.normalizer.NormalizeDailyEntry(userID, payload)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"entry_date": entry.EntryDate,
	}).Info("Daily entry recorded")

	return entry, nil
}

// GetByDate returns the entry for a specific date, or domain.ErrNotFound.
func (s *EntryService) GetByDate(ctx context.Context, userID int64, entryDate string) (*domain.DailyEntry, error) {
	entry, err := s.repo.GetByDate(ctx, userID, entryDate)
	if err != nil {
		return nil, fmt.Errorf("fetching entry for %s: %w", entryDate, err)
	}
	return entry, nil
}

// List returns all entries for a user ordered by date.
func (s *EntryService) List(ctx context.Context, userID int64) ([]*domain.DailyEntry, error) {
	return s.repo.ListAll(ctx, userID)
}
