package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/domain"
)

// Persistence proxy values fed to the risk model: the questionnaire only
// captures a binary 4-week flag, but the model was trained on a month
// count.
const (
	persistencePersistent = 6
	persistenceRecent     = 1
)

const (
	durationOverThreeMonths  = "more_than_3_months"
	durationUnderThreeMonths = "less_than_3_months"
)

// ScreeningService runs the full screening pipeline: module sub-scores,
// composite weighting, rule-based classification, the optional ML
// override, and transactional persistence of the outcome.
type ScreeningService struct {
	repo       domain.ScreeningRepository
	primary    *PrimaryRuleEngine
	predictor  domain.RiskPredictor
	normalizer *Normalizer
	scoring    domain.ScoringConfig
	logger     *logrus.Logger
}

// NewScreeningService creates a screening service. predictor may be nil,
// in which case every submission is classified rule-based only.
func NewScreeningService(
	repo domain.ScreeningRepository,
	primary *PrimaryRuleEngine,
	predictor domain.RiskPredictor,
	normalizer *Normalizer,
	scoring domain.ScoringConfig,
	logger *logrus.Logger,
) *ScreeningService {
	return &ScreeningService{
		repo:       repo,
		primary:    primary,
		predictor:  predictor,
		normalizer: normalizer,
		scoring:    scoring,
		logger:     logger,
	}
}

// Normalize validates a raw screening payload.
func (s *ScreeningService) Normalize(payload map[string]interface{}) (*domain.ScreeningInput, error) {
	return s.normalizer.NormalizeScreening(payload)
}

// Submit scores a normalized screening input, persists the full record and
// returns the caller-facing verdict. The ML override is advisory: any
// predictor failure falls back to the rule-based classification and the
// submission still succeeds.
func (s *ScreeningService) Submit(ctx context.Context, userID int64, input *domain.ScreeningInput) (*domain.ScreeningResult, error) {
	record := s.Score(ctx, userID, input)

	if err := s.repo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("saving screening record: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":         userID,
		"risk_level":      record.RiskCategory,
		"composite_score": record.CompositeScore,
		"predictor_used":  record.PredictorUsed,
	}).Info("Screening submission scored")

	return &domain.ScreeningResult{
		RiskLevel:       record.RiskCategory,
		RiskProbability: record.RiskProbability,
		IsEligible:      record.IsEligible,
		WPIScore:        record.WPIScore,
		SSSScore:        record.SSSScore,
	}, nil
}

// Score runs the scoring pipeline without persisting. The returned record
// carries every intermediate sub-score plus the input for detail-row
// persistence.
func (s *ScreeningService) Score(ctx context.Context, userID int64, input *domain.ScreeningInput) *domain.ScreeningRecord {
	wpiScore := len(input.WPIRegions)
	partA := input.SSSAnswers.Sum()
	partB := input.SSSSomatic.Sum()
	sssScore := partA + partB

	primaryEval := s.primary.Evaluate(PrimaryInput{
		WPIScore:       wpiScore,
		SSSScore:       sssScore,
		Duration4Weeks: input.Duration4Weeks,
	})
	secondary := CountSecondarySymptoms(input.SecondarySymptoms)
	risk := AggregateRiskFactors(input.RiskFactors, input.UserSex)

	composite := s.scoring.PrimaryWeight*primaryEval.Score +
		s.scoring.SecondaryWeight*secondary.Norm +
		s.scoring.RiskWeight*risk.Fraction

	category := s.classify(composite)
	probability := composite
	if probability > 1.0 {
		probability = 1.0
	}

	record := &domain.ScreeningRecord{
		UserID:            userID,
		WPIScore:          wpiScore,
		SSSScore:          sssScore,
		SSSPartA:          partA,
		SSSPartB:          partB,
		FirstScore:        countFirstAnswers(input.FirstAnswers),
		PrimaryScore:      primaryEval.Score,
		SecondaryCount:    secondary.Count,
		SecondaryNorm:     secondary.Norm,
		RiskSum:           risk.Sum,
		RiskFraction:      risk.Fraction,
		CompositeScore:    composite,
		RiskCategory:      category,
		RiskProbability:   probability,
		ACRStatus:         EvaluateACR(float64(wpiScore), float64(sssScore)),
		Duration:          durationLabel(input.Duration4Weeks),
		WPIRegions:        input.WPIRegions,
		SecondarySymptoms: input.SecondarySymptoms,
		Input:             input,
	}

	s.applyOverride(ctx, record, secondary, risk, input)

	// Eligibility follows the final category, overridden or not.
	record.IsEligible = record.RiskCategory == domain.RiskHigh || record.RiskCategory == domain.RiskModerate

	return record
}

// Latest returns the most recent screening record for a user.
func (s *ScreeningService) Latest(ctx context.Context, userID int64) (*domain.ScreeningRecord, error) {
	return s.repo.Latest(ctx, userID)
}

// classify maps a composite score onto the three risk categories.
func (s *ScreeningService) classify(composite float64) domain.RiskCategory {
	switch {
	case composite >= s.scoring.HighThreshold:
		return domain.RiskHigh
	case composite >= s.scoring.ModerateThreshold:
		return domain.RiskModerate
	}
	return domain.RiskLow
}

// applyOverride attempts the ML override and mutates the record in place.
// Failure is recorded as a fallback reason, never propagated.
func (s *ScreeningService) applyOverride(ctx context.Context, record *domain.ScreeningRecord, secondary SecondaryAssessment, risk RiskAssessment, input *domain.ScreeningInput) {
	if s.predictor == nil {
		record.FallbackReason = domain.FallbackModelAbsent
		return
	}

	features := domain.RiskFeatures{
		WPI:                record.WPIScore,
		SSS:                record.SSSScore,
		PainRegions:        record.WPIScore,
		SymptomPersistence: persistenceValue(input.Duration4Weeks),
		SecondaryScoreNorm: secondary.Norm,
		RiskFactorFraction: risk.Fraction,
		RFTotal:            risk.Sum,
	}

	prediction, err := s.predictor.Predict(ctx, features)
	if err != nil {
		reason := domain.FallbackBadResponse
		var unavailable *domain.ModelUnavailableError
		if errors.As(err, &unavailable) {
			reason = unavailable.Reason
		}
		record.FallbackReason = reason
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": record.UserID,
			"reason":  reason,
		}).Warn("Risk predictor unavailable, using rule-based classification")
		return
	}
	if prediction == nil || !prediction.Category.Valid() {
		record.FallbackReason = domain.FallbackBadResponse
		return
	}

	record.PredictorUsed = true
	record.RiskCategory = prediction.Category
	record.RiskProbability = prediction.Probability
}

// countFirstAnswers totals the positive FiRST questionnaire answers.
func countFirstAnswers(answers map[string]bool) int {
	count := 0
	for _, v := range answers {
		if v {
			count++
		}
	}
	return count
}

func persistenceValue(duration4Weeks bool) int {
	if duration4Weeks {
		return persistencePersistent
	}
	return persistenceRecent
}

func durationLabel(duration4Weeks bool) string {
	if duration4Weeks {
		return durationOverThreeMonths
	}
	return durationUnderThreeMonths
}
