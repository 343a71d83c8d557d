package domain

import (
	"context"
)

// ConfigManager provides access to the loaded configuration.
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	GetScoringConfig() *ScoringConfig
	Validate() error
}

// EntryRepository persists daily entries. Create must map a storage-level
// (user, date) uniqueness violation to *ConflictError.
type EntryRepository interface {
	Create(ctx context.Context, entry *DailyEntry) error
	GetByDate(ctx context.Context, userID int64, entryDate string) (*DailyEntry, error)
	ListRange(ctx context.Context, userID int64, startDate, endDate string) ([]*DailyEntry, error)
	ListAll(ctx context.Context, userID int64) ([]*DailyEntry, error)
}

// ScreeningRepository persists screening records. Save must write the
// summary row and all per-module detail rows in one transaction; a failure
// leaves nothing behind.
type ScreeningRepository interface {
	Save(ctx context.Context, record *ScreeningRecord) error
	Latest(ctx context.Context, userID int64) (*ScreeningRecord, error)
}

// ProfileRepository persists user profiles. Upsert merges per field: a nil
// field keeps the stored value.
type ProfileRepository interface {
	Upsert(ctx context.Context, profile *UserProfile) error
	Get(ctx context.Context, userID int64) (*UserProfile, error)
}

// SummaryRepository persists weekly summaries and the final report.
type SummaryRepository interface {
	InsertWeekly(ctx context.Context, summary *WeeklySummary) error
	ListWeekly(ctx context.Context, userID int64) ([]*WeeklySummary, error)
	UpsertFinal(ctx context.Context, report *FinalReport) error
	GetFinal(ctx context.Context, userID int64) (*FinalReport, error)
}

// RiskFeatures is the fixed-order feature vector consumed by the screening
// risk model. Field order matches the training data columns.
type RiskFeatures struct {
	WPI                int     `json:"WPI"`
	SSS                int     `json:"SSS"`
	PainRegions        int     `json:"pain_regions"`
	SymptomPersistence int     `json:"symptom_persistence"`
	SecondaryScoreNorm float64 `json:"secondary_score_norm"`
	RiskFactorFraction float64 `json:"risk_factor_fraction"`
	RFTotal            float64 `json:"rf_total"`
}

// Vector returns the features in training-column order.
func (f RiskFeatures) Vector() []float64 {
	return []float64{
		float64(f.WPI),
		float64(f.SSS),
		float64(f.PainRegions),
		float64(f.SymptomPersistence),
		f.SecondaryScoreNorm,
		f.RiskFactorFraction,
		f.RFTotal,
	}
}

// RiskPrediction is the outcome of one ML override attempt.
type RiskPrediction struct {
	Category    RiskCategory `json:"category"`
	Probability float64      `json:"probability"` // probability mass on High
}

// RiskPredictor attempts an ML override of the rule-based category. Any
// error must be treated as advisory: callers fall back to the rule-based
// result and record the reason; a prediction failure never aborts a
// submission.
type RiskPredictor interface {
	Predict(ctx context.Context, features RiskFeatures) (*RiskPrediction, error)
}
