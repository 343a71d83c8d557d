package domain

import (
	"time"
)

// DailyEntry is one calendar-day self-report for a user. At most one entry
// exists per (user, date); entries are immutable once written.
type DailyEntry struct {
	ID        int64  `json:"id,omitempty"`
	UserID    int64  `json:"user_id"`
	EntryDate string `json:"entry_date"` // YYYY-MM-DD

	// Numeric scores, 0-10. Nil means the field was not submitted; nil is
	// never collapsed to zero.
	PainScore           *int `json:"pain_score,omitempty"`
	FatigueScore        *int `json:"fatigue_score,omitempty"`
	StressScore         *int `json:"stress_score,omitempty"`
	MoodScore           *int `json:"mood_score,omitempty"`
	SleepQuality        *int `json:"sleep_quality,omitempty"`
	CognitiveDifficulty *int `json:"cognitive_difficulty,omitempty"`
	SensoryScore        *int `json:"sensory_sensitivity_score,omitempty"`

	// Legacy weather impact scale, 0-19.
	WeatherScore *int `json:"weather_score,omitempty"`

	// WPIRegions is the list of ticked body pain regions.
	WPIRegions []string `json:"wpi,omitempty"`

	// SSS holds the symptom severity subscales submitted with the entry.
	SSS *SSSBreakdown `json:"sss,omitempty"`

	SleepHours              *float64 `json:"sleep_hours,omitempty"`
	Exercise                *bool    `json:"exercise,omitempty"`
	ExerciseType            *string  `json:"exercise_type,omitempty"`
	ExerciseDurationMinutes *int     `json:"exercise_duration_minutes,omitempty"`
	Workload                *string  `json:"workload,omitempty"`
	WeatherSensitivity      bool     `json:"weather_sensitivity_bool,omitempty"`
	Illness                 bool     `json:"illness,omitempty"`
	RecentInfection         bool     `json:"recent_infection,omitempty"`
	MenstrualPhase          *string  `json:"menstrual_phase,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// SSSBreakdown is the per-entry symptom severity subscale map. Each field is
// nil when the subscale was not answered. Exported keys (fatigue, sleep,
// cognitive, somatic) are consumed by the report exporters.
type SSSBreakdown struct {
	Fatigue   *float64 `json:"fatigue,omitempty"`
	Sleep     *float64 `json:"sleep,omitempty"`
	Cognitive *float64 `json:"cognitive,omitempty"`
	Somatic   *float64 `json:"somatic,omitempty"`
}

// Total sums the answered subscales. Nil subscales are excluded, not
// treated as zero.
func (s *SSSBreakdown) Total() float64 {
	if s == nil {
		return 0
	}
	var total float64
	for _, v := range []*float64{s.Fatigue, s.Sleep, s.Cognitive, s.Somatic} {
		if v != nil {
			total += *v
		}
	}
	return total
}

// Answered reports whether any subscale carries a value.
func (s *SSSBreakdown) Answered() bool {
	if s == nil {
		return false
	}
	return s.Fatigue != nil || s.Sleep != nil || s.Cognitive != nil || s.Somatic != nil
}

// UserProfile holds the demographic fields a user maintains alongside their
// entries. One row per user; updates merge field by field, an absent field
// keeps its stored value.
type UserProfile struct {
	UserID    int64     `json:"user_id"`
	Sex       *string   `json:"sex,omitempty"`
	AgeGroup  *string   `json:"age_group,omitempty"`
	Workload  *string   `json:"workload,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// ScreeningInput is the normalized screening submission consumed by the
// scoring core. All fields are validated and bounded by the normalizer
// before this struct is constructed.
type ScreeningInput struct {
	WPIRegions        []string        `json:"wpi_regions"`        // deduplicated
	SSSAnswers        SSSPartA        `json:"sss_answers"`        // each 0-3
	SSSSomatic        SSSPartB        `json:"sss_somatic"`        // each 0/1
	SecondarySymptoms []string        `json:"secondary_symptoms"` // catalog keys
	RiskFactors       map[string]bool `json:"risk_factors"`       // r1..r6
	FirstAnswers      map[string]bool `json:"first_answers"`      // f1..f6
	Duration4Weeks    bool            `json:"duration_4_weeks"`
	UserSex           *string         `json:"user_sex,omitempty"`
}

// SSSPartA holds the graded severity subscales (0-3 each, sum 0-9).
type SSSPartA struct {
	Fatigue   int `json:"fatigue"`
	Sleep     int `json:"sleep"`
	Cognitive int `json:"cognitive"`
}

// Sum returns the part-A subtotal.
func (a SSSPartA) Sum() int { return a.Fatigue + a.Sleep + a.Cognitive }

// SSSPartB holds the binary somatic symptom flags (0/1 each, sum 0-3).
type SSSPartB struct {
	Headache    int `json:"headache"`
	AbdomenPain int `json:"abdomenPain"`
	Depression  int `json:"depression"`
}

// Sum returns the part-B subtotal.
func (b SSSPartB) Sum() int { return b.Headache + b.AbdomenPain + b.Depression }

// ScreeningRecord is the persisted outcome of one screening submission,
// including every intermediate sub-score for audit. Records are never
// mutated; the latest per user is authoritative for profile display.
type ScreeningRecord struct {
	ID     int64 `json:"id,omitempty"`
	UserID int64 `json:"user_id"`

	WPIScore int `json:"wpi_score"`
	SSSScore int `json:"sss_score"`
	SSSPartA int `json:"sss_part_a"`
	SSSPartB int `json:"sss_part_b"`

	FirstScore     int     `json:"first_score"`
	PrimaryScore   float64 `json:"primary_score"` // 0.0 or 1.0
	SecondaryCount int     `json:"secondary_count"`
	SecondaryNorm  float64 `json:"secondary_score_norm"`
	RiskSum        float64 `json:"risk_sum"`
	RiskFraction   float64 `json:"risk_factor_fraction"`
	CompositeScore float64 `json:"composite_score"`

	RiskCategory    RiskCategory   `json:"risk_level"`
	RiskProbability float64        `json:"risk_probability"`
	IsEligible      bool           `json:"is_eligible"`
	ACRStatus       ACRStatus      `json:"acr_status"`
	PredictorUsed   bool           `json:"predictor_used"`
	FallbackReason  FallbackReason `json:"fallback_reason,omitempty"`

	Duration          string   `json:"duration"` // more_than_3_months / less_than_3_months
	WPIRegions        []string `json:"wpi_regions"`
	SecondarySymptoms []string `json:"secondary_symptoms"`

	Input *ScreeningInput `json:"-"` // carried for detail-row persistence

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ScreeningResult is the caller-facing verdict of one screening submission.
type ScreeningResult struct {
	RiskLevel       RiskCategory `json:"risk_level"`
	RiskProbability float64      `json:"risk_probability"`
	IsEligible      bool         `json:"is_eligible"`
	WPIScore        int          `json:"wpi_score"`
	SSSScore        int          `json:"sss_score"`
}

// WeeklyAverages holds the per-metric arithmetic means for one week.
// Score averages are nil when no entry in the window supplied the field.
// WPI/SSS averages default to zero when unsupplied, matching the persisted
// representation.
type WeeklyAverages struct {
	AvgPain     *float64 `json:"avg_pain"`
	AvgFatigue  *float64 `json:"avg_fatigue"`
	AvgStress   *float64 `json:"avg_stress"`
	AvgMood     *float64 `json:"avg_mood"`
	AvgSleep    *float64 `json:"avg_sleep"`
	AvgWPICount float64  `json:"avg_wpi_count"`
	AvgSSSTotal float64  `json:"avg_sss_total"`
}

// WeeklySummary is one derived 7-day rollup. A fresh row is inserted on
// every computation; rows are never updated or deleted.
type WeeklySummary struct {
	ID         int64          `json:"id,omitempty"`
	UserID     int64          `json:"user_id"`
	WeekStart  string         `json:"week_start"` // Monday, YYYY-MM-DD
	WeekEnd    string         `json:"week_end"`
	WeekNumber int            `json:"week_number"` // ISO week
	Averages   WeeklyAverages `json:"averages"`
	ACRStatus  ACRStatus      `json:"acr_status"`
	CreatedAt  time.Time      `json:"created_at,omitempty"`
}

// TrendDelta is the start-vs-end movement of one weekly metric.
type TrendDelta struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Delta *float64 `json:"delta"`
}

// FinalReport is the multi-week rollup over at least MinReportWeeks weekly
// summaries. One report exists per user; recomputation replaces it.
type FinalReport struct {
	UserID      int64                 `json:"user_id"`
	WeeklyData  []WeeklySummary       `json:"weekly_data"`
	Trend       map[string]TrendDelta `json:"trend"`
	ACROverall  int                   `json:"acr_overall"` // 1 if any week met ACR
	GeneratedAt time.Time             `json:"generated_at,omitempty"`
}

// TrendMetrics lists the weekly average keys tracked in FinalReport.Trend.
var TrendMetrics = []string{"avg_pain", "avg_fatigue", "avg_stress", "avg_mood", "avg_sleep"}
