package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fibrotrack-server/internal/domain"
)

// Normalizer converts raw key-value submissions into typed, bounded
// records. Validation is pure: no storage is touched and the first
// violation aborts with a field-level error.
type Normalizer struct{}

// NewNormalizer creates a questionnaire normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// dailyScoreFields are the optional 0-10 daily score fields checked
// independently when present.
var dailyScoreFields = []string{
	"pain_score",
	"fatigue_score",
	"stress_score",
	"mood_score",
	"sleep_quality",
	"cognitive_difficulty",
	"sensory_sensitivity_score",
}

const entryDateLayout = "2006-01-02"

// NormalizeDailyEntry validates a raw daily entry submission. The entry
// date is mandatory; every score field is optional but bounded when
// present. Absent fields stay nil and are never defaulted to zero.
func (n *Normalizer) NormalizeDailyEntry(userID int64, payload map[string]interface{}) (*domain.DailyEntry, error) {
	rawDate, ok := payload["entry_date"]
	if !ok || rawDate == nil {
		return nil, domain.NewValidationError("entry_date", "missing field", nil)
	}
	entryDate, ok := rawDate.(string)
	if !ok {
		return nil, domain.NewValidationError("entry_date", "must be a string date", rawDate)
	}
	if _, err := time.Parse(entryDateLayout, entryDate); err != nil {
		return nil, domain.NewValidationError("entry_date", "must be formatted YYYY-MM-DD", entryDate)
	}

	entry := &domain.DailyEntry{
		UserID:    userID,
		EntryDate: entryDate,
	}

	scores := make(map[string]*int, len(dailyScoreFields))
	for _, field := range dailyScoreFields {
		val, err := boundedIntField(payload, field, 0, 10)
		if err != nil {
			return nil, err
		}
		scores[field] = val
	}
	entry.PainScore = scores["pain_score"]
	entry.FatigueScore = scores["fatigue_score"]
	entry.StressScore = scores["stress_score"]
	entry.MoodScore = scores["mood_score"]
	entry.SleepQuality = scores["sleep_quality"]
	entry.CognitiveDifficulty = scores["cognitive_difficulty"]
	entry.SensoryScore = scores["sensory_sensitivity_score"]

	// Legacy weather impact scale uses a wider bound.
	weather, err := boundedIntField(payload, "weather_score", 0, 19)
	if err != nil {
		return nil, err
	}
	entry.WeatherScore = weather

	entry.WPIRegions = dedupStrings(stringList(payload["wpi"]))
	entry.SSS = sssBreakdown(payload["sss"])

	if v, present := payload["sleep_hours"]; present && v != nil {
		f, ok := toFloat(v)
		if !ok || f < 0 {
			return nil, domain.NewValidationError("sleep_hours", "must be a non-negative number", v)
		}
		entry.SleepHours = &f
	}

	if v, present := payload["exercise"]; present && v != nil {
		b := toBool(v)
		entry.Exercise = &b
	}
	entry.ExerciseType = optString(payload["exercise_type"])
	if v, err := boundedIntField(payload, "exercise_duration_minutes", 0, 24*60); err != nil {
		return nil, err
	} else {
		entry.ExerciseDurationMinutes = v
	}

	if w := optString(payload["workload"]); w != nil {
		if !domain.ValidWorkloads[*w] {
			return nil, domain.NewValidationError("workload", "unknown workload category", *w)
		}
		entry.Workload = w
	}

	entry.WeatherSensitivity = toBool(payload["weather_sensitivity_bool"])
	entry.Illness = toBool(payload["illness"])
	entry.RecentInfection = toBool(payload["recent_infection"])
	entry.MenstrualPhase = optString(payload["menstrual_phase"])

	return entry, nil
}

// NormalizeScreening validates a raw screening submission into a typed
// ScreeningInput.
func (n *Normalizer) NormalizeScreening(payload map[string]interface{}) (*domain.ScreeningInput, error) {
	input := &domain.ScreeningInput{
		WPIRegions:        dedupStrings(stringList(payload["wpi_regions"])),
		SecondarySymptoms: stringList(payload["secondary_symptoms"]),
		RiskFactors:       boolMap(payload["risk_factors"]),
		FirstAnswers:      boolMap(payload["first_answers"]),
		Duration4Weeks:    toBool(payload["duration_4_weeks"]),
	}

	answers, ok := payload["sss_answers"].(map[string]interface{})
	if payload["sss_answers"] != nil && !ok {
		return nil, domain.NewValidationError("sss_answers", "must be an object", payload["sss_answers"])
	}
	for _, sub := range []struct {
		key  string
		dest *int
	}{
		{"fatigue", &input.SSSAnswers.Fatigue},
		{"sleep", &input.SSSAnswers.Sleep},
		{"cognitive", &input.SSSAnswers.Cognitive},
	} {
		v, err := boundedIntField(answers, sub.key, 0, 3)
		if err != nil {
			return nil, domain.NewValidationError("sss_answers."+sub.key, "must be an integer between 0 and 3", answers[sub.key])
		}
		if v != nil {
			*sub.dest = *v
		}
	}

	somatic, ok := payload["sss_somatic"].(map[string]interface{})
	if payload["sss_somatic"] != nil && !ok {
		return nil, domain.NewValidationError("sss_somatic", "must be an object", payload["sss_somatic"])
	}
	for _, sub := range []struct {
		key  string
		dest *int
	}{
		{"headache", &input.SSSSomatic.Headache},
		{"abdomenPain", &input.SSSSomatic.AbdomenPain},
		{"depression", &input.SSSSomatic.Depression},
	} {
		v, err := boundedIntField(somatic, sub.key, 0, 1)
		if err != nil {
			return nil, domain.NewValidationError("sss_somatic."+sub.key, "must be 0 or 1", somatic[sub.key])
		}
		if v != nil {
			*sub.dest = *v
		}
	}

	if sex := optString(payload["user_sex"]); sex != nil {
		if !domain.ValidSexes[*sex] {
			return nil, domain.NewValidationError("user_sex", "unknown sex value", *sex)
		}
		input.UserSex = sex
	}

	return input, nil
}

// ValidateProfile checks profile enum fields, accepting nil for optional
// ones.
func (n *Normalizer) ValidateProfile(sex, ageGroup, workload *string) error {
	if sex != nil && !domain.ValidSexes[*sex] {
		return domain.NewValidationError("sex", "unknown sex value", *sex)
	}
	if ageGroup != nil && !domain.ValidAgeGroups[*ageGroup] {
		return domain.NewValidationError("age_group", "unknown age group", *ageGroup)
	}
	if workload != nil && !domain.ValidWorkloads[*workload] {
		return domain.NewValidationError("workload", "unknown workload category", *workload)
	}
	return nil
}

// boundedIntField extracts an optional numeric field and enforces a closed
// bound. Absent or null fields return nil without error.
func boundedIntField(payload map[string]interface{}, field string, min, max int) (*int, error) {
	if payload == nil {
		return nil, nil
	}
	raw, present := payload[field]
	if !present || raw == nil {
		return nil, nil
	}
	f, ok := toFloat(raw)
	if !ok {
		return nil, domain.NewValidationError(field, "must be numeric", raw)
	}
	v := int(f)
	if f < float64(min) || f > float64(max) {
		return nil, domain.NewValidationError(field, fmt.Sprintf("must be between %d and %d", min, max), raw)
	}
	return &v, nil
}

// toFloat coerces JSON numbers, integers and numeric strings.
func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

// toBool coerces common truthy representations; absent values are false.
func toBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		return t == "true" || t == "1" || t == "yes"
	}
	return false
}

// optString returns a pointer to a non-empty string value.
func optString(v interface{}) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// stringList coerces a JSON array into its string members.
func stringList(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// dedupStrings removes duplicates preserving first-seen order.
func dedupStrings(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// boolMap coerces a JSON object into boolean flags.
func boolMap(v interface{}) map[string]bool {
	raw, ok := v.(map[string]interface{})
	if !ok {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(raw))
	for k, val := range raw {
		out[k] = toBool(val)
	}
	return out
}

// sssBreakdown extracts the daily SSS subscale object when supplied.
func sssBreakdown(v interface{}) *domain.SSSBreakdown {
	raw, ok := v.(map[string]interface{})
	if !ok || len(raw) == 0 {
		return nil
	}
	b := &domain.SSSBreakdown{}
	assign := func(key string, dest **float64) {
		if val, present := raw[key]; present && val != nil {
			if f, ok := toFloat(val); ok {
				*dest = &f
			}
		}
	}
	assign("fatigue", &b.Fatigue)
	assign("sleep", &b.Sleep)
	assign("cognitive", &b.Cognitive)
	assign("somatic", &b.Somatic)
	if !b.Answered() {
		return nil
	}
	return b
}
