// Package domain contains core business entities and types for fibromyalgia
// symptom tracking and risk screening.
//
// The screening model follows a simplified form of the ACR 2016 diagnostic
// criteria (Widespread Pain Index + Symptom Severity Score) combined with a
// weighted modular risk score over three questionnaire groups.
package domain

// RiskCategory represents the three-level rule-based risk classification.
type RiskCategory string

const (
	RiskLow      RiskCategory = "Low"
	RiskModerate RiskCategory = "Moderate"
	RiskHigh     RiskCategory = "High"
)

// Valid reports whether the category is one of the three known levels.
func (c RiskCategory) Valid() bool {
	switch c {
	case RiskLow, RiskModerate, RiskHigh:
		return true
	}
	return false
}

// ACRStatus is the binary outcome of the ACR criteria check.
// Kept as an int (0/1) to match the persisted representation.
type ACRStatus int

const (
	ACRNotMet ACRStatus = 0
	ACRMet    ACRStatus = 1
)

// Sex values accepted on user profiles. The female sex contributes an
// implicit seventh risk factor in the risk aggregator.
const (
	SexMale   = "Male"
	SexFemale = "Female"
	SexOther  = "Other"
)

// ValidSexes is the closed set of profile sex values.
var ValidSexes = map[string]bool{SexMale: true, SexFemale: true, SexOther: true}

// ValidAgeGroups is the closed set of profile age groups.
var ValidAgeGroups = map[string]bool{
	"18-25": true, "26-35": true, "36-45": true,
	"46-55": true, "56-65": true, "65+": true,
}

// ValidWorkloads is the closed set of daily workload categories.
var ValidWorkloads = map[string]bool{
	"Light": true, "Moderate": true, "Heavy": true, "None": true,
}

// SecondarySymptomCatalog is the fixed 10-item catalog of secondary symptom
// flags. Submitted flags outside this catalog are ignored, not errors.
var SecondarySymptomCatalog = []string{
	"secondary_headache",
	"secondary_paresthesia",
	"secondary_allodynia",
	"secondary_ibs",
	"secondary_depression",
	"secondary_sweating",
	"secondary_sensitivity",
	"secondary_menstrual",
	"secondary_stiffness",
	"secondary_jaw",
}

// RiskFactorKeys enumerates the six explicit boolean risk factors (r1..r6)
// in their persisted column order.
var RiskFactorKeys = []string{"r1", "r2", "r3", "r4", "r5", "r6"}

// RiskFactorNames maps factor keys to their clinical meaning.
var RiskFactorNames = map[string]string{
	"r1": "family history",
	"r2": "comorbid conditions",
	"r3": "trauma history",
	"r4": "ptsd",
	"r5": "anxiety/depression",
	"r6": "physical inactivity",
}

// FallbackReason identifies why the ML override predictor was bypassed and
// the rule-based classification was used instead.
type FallbackReason string

const (
	FallbackNone          FallbackReason = ""
	FallbackModelAbsent   FallbackReason = "model_absent"
	FallbackBreakerOpen   FallbackReason = "breaker_open"
	FallbackTimeout       FallbackReason = "timeout"
	FallbackBadResponse   FallbackReason = "bad_response"
	FallbackShapeMismatch FallbackReason = "shape_mismatch"
)
