package service

import (
	"github.com/fibrotrack-server/internal/domain"
)

// SecondaryAssessment is the outcome of the secondary symptom counter.
type SecondaryAssessment struct {
	Count int             `json:"count"`                // ticked catalog symptoms
	Norm  float64         `json:"secondary_score_norm"` // count / catalog size, in [0,1]
	Flags map[string]bool `json:"flags"`                // per-catalog-key presence
}

// CountSecondarySymptoms counts the submitted flags against the fixed
// 10-item catalog and normalizes to [0,1]. Set semantics: duplicates count
// once and unrecognized names are ignored without error.
func CountSecondarySymptoms(symptoms []string) SecondaryAssessment {
	seen := make(map[string]bool, len(symptoms))
	for _, s := range symptoms {
		seen[s] = true
	}

	flags := make(map[string]bool, len(domain.SecondarySymptomCatalog))
	count := 0
	for _, key := range domain.SecondarySymptomCatalog {
		if seen[key] {
			flags[key] = true
			count++
		} else {
			flags[key] = false
		}
	}

	return SecondaryAssessment{
		Count: count,
		Norm:  float64(count) / float64(len(domain.SecondarySymptomCatalog)),
		Flags: flags,
	}
}
