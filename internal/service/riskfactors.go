package service

import (
	"github.com/fibrotrack-server/internal/domain"
)

// Each risk factor contributes a fixed increment; the normalizer reflects
// the maximum attainable sum (7 factors x 0.25).
const (
	riskFactorIncrement = 0.25
	riskSumNormalizer   = 1.75
)

// RiskAssessment is the outcome of the risk factor aggregator.
type RiskAssessment struct {
	Count    int             `json:"count"`                // true factors, including implicit sex factor
	Sum      float64         `json:"risk_sum"`             // 0.25 per factor
	Fraction float64         `json:"risk_factor_fraction"` // sum / 1.75, clamped to [0,1]
	Flags    map[string]bool `json:"flags"`                // r1..r6 presence
}

// AggregateRiskFactors scores the six explicit boolean risk factors plus
// the implicit seventh factor for female sex. The fraction is clamped to
// 1.0 so the composite stays bounded.
func AggregateRiskFactors(factors map[string]bool, userSex *string) RiskAssessment {
	flags := make(map[string]bool, len(domain.RiskFactorKeys))
	count := 0
	for _, key := range domain.RiskFactorKeys {
		present := factors[key]
		flags[key] = present
		if present {
			count++
		}
	}

	if userSex != nil && *userSex == domain.SexFemale {
		count++
	}

	sum := float64(count) * riskFactorIncrement
	fraction := sum / riskSumNormalizer
	if fraction > 1.0 {
		fraction = 1.0
	}

	return RiskAssessment{
		Count:    count,
		Sum:      sum,
		Fraction: fraction,
		Flags:    flags,
	}
}
