package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/domain"
)

// PrimaryRuleEngine implements the primary symptom rules of the screening
// model. The three rules are evaluated independently and OR-combined into a
// binary primary score.
type PrimaryRuleEngine struct {
	logger *logrus.Logger
	rules  []*primaryRule
}

// PrimaryInput is the questionnaire slice the primary rules operate on.
type PrimaryInput struct {
	WPIScore       int  // count of ticked pain regions
	SSSScore       int  // part A (0-9) + part B (0-3)
	Duration4Weeks bool // symptoms persisted for at least 4 weeks
}

// PrimaryRuleResult records one rule evaluation for audit.
type PrimaryRuleResult struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Met       bool   `json:"met"`
	Reasoning string `json:"reasoning"`
}

// PrimaryEvaluation is the combined outcome of all primary rules.
type PrimaryEvaluation struct {
	Score   float64             `json:"primary_score"` // 1.0 if any rule met, else 0.0
	Results []PrimaryRuleResult `json:"results"`
}

// primaryRule is an individual named rule with its evaluator.
type primaryRule struct {
	Code      string
	Name      string
	Evaluator func(in PrimaryInput) (bool, string)
}

// NewPrimaryRuleEngine creates a primary rule engine with all rules
// registered.
func NewPrimaryRuleEngine(logger *logrus.Logger) *PrimaryRuleEngine {
	engine := &PrimaryRuleEngine{logger: logger}
	engine.initializeRules()
	return engine
}

// Evaluate runs every primary rule against the input. The primary score is
// binary: 1.0 when any rule is met.
func (e *PrimaryRuleEngine) Evaluate(in PrimaryInput) PrimaryEvaluation {
	eval := PrimaryEvaluation{Results: make([]PrimaryRuleResult, 0, len(e.rules))}

	anyMet := false
	for _, rule := range e.rules {
		met, reasoning := rule.Evaluator(in)
		if met {
			anyMet = true
		}
		eval.Results = append(eval.Results, PrimaryRuleResult{
			Code:      rule.Code,
			Name:      rule.Name,
			Met:       met,
			Reasoning: reasoning,
		})
	}

	if anyMet {
		eval.Score = 1.0
	}

	e.logger.WithFields(logrus.Fields{
		"wpi_score":     in.WPIScore,
		"sss_score":     in.SSSScore,
		"duration_4w":   in.Duration4Weeks,
		"primary_score": eval.Score,
	}).Debug("Evaluated primary symptom rules")

	return eval
}

// initializeRules registers the three primary symptom rules.
func (e *PrimaryRuleEngine) initializeRules() {
	e.rules = []*primaryRule{
		{
			Code:      "R1",
			Name:      "Early symptom severity",
			Evaluator: e.evaluateEarlySeverity,
		},
		{
			Code:      "R2",
			Name:      "Pain distribution spread",
			Evaluator: e.evaluatePainSpread,
		},
		{
			Code:      "R3",
			Name:      "Symptom persistence",
			Evaluator: e.evaluatePersistence,
		},
	}
}

// evaluateEarlySeverity checks the combined WPI/SSS severity bands:
// (WPI 2-3 and SSS 4-5), or (WPI >= 4 and SSS >= 4), or high SSS with some
// pain and persistent duration.
func (e *PrimaryRuleEngine) evaluateEarlySeverity(in PrimaryInput) (bool, string) {
	switch {
	case in.WPIScore >= 2 && in.WPIScore <= 3 && in.SSSScore >= 4 && in.SSSScore <= 5:
		return true, fmt.Sprintf("WPI %d in [2,3] with SSS %d in [4,5]", in.WPIScore, in.SSSScore)
	case in.WPIScore >= 4 && in.SSSScore >= 4:
		return true, fmt.Sprintf("WPI %d >= 4 with SSS %d >= 4", in.WPIScore, in.SSSScore)
	case in.SSSScore >= 6 && in.WPIScore > 0 && in.Duration4Weeks:
		return true, fmt.Sprintf("SSS %d >= 6 with pain present and persistent duration", in.SSSScore)
	}
	return false, "severity bands not reached"
}

// evaluatePainSpread checks for early pain spread across regions.
func (e *PrimaryRuleEngine) evaluatePainSpread(in PrimaryInput) (bool, string) {
	if in.WPIScore >= 2 {
		return true, fmt.Sprintf("%d pain regions reported", in.WPIScore)
	}
	return false, "fewer than 2 pain regions"
}

// evaluatePersistence checks the self-reported 4-week duration flag.
func (e *PrimaryRuleEngine) evaluatePersistence(in PrimaryInput) (bool, string) {
	if in.Duration4Weeks {
		return true, "symptoms persisted for at least 4 weeks"
	}
	return false, "duration under 4 weeks"
}

// EvaluateACR applies the simplified ACR criteria to a WPI region count and
// SSS total: positive when (WPI >= 7 and SSS >= 5) or (3 <= WPI <= 6 and
// SSS >= 9). The weekly rollup calls this with averaged (continuous)
// inputs, matching the persisted historical behavior.
func EvaluateACR(wpiCount, sssTotal float64) domain.ACRStatus {
	if (wpiCount >= 7 && sssTotal >= 5) || (wpiCount >= 3 && wpiCount <= 6 && sssTotal >= 9) {
		return domain.ACRMet
	}
	return domain.ACRNotMet
}
