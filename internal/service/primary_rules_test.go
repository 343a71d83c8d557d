package service

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/fibrotrack-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func TestPrimaryRuleEngine_Evaluate(t *testing.T) {
	engine := NewPrimaryRuleEngine(testLogger())

	tests := []struct {
		name      string
		input     PrimaryInput
		wantScore float64
	}{
		{
			name:      "no symptoms",
			input:     PrimaryInput{WPIScore: 0, SSSScore: 0},
			wantScore: 0.0,
		},
		{
			name:      "single region no severity no duration",
			input:     PrimaryInput{WPIScore: 1, SSSScore: 2},
			wantScore: 0.0,
		},
		{
			name:      "low band severity",
			input:     PrimaryInput{WPIScore: 2, SSSScore: 4},
			wantScore: 1.0,
		},
		{
			name:      "high band severity",
			input:     PrimaryInput{WPIScore: 5, SSSScore: 6},
			wantScore: 1.0,
		},
		{
			name:      "high sss with pain and persistence",
			input:     PrimaryInput{WPIScore: 1, SSSScore: 7, Duration4Weeks: true},
			wantScore: 1.0,
		},
		{
			name:      "high sss without pain",
			input:     PrimaryInput{WPIScore: 0, SSSScore: 8, Duration4Weeks: true},
			wantScore: 1.0, // persistence rule alone fires
		},
		{
			name:      "pain spread alone",
			input:     PrimaryInput{WPIScore: 3, SSSScore: 0},
			wantScore: 1.0,
		},
		{
			name:      "persistence alone",
			input:     PrimaryInput{WPIScore: 0, SSSScore: 0, Duration4Weeks: true},
			wantScore: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := engine.Evaluate(tt.input)
			assert.Equal(t, tt.wantScore, eval.Score)
			assert.Len(t, eval.Results, 3)
		})
	}
}

func TestPrimaryRuleEngine_ScoreIsBinary(t *testing.T) {
	engine := NewPrimaryRuleEngine(testLogger())

	// Maxed-out input still yields exactly 1.0 even with all rules met.
	eval := engine.Evaluate(PrimaryInput{WPIScore: 19, SSSScore: 12, Duration4Weeks: true})
	assert.Equal(t, 1.0, eval.Score)
	for _, r := range eval.Results {
		assert.True(t, r.Met, r.Code)
	}
}

func TestEvaluateACR(t *testing.T) {
	tests := []struct {
		wpi, sss float64
		want     domain.ACRStatus
	}{
		{7, 5, domain.ACRMet},
		{7, 4, domain.ACRNotMet},
		{6, 5, domain.ACRNotMet},
		{3, 9, domain.ACRMet},
		{6, 9, domain.ACRMet},
		{2, 9, domain.ACRNotMet},
		{3, 8, domain.ACRNotMet},
		{7, 9, domain.ACRMet},
		{0, 0, domain.ACRNotMet},
		{10, 12, domain.ACRMet},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("wpi=%.0f_sss=%.0f", tt.wpi, tt.sss), func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateACR(tt.wpi, tt.sss))
		})
	}
}

func TestEvaluateACR_Grid(t *testing.T) {
	// Exhaustive grid over the integer questionnaire range.
	for w := 0; w <= 19; w++ {
		for s := 0; s <= 12; s++ {
			expected := domain.ACRNotMet
			if (w >= 7 && s >= 5) || (w >= 3 && w <= 6 && s >= 9) {
				expected = domain.ACRMet
			}
			got := EvaluateACR(float64(w), float64(s))
			assert.Equal(t, expected, got, "wpi=%d sss=%d", w, s)
		}
	}
}

func TestEvaluateACR_ContinuousInputs(t *testing.T) {
	// Averaged weekly inputs are fractional; thresholds apply directly.
	assert.Equal(t, domain.ACRMet, EvaluateACR(7.2, 5.1))
	assert.Equal(t, domain.ACRNotMet, EvaluateACR(6.9, 5.1))
	assert.Equal(t, domain.ACRMet, EvaluateACR(3.5, 9.0))
	assert.Equal(t, domain.ACRNotMet, EvaluateACR(6.4, 8.9))
}
