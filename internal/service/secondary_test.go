package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fibrotrack-server/internal/domain"
)

func TestCountSecondarySymptoms(t *testing.T) {
	tests := []struct {
		name      string
		symptoms  []string
		wantCount int
		wantNorm  float64
	}{
		{
			name:      "empty",
			symptoms:  nil,
			wantCount: 0,
			wantNorm:  0.0,
		},
		{
			name:      "three known symptoms",
			symptoms:  []string{"secondary_headache", "secondary_ibs", "secondary_depression"},
			wantCount: 3,
			wantNorm:  0.3,
		},
		{
			name:      "duplicates count once",
			symptoms:  []string{"secondary_headache", "secondary_headache", "secondary_headache"},
			wantCount: 1,
			wantNorm:  0.1,
		},
		{
			name:      "unknown names ignored",
			symptoms:  []string{"secondary_headache", "tertiary_unknown", "random"},
			wantCount: 1,
			wantNorm:  0.1,
		},
		{
			name:      "full catalog",
			symptoms:  domain.SecondarySymptomCatalog,
			wantCount: 10,
			wantNorm:  1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CountSecondarySymptoms(tt.symptoms)
			assert.Equal(t, tt.wantCount, result.Count)
			assert.InDelta(t, tt.wantNorm, result.Norm, 1e-9)
		})
	}
}

func TestCountSecondarySymptoms_FlagsCoverCatalog(t *testing.T) {
	result := CountSecondarySymptoms([]string{"secondary_jaw"})

	assert.Len(t, result.Flags, len(domain.SecondarySymptomCatalog))
	assert.True(t, result.Flags["secondary_jaw"])
	assert.False(t, result.Flags["secondary_headache"])
}
