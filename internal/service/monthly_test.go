package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fibrotrack-server/internal/assessment"
	"github.com/fibrotrack-server/internal/domain"
)

func newTestStore(t *testing.T) assessment.Store {
	store, err := assessment.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func phq9Payload(answer int) map[string]interface{} {
	data := map[string]interface{}{}
	for i := 1; i <= 9; i++ {
		data[key("question", i)] = float64(answer)
	}
	return data
}

func gad7Payload(answer int) map[string]interface{} {
	data := map[string]interface{}{}
	for i := 1; i <= 7; i++ {
		data[key("question", i)] = float64(answer)
	}
	return data
}

func key(prefix string, i int) string {
	return fmt.Sprintf("%s%d", prefix, i)
}

func TestMonthlyService_Submit(t *testing.T) {
	store := newTestStore(t)
	svc := NewMonthlyService(store, nil, testLogger())

	result, err := svc.Submit(context.Background(), 1, map[string]interface{}{
		"entry_date": "2026-03-01",
		"phq9_data":  phq9Payload(1),
		"gad7_data":  gad7Payload(2),
	})

	require.NoError(t, err)
	require.NotNil(t, result.PHQ9Score)
	assert.Equal(t, 9, *result.PHQ9Score)
	assert.Equal(t, "Mild", *result.PHQ9Severity)
	require.NotNil(t, result.GAD7Score)
	assert.Equal(t, 14, *result.GAD7Score)
	assert.Equal(t, "Moderate anxiety", *result.GAD7Severity)

	history, err := svc.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "2026-03-01", history[0].EntryDate)
	assert.Equal(t, 9, *history[0].PHQ9Score)
}

func TestMonthlyService_SingleScale(t *testing.T) {
	store := newTestStore(t)
	svc := NewMonthlyService(store, nil, testLogger())

	result, err := svc.Submit(context.Background(), 1, map[string]interface{}{
		"entry_date": "2026-03-01",
		"phq9_data":  phq9Payload(0),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, *result.PHQ9Score)
	assert.Equal(t, "Minimal", *result.PHQ9Severity)
	assert.Nil(t, result.GAD7Score)
}

func TestMonthlyService_NoScales(t *testing.T) {
	svc := NewMonthlyService(newTestStore(t), nil, testLogger())

	_, err := svc.Submit(context.Background(), 1, map[string]interface{}{
		"entry_date": "2026-03-01",
	})

	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestMonthlyService_MissingAnswer(t *testing.T) {
	svc := NewMonthlyService(newTestStore(t), nil, testLogger())

	data := phq9Payload(1)
	delete(data, "question5")

	_, err := svc.Submit(context.Background(), 1, map[string]interface{}{
		"entry_date": "2026-03-01",
		"phq9_data":  data,
	})

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Field, "question5")
}

func TestMonthlyService_AnswerOutOfRange(t *testing.T) {
	svc := NewMonthlyService(newTestStore(t), nil, testLogger())

	data := gad7Payload(1)
	data["question3"] = 4.0

	_, err := svc.Submit(context.Background(), 1, map[string]interface{}{
		"entry_date": "2026-03-01",
		"gad7_data":  data,
	})

	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestSeverityBands(t *testing.T) {
	phq9 := []struct {
		score int
		want  string
	}{
		{0, "Minimal"}, {4, "Minimal"}, {5, "Mild"}, {9, "Mild"},
		{10, "Moderate"}, {14, "Moderate"}, {15, "Moderately Severe"},
		{19, "Moderately Severe"}, {20, "Severe"}, {27, "Severe"},
	}
	for _, tt := range phq9 {
		assert.Equal(t, tt.want, severityFor(tt.score, phq9Bands), "phq9 score %d", tt.score)
	}

	gad7 := []struct {
		score int
		want  string
	}{
		{0, "Minimal anxiety"}, {4, "Minimal anxiety"}, {5, "Mild anxiety"},
		{9, "Mild anxiety"}, {10, "Moderate anxiety"}, {14, "Moderate anxiety"},
		{15, "Moderate to severe anxiety"}, {21, "Moderate to severe anxiety"},
	}
	for _, tt := range gad7 {
		assert.Equal(t, tt.want, severityFor(tt.score, gad7Bands), "gad7 score %d", tt.score)
	}
}

// stubSeverityPredictor records the features it was called with.
type stubSeverityPredictor struct {
	prediction *assessment.SeverityPrediction
	features   *ScaleFeatures
	scale      assessment.ScaleType
}

func (p *stubSeverityPredictor) PredictSeverity(ctx context.Context, scale assessment.ScaleType, features ScaleFeatures) (*assessment.SeverityPrediction, error) {
	p.scale = scale
	p.features = &features
	return p.prediction, nil
}

func TestMonthlyService_PredictionAttached(t *testing.T) {
	store := newTestStore(t)
	predictor := &stubSeverityPredictor{
		prediction: &assessment.SeverityPrediction{Severity: "Moderate anxiety", Confidence: 0.82},
	}
	svc := NewMonthlyService(store, predictor, testLogger())

	data := gad7Payload(2)
	times := map[string]interface{}{}
	for i := 1; i <= 7; i++ {
		times[key("time", i)] = float64(1000 + i*100)
	}
	data["times"] = times

	_, err := svc.Submit(context.Background(), 1, map[string]interface{}{
		"entry_date": "2026-03-01",
		"gad7_data":  data,
	})

	require.NoError(t, err)
	require.NotNil(t, predictor.features)
	assert.Equal(t, assessment.ScaleGAD7, predictor.scale)
	assert.Len(t, predictor.features.Answers, 7)
	assert.InDelta(t, 1400.0, predictor.features.AvgResponseTime, 1e-9)
	assert.InDelta(t, 1700.0, predictor.features.MaxResponseTime, 1e-9)

	latest, err := store.Latest(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, latest.GAD7Data.AIPrediction)
	assert.Equal(t, "Moderate anxiety", latest.GAD7Data.AIPrediction.Severity)
}

func TestMonthlyService_NoPredictionWithoutTimes(t *testing.T) {
	store := newTestStore(t)
	predictor := &stubSeverityPredictor{
		prediction: &assessment.SeverityPrediction{Severity: "Mild", Confidence: 0.7},
	}
	svc := NewMonthlyService(store, predictor, testLogger())

	_, err := svc.Submit(context.Background(), 1, map[string]interface{}{
		"entry_date": "2026-03-01",
		"phq9_data":  phq9Payload(1),
	})

	require.NoError(t, err)
	assert.Nil(t, predictor.features, "predictor skipped without response times")
}
