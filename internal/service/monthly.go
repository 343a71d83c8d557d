package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/assessment"
	"github.com/fibrotrack-server/internal/domain"
)

// phq9Bands and gad7Bands map scale totals onto their standard severity
// labels. The upper bound of each band is inclusive.
var phq9Bands = []severityBand{
	{4, "Minimal"},
	{9, "Mild"},
	{14, "Moderate"},
	{19, "Moderately Severe"},
	{27, "Severe"},
}

var gad7Bands = []severityBand{
	{4, "Minimal anxiety"},
	{9, "Mild anxiety"},
	{14, "Moderate anxiety"},
	{21, "Moderate to severe anxiety"},
}

type severityBand struct {
	upper int
	label string
}

// ScaleFeatures is the feature set for a severity model: answers in
// question order plus the response-time aggregates engineered from the
// per-question timings.
type ScaleFeatures struct {
	Answers         []int   `json:"answers"`
	AvgResponseTime float64 `json:"avg_response_time"`
	MaxResponseTime float64 `json:"max_response_time"`
}

// SeverityPredictor attempts a model-based severity estimate for a scale
// submission. Errors are advisory; submissions succeed without one.
type SeverityPredictor interface {
	PredictSeverity(ctx context.Context, scale assessment.ScaleType, features ScaleFeatures) (*assessment.SeverityPrediction, error)
}

// MonthlyAssessmentResult is the caller-facing outcome of one submission.
type MonthlyAssessmentResult struct {
	PHQ9Score    *int    `json:"phq9_score,omitempty"`
	PHQ9Severity *string `json:"phq9_severity,omitempty"`
	GAD7Score    *int    `json:"gad7_score,omitempty"`
	GAD7Severity *string `json:"gad7_severity,omitempty"`
}

// MonthlyService records PHQ-9 and GAD-7 assessments. Submissions are
// append-only; when a severity predictor is configured its estimate is
// attached to the stored breakdown but never blocks the save.
type MonthlyService struct {
	store     assessment.Store
	predictor SeverityPredictor
	logger    *logrus.Logger
}

// NewMonthlyService creates a monthly assessment service. predictor may be
// nil.
func NewMonthlyService(store assessment.Store, predictor SeverityPredictor, logger *logrus.Logger) *MonthlyService {
	return &MonthlyService{store: store, predictor: predictor, logger: logger}
}

// Submit validates, scores and stores one monthly assessment. Either scale
// may be omitted but at least one must be present.
func (s *MonthlyService) Submit(ctx context.Context, userID int64, payload map[string]interface{}) (*MonthlyAssessmentResult, error) {
	entryDate, _ := payload["entry_date"].(string)
	if entryDate == "" {
		return nil, domain.NewValidationError("entry_date", "missing field", payload["entry_date"])
	}
	if _, err := time.Parse(entryDateLayout, entryDate); err != nil {
		return nil, domain.NewValidationError("entry_date", "must be formatted YYYY-MM-DD", entryDate)
	}

	record := &assessment.Assessment{
		UserID:    userID,
		EntryDate: entryDate,
	}
	result := &MonthlyAssessmentResult{}

	phq9Data, phq9Score, err := s.processScale(ctx, assessment.ScalePHQ9, payload["phq9_data"], phq9Bands)
	if err != nil {
		return nil, err
	}
	if phq9Data != nil {
		record.PHQ9Data = phq9Data
		record.PHQ9Score = &phq9Score
		result.PHQ9Score = &phq9Score
		sev := severityFor(phq9Score, phq9Bands)
		result.PHQ9Severity = &sev
	}

	gad7Data, gad7Score, err := s.processScale(ctx, assessment.ScaleGAD7, payload["gad7_data"], gad7Bands)
	if err != nil {
		return nil, err
	}
	if gad7Data != nil {
		record.GAD7Data = gad7Data
		record.GAD7Score = &gad7Score
		result.GAD7Score = &gad7Score
		sev := severityFor(gad7Score, gad7Bands)
		result.GAD7Severity = &sev
	}

	if record.PHQ9Data == nil && record.GAD7Data == nil {
		return nil, domain.NewValidationError("phq9_data", "at least one scale must be submitted", nil)
	}

	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("saving monthly assessment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"entry_date": entryDate,
		"phq9":       record.PHQ9Score != nil,
		"gad7":       record.GAD7Score != nil,
	}).Info("Monthly assessment recorded")

	return result, nil
}

// History returns the stored assessments for a user.
func (s *MonthlyService) History(ctx context.Context, userID int64) ([]*assessment.Assessment, error) {
	return s.store.ListByUser(ctx, userID)
}

// processScale validates one scale payload, totals it and attaches an
// optional model prediction. A nil or absent payload returns nil data
// without error.
func (s *MonthlyService) processScale(ctx context.Context, scale assessment.ScaleType, raw interface{}, bands []severityBand) (*assessment.ScaleData, int, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok || len(obj) == 0 {
		return nil, 0, nil
	}

	data := &assessment.ScaleData{
		Answers: make(map[string]int, scale.QuestionCount()),
		Times:   make(map[string]float64),
	}

	total := 0
	for i := 1; i <= scale.QuestionCount(); i++ {
		key := fmt.Sprintf("question%d", i)
		val, present := obj[key]
		if !present || val == nil {
			return nil, 0, domain.NewValidationError(string(scale)+"."+key, "missing answer", nil)
		}
		f, numOK := toFloat(val)
		answer := int(f)
		if !numOK || f < 0 || f > 3 {
			return nil, 0, domain.NewValidationError(string(scale)+"."+key, "must be an integer between 0 and 3", val)
		}
		data.Answers[key] = answer
		total += answer
	}

	if times, ok := obj["times"].(map[string]interface{}); ok {
		for k, v := range times {
			if f, ok := toFloat(v); ok && f >= 0 {
				data.Times[k] = f
			}
		}
	}

	s.attachPrediction(ctx, scale, data)
	return data, total, nil
}

// attachPrediction runs the severity model when every answer has a
// captured response time. Failure only logs.
func (s *MonthlyService) attachPrediction(ctx context.Context, scale assessment.ScaleType, data *assessment.ScaleData) {
	if s.predictor == nil || len(data.Times) < scale.QuestionCount() {
		return
	}

	features := ScaleFeatures{Answers: make([]int, 0, scale.QuestionCount())}
	var sum, max float64
	n := 0
	for i := 1; i <= scale.QuestionCount(); i++ {
		key := fmt.Sprintf("question%d", i)
		features.Answers = append(features.Answers, data.Answers[key])
		if t, ok := data.Times[fmt.Sprintf("time%d", i)]; ok {
			sum += t
			if t > max {
				max = t
			}
			n++
		}
	}
	if n == 0 {
		return
	}
	features.AvgResponseTime = sum / float64(n)
	features.MaxResponseTime = max

	prediction, err := s.predictor.PredictSeverity(ctx, scale, features)
	if err != nil {
		s.logger.WithError(err).WithField("scale", scale).Warn("Severity prediction failed")
		return
	}
	if prediction != nil {
		data.AIPrediction = prediction
	}
}

// severityFor maps a scale total onto its band label.
func severityFor(score int, bands []severityBand) string {
	for _, b := range bands {
		if score <= b.upper {
			return b.label
		}
	}
	return bands[len(bands)-1].label
}
