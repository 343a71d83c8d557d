// Package assessment provides append-only storage for monthly mental
// health assessments (PHQ-9 depression and GAD-7 anxiety scales). Records
// keep the full per-question answer and response-time breakdown so scale
// models can be retrained from history.
package assessment

import (
	"context"
	"time"
)

// ScaleType identifies a supported assessment instrument.
type ScaleType string

const (
	ScalePHQ9 ScaleType = "phq9"
	ScaleGAD7 ScaleType = "gad7"
)

// QuestionCount returns the number of items on the scale.
func (s ScaleType) QuestionCount() int {
	switch s {
	case ScalePHQ9:
		return 9
	case ScaleGAD7:
		return 7
	}
	return 0
}

// MaxScore returns the maximum attainable total (items x 3).
func (s ScaleType) MaxScore() int { return s.QuestionCount() * 3 }

// SeverityPrediction is an optional model-derived severity attached to a
// scale submission.
type SeverityPrediction struct {
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`
}

// ScaleData is the full per-question breakdown of one scale submission.
// Answers are keyed question1..questionN (0-3 each); Times carries the
// per-question response time in milliseconds when the client captured it.
type ScaleData struct {
	Answers      map[string]int      `json:"answers"`
	Times        map[string]float64  `json:"times,omitempty"`
	AIPrediction *SeverityPrediction `json:"ai_prediction,omitempty"`
}

// Assessment is one monthly assessment submission. Either scale may be
// absent; submissions are append-only and never updated.
type Assessment struct {
	ID        int64      `json:"id,omitempty"`
	UserID    int64      `json:"user_id"`
	EntryDate string     `json:"entry_date"` // YYYY-MM-DD
	PHQ9Score *int       `json:"phq9_score,omitempty"`
	GAD7Score *int       `json:"gad7_score,omitempty"`
	PHQ9Data  *ScaleData `json:"phq9_data,omitempty"`
	GAD7Data  *ScaleData `json:"gad7_data,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Store defines the interface for assessment storage operations.
type Store interface {
	// Save appends one assessment record.
	Save(ctx context.Context, a *Assessment) error

	// ListByUser returns all assessments for a user ordered by entry date.
	ListByUser(ctx context.Context, userID int64) ([]*Assessment, error)

	// Latest returns the most recent assessment for a user, or nil when
	// none exists.
	Latest(ctx context.Context, userID int64) (*Assessment, error)

	// Count returns the total number of stored assessments.
	Count(ctx context.Context) (int64, error)

	// Close closes the store and releases resources.
	Close() error
}
