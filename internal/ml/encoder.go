// Package ml provides the optional model-based risk and severity
// predictors. All predictors are advisory: any failure is reported as a
// typed unavailability error and callers fall back to rule-based results.
package ml

import (
	"fmt"

	"github.com/fibrotrack-server/internal/domain"
)

// LabelEncoder maps between class indices and category labels in the
// trained model's label order. The order is alphabetical, matching how
// the training pipeline fit its encoder over the category column.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// NewLabelEncoder creates an encoder over the given ordered class labels.
func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("label encoder requires at least one class")
	}
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate class label %q", c)
		}
		index[c] = i
	}
	return &LabelEncoder{classes: classes, index: index}, nil
}

// Classes returns the ordered class labels.
func (e *LabelEncoder) Classes() []string { return e.classes }

// Decode returns the category for a class index.
func (e *LabelEncoder) Decode(i int) (domain.RiskCategory, error) {
	if i < 0 || i >= len(e.classes) {
		return "", fmt.Errorf("class index %d out of range [0,%d)", i, len(e.classes))
	}
	return domain.RiskCategory(e.classes[i]), nil
}

// Index returns the position of a label in the class order.
func (e *LabelEncoder) Index(label string) (int, bool) {
	i, ok := e.index[label]
	return i, ok
}
