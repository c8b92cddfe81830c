// Package scorer evaluates loan default risk with logistic regression
// models loaded from a JSON model file.
package scorer

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyFeatures rejects a prediction request with no features.
	ErrEmptyFeatures = errors.New("scorer: empty feature vector")
	// ErrUnknownModel is returned for a model name absent from the file.
	ErrUnknownModel = errors.New("scorer: unknown model")
	// ErrPrediction is the opaque failure surfaced to callers; model
	// internals never leak into API responses.
	ErrPrediction = errors.New("scorer: prediction failed")
	// ErrCreditScoreRange rejects feature vectors whose credit score
	// falls outside the valid range.
	ErrCreditScoreRange = errors.New("scorer: credit score out of range")
)

// Position of the normalized credit score in the feature vector, and
// the normalization constants used when it was scaled.
const (
	creditScoreIndex = 11
	creditScoreScale = 50.0
	creditScoreShift = 650.0
	creditScoreMin   = 300.0
	creditScoreMax   = 850.0
)

// Model is a trained logistic regression classifier.
type Model struct {
	Name      string    `json:"name"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	// Threshold above which a probability counts as default risk.
	Threshold float64 `json:"threshold"`
}

// Prediction is the outcome of scoring one feature vector.
type Prediction struct {
	Model       string  `json:"model"`
	Default     bool    `json:"default"`
	Probability float64 `json:"probability"`
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// Score runs the model on one feature vector. The credit score feature
// is validated against its real-world range before scoring.
func (m *Model) Score(features []float64) (Prediction, error) {
	if len(features) == 0 {
		return Prediction{}, ErrEmptyFeatures
	}
	if len(features) != len(m.Weights) {
		return Prediction{}, fmt.Errorf("%w: want %d features, got %d",
			ErrPrediction, len(m.Weights), len(features))
	}
	if len(features) > creditScoreIndex {
		score := features[creditScoreIndex]*creditScoreScale + creditScoreShift
		if score < creditScoreMin || score > creditScoreMax {
			return Prediction{}, fmt.Errorf("%w: %.0f not in [%.0f, %.0f]",
				ErrCreditScoreRange, score, creditScoreMin, creditScoreMax)
		}
	}
	z := m.Intercept
	for i, w := range m.Weights {
		z += w * features[i]
	}
	p := sigmoid(z)
	threshold := m.Threshold
	if threshold == 0 {
		threshold = 0.5
	}
	return Prediction{
		Model:       m.Name,
		Default:     p >= threshold,
		Probability: p,
	}, nil
}
