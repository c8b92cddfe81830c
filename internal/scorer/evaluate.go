package scorer

import (
	"fmt"
	"sort"
	"time"
)

// LabeledRecord is one evaluation sample: a feature vector plus the
// known outcome (true = defaulted).
type LabeledRecord struct {
	Features []float64 `json:"features"`
	Label    bool      `json:"label"`
}

// Metrics are standard binary classification quality measures for one
// model over an evaluation set.
type Metrics struct {
	Model     string  `json:"model"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	// Seconds spent scoring the whole set.
	Time float64 `json:"time"`
}

// Evaluate scores every record with every cached model and returns
// per-model metrics, default model first.
func (c *Cache) Evaluate(records []LabeledRecord) ([]Metrics, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no evaluation records", ErrEmptyFeatures)
	}
	names, err := c.Names()
	if err != nil {
		return nil, err
	}
	sort.Strings(names[1:])

	out := make([]Metrics, 0, len(names))
	for _, name := range names {
		m, err := c.Model(name)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		var tp, tn, fp, fn int
		for _, rec := range records {
			pred, err := m.Score(rec.Features)
			if err != nil {
				return nil, fmt.Errorf("model %s: %w", name, err)
			}
			switch {
			case pred.Default && rec.Label:
				tp++
			case pred.Default && !rec.Label:
				fp++
			case !pred.Default && rec.Label:
				fn++
			default:
				tn++
			}
		}
		out = append(out, Metrics{
			Model:     name,
			Accuracy:  ratio(tp+tn, tp+tn+fp+fn),
			Precision: ratio(tp, tp+fp),
			Recall:    ratio(tp, tp+fn),
			F1:        f1(tp, fp, fn),
			Time:      time.Since(start).Seconds(),
		})
	}
	return out, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func f1(tp, fp, fn int) float64 {
	p := ratio(tp, tp+fp)
	r := ratio(tp, tp+fn)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}
