package evaluate

// ClassMetrics holds the scores for one category.
type ClassMetrics struct {
	Label          string  `json:"label"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
	Support        int     `json:"support"`
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
}

// Average is an aggregate of per-category metrics.
type Average struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Confusion counts (true, predicted) pairs. Rows follow Labels; columns
// follow Labels plus a final column for predictions outside the set.
// Records whose true label is unknown have no row.
type Confusion struct {
	Labels []string `json:"labels"`
	Matrix [][]int  `json:"matrix"`
}

// Report is the metrics summary produced by an Evaluator.
type Report struct {
	Total    int            `json:"total"`
	Correct  int            `json:"correct"`
	Accuracy float64        `json:"accuracy"`
	Classes  []ClassMetrics `json:"classes"`
	Macro    Average        `json:"macro"`
	Weighted Average        `json:"weighted"`
	// Unknown counts predictions outside the category set.
	Unknown int `json:"unknown"`
	// UnknownTrue counts true labels outside the category set.
	UnknownTrue int       `json:"unknown_true"`
	Confusion   Confusion `json:"confusion"`
}

// Class returns the metrics for label.
func (r Report) Class(label string) (ClassMetrics, bool) {
	for _, class := range r.Classes {
		if class.Label == label {
			return class, true
		}
	}
	return ClassMetrics{}, false
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func harmonic(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
