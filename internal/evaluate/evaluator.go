package evaluate

import (
	"fmt"
	"strings"

	"labelbench/internal/services"
	"labelbench/internal/task"
)

// Mode selects how labels outside the category set are handled.
type Mode string

const (
	// ModeLenient scores unknown labels as incorrect.
	ModeLenient Mode = "lenient"
	// ModeStrict fails with *UnknownLabelError on the first unknown label.
	ModeStrict Mode = "strict"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeLenient, "":
		return ModeLenient, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "evaluate", "parse mode", fmt.Sprintf("unknown mode %q", value), nil)
	}
}

// Record pairs one true label with its prediction.
type Record struct {
	True      string `json:"true"`
	Predicted string `json:"predicted"`
}

// Evaluator scores predictions for one category set.
type Evaluator struct {
	categories task.Categories
	mode       Mode
}

// New returns an evaluator for categories under mode.
func New(categories task.Categories, mode Mode) (*Evaluator, error) {
	if len(categories) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "evaluate", "new", "category set is empty", nil)
	}
	if mode != ModeLenient && mode != ModeStrict {
		return nil, services.Wrap(services.ErrConfiguration, "evaluate", "new", fmt.Sprintf("unknown mode %q", mode), nil)
	}
	return &Evaluator{categories: categories, mode: mode}, nil
}

// Mode returns the unknown-label policy.
func (e *Evaluator) Mode() Mode {
	return e.mode
}

// Evaluate scores predicted against trueLabels position by position.
func (e *Evaluator) Evaluate(trueLabels, predicted []string) (Report, error) {
	if len(trueLabels) != len(predicted) {
		return Report{}, services.Wrap(services.ErrConfiguration, "evaluate", "evaluate",
			fmt.Sprintf("%d true labels but %d predictions", len(trueLabels), len(predicted)), nil)
	}
	records := make([]Record, len(trueLabels))
	for i := range trueLabels {
		records[i] = Record{True: trueLabels[i], Predicted: predicted[i]}
	}
	return e.EvaluateRecords(records)
}

// EvaluateRecords scores a list of records.
func (e *Evaluator) EvaluateRecords(records []Record) (Report, error) {
	n := len(e.categories)
	tp := make([]int, n)
	fp := make([]int, n)
	fn := make([]int, n)
	matrix := make([][]int, n)
	for i := range matrix {
		matrix[i] = make([]int, n+1)
	}

	report := Report{Total: len(records)}
	for pos, record := range records {
		truth := strings.TrimSpace(record.True)
		pred := strings.TrimSpace(record.Predicted)
		ti := e.categories.Index(truth)
		pi := e.categories.Index(pred)
		if e.mode == ModeStrict {
			if ti < 0 {
				return Report{}, &UnknownLabelError{Label: record.True, Position: pos, Field: "true"}
			}
			if pi < 0 {
				return Report{}, &UnknownLabelError{Label: record.Predicted, Position: pos, Field: "predicted"}
			}
		}
		if pi < 0 {
			report.Unknown++
		}
		if ti < 0 {
			report.UnknownTrue++
			if pi >= 0 {
				fp[pi]++
			}
			continue
		}
		if pi < 0 {
			fn[ti]++
			matrix[ti][n]++
			continue
		}
		matrix[ti][pi]++
		if ti == pi {
			tp[ti]++
			report.Correct++
			continue
		}
		fn[ti]++
		fp[pi]++
	}

	report.Accuracy = ratio(report.Correct, report.Total)
	report.Classes = make([]ClassMetrics, n)
	var support int
	for i, label := range e.categories {
		precision := ratio(tp[i], tp[i]+fp[i])
		recall := ratio(tp[i], tp[i]+fn[i])
		class := ClassMetrics{
			Label:          label,
			Precision:      precision,
			Recall:         recall,
			F1:             harmonic(precision, recall),
			Support:        tp[i] + fn[i],
			TruePositives:  tp[i],
			FalsePositives: fp[i],
			FalseNegatives: fn[i],
		}
		report.Classes[i] = class
		support += class.Support

		report.Macro.Precision += class.Precision / float64(n)
		report.Macro.Recall += class.Recall / float64(n)
		report.Macro.F1 += class.F1 / float64(n)

		w := float64(class.Support)
		report.Weighted.Precision += class.Precision * w
		report.Weighted.Recall += class.Recall * w
		report.Weighted.F1 += class.F1 * w
	}
	if support > 0 {
		report.Weighted.Precision /= float64(support)
		report.Weighted.Recall /= float64(support)
		report.Weighted.F1 /= float64(support)
	}
	report.Confusion = Confusion{Labels: append([]string(nil), e.categories...), Matrix: matrix}
	return report, nil
}
