package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"labelbench/internal/evaluate"
	"labelbench/internal/services"
)

// Prediction is one classified item as stored on disk.
type Prediction struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	TrueLabel string `json:"true_label,omitempty"`
	Label     string `json:"label"`
	Raw       string `json:"raw"`
	Valid     bool   `json:"valid"`
	RunID     string `json:"run_id,omitempty"`
}

// ErrLocked reports that another writer holds the predictions file.
var ErrLocked = errors.New("predictions file is locked by another process")

// WritePredictions replaces path with preds encoded as JSON lines. The file
// is written to a temporary sibling and renamed into place while the lock is
// held.
func WritePredictions(path string, preds []Prediction) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create predictions directory: %w", err)
		}
	}
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire predictions lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrLocked)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create predictions file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if err := EncodePredictions(tmp, preds); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close predictions file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install predictions file: %w", err)
	}
	return nil
}

// EncodePredictions writes preds to w as JSON lines.
func EncodePredictions(w io.Writer, preds []Prediction) error {
	buffered := bufio.NewWriter(w)
	encoder := json.NewEncoder(buffered)
	encoder.SetEscapeHTML(false)
	for _, pred := range preds {
		if err := encoder.Encode(pred); err != nil {
			return fmt.Errorf("encode prediction %d: %w", pred.Index, err)
		}
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("write predictions: %w", err)
	}
	return nil
}

// ReadPredictions loads a JSON lines predictions file.
func ReadPredictions(path string) ([]Prediction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "dataset", "open predictions", path, err)
	}
	defer file.Close()
	return DecodePredictions(file)
}

// DecodePredictions reads JSON lines predictions from r. Blank lines are
// skipped.
func DecodePredictions(r io.Reader) ([]Prediction, error) {
	decoder := json.NewDecoder(r)
	var preds []Prediction
	for {
		var pred Prediction
		err := decoder.Decode(&pred)
		if errors.Is(err, io.EOF) {
			return preds, nil
		}
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "dataset", "decode predictions",
				fmt.Sprintf("record %d", len(preds)+1), err)
		}
		preds = append(preds, pred)
	}
}

// Records pairs each prediction's true label with its label. Predictions
// without a true label are rejected.
func Records(preds []Prediction) ([]evaluate.Record, error) {
	records := make([]evaluate.Record, len(preds))
	for i, pred := range preds {
		if pred.TrueLabel == "" {
			return nil, services.Wrap(services.ErrValidation, "dataset", "records",
				fmt.Sprintf("prediction %d has no true label", pred.Index), nil)
		}
		records[i] = evaluate.Record{True: pred.TrueLabel, Predicted: pred.Label}
	}
	return records, nil
}
