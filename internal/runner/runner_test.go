package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"labelbench/internal/classify"
	"labelbench/internal/dataset"
	"labelbench/internal/evaluate"
	"labelbench/internal/prompt"
	"labelbench/internal/services"
	"labelbench/internal/services/llm"
	"labelbench/internal/task"
)

func sentimentTask(t *testing.T) task.Task {
	t.Helper()
	tk, err := task.New("sentiment", "Label the sentiment as Positive or Negative.", []string{"Positive", "Negative"})
	if err != nil {
		t.Fatalf("task.New: %v", err)
	}
	return tk
}

// keywordLabel answers Positive for texts containing "good".
func keywordLabel(text string) string {
	if strings.Contains(text, "good") {
		return "Positive"
	}
	return "Negative"
}

func newClient(t *testing.T, backend llm.Backend) *classify.Client {
	t.Helper()
	client, err := classify.New(backend, sentimentTask(t), llm.DefaultParams())
	if err != nil {
		t.Fatalf("classify.New: %v", err)
	}
	return client
}

func makeItems(texts ...string) []dataset.Item {
	items := make([]dataset.Item, len(texts))
	for i, text := range texts {
		items[i] = dataset.Item{Index: i, Text: text, Label: keywordLabel(text)}
	}
	return items
}

func TestRunSingleModePreservesOrder(t *testing.T) {
	var inflight, peak atomic.Int32
	backend := llm.BackendFunc(func(ctx context.Context, conv prompt.Conversation, _ llm.Params) (string, error) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		text := conv.LiveInput()
		// Earlier items take longer so completion order differs from input order.
		time.Sleep(time.Duration(10-len(text)%10) * time.Millisecond)
		return keywordLabel(text), nil
	})
	items := makeItems("good day", "bad day", "so good", "awful", "good good", "meh", "very bad", "good")

	r, err := New(newClient(t, backend), Options{Workers: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := r.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.RunID == "" {
		t.Fatal("expected generated run id")
	}
	if len(out.Results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(out.Results))
	}
	for i, result := range out.Results {
		if result.Index != i || result.Input != items[i].Text || result.Label != items[i].Label {
			t.Fatalf("result %d paired wrongly: %+v", i, result)
		}
	}
	if peak.Load() > 3 {
		t.Fatalf("worker bound exceeded: %d concurrent calls", peak.Load())
	}
}

func TestRunBatchModeChunks(t *testing.T) {
	var mu sync.Mutex
	var sizes []int
	backend := llm.BackendFunc(func(_ context.Context, conv prompt.Conversation, _ llm.Params) (string, error) {
		lines := strings.Split(conv.LiveInput(), "\n")
		mu.Lock()
		sizes = append(sizes, len(lines))
		mu.Unlock()
		answers := make([]string, len(lines))
		for i, line := range lines {
			answers[i] = keywordLabel(line)
		}
		return strings.Join(answers, "\n") + "\n", nil
	})
	items := makeItems("good", "bad", "good one", "worse", "good again")

	r, err := New(newClient(t, backend), Options{Workers: 2, Batch: true, BatchSize: 2, RunID: "fixed"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := r.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.RunID != "fixed" {
		t.Fatalf("expected caller run id, got %q", out.RunID)
	}
	if len(sizes) != 3 {
		t.Fatalf("expected 3 batch requests, got %v", sizes)
	}
	for i, result := range out.Results {
		if result.Index != i || result.Label != items[i].Label {
			t.Fatalf("result %d = %+v, want %q", i, result, items[i].Label)
		}
	}

	preds := Predictions(items, out)
	if preds[4].TrueLabel != "Positive" || preds[4].RunID != "fixed" || preds[4].Text != "good again" {
		t.Fatalf("unexpected prediction %+v", preds[4])
	}
}

func TestRunFailsFastWithoutPartialResults(t *testing.T) {
	var calls atomic.Int32
	backend := llm.BackendFunc(func(ctx context.Context, conv prompt.Conversation, _ llm.Params) (string, error) {
		calls.Add(1)
		if conv.LiveInput() == "boom" {
			return "", &llm.StatusError{StatusCode: 500, Body: "down"}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
		return "Positive", nil
	})
	texts := []string{"boom"}
	for i := 0; i < 50; i++ {
		texts = append(texts, "good")
	}

	r, err := New(newClient(t, backend), Options{Workers: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := r.Run(context.Background(), makeItems(texts...))
	if !errors.Is(err, services.ErrBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if !strings.Contains(err.Error(), "item 0") {
		t.Fatalf("expected failing item in error, got %v", err)
	}
	if out.Results != nil {
		t.Fatalf("expected no results, got %d", len(out.Results))
	}
	if calls.Load() >= int32(len(texts)) {
		t.Fatalf("expected remaining work to be cancelled, got %d calls", calls.Load())
	}
}

func TestRunBatchCountMismatchAborts(t *testing.T) {
	backend := llm.NewScripted("Positive\nNegative", "Positive")
	r, err := New(newClient(t, backend), Options{Workers: 1, Batch: true, BatchSize: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = r.Run(context.Background(), makeItems("good", "bad", "good", "bad"))
	if !errors.Is(err, services.ErrCountMismatch) {
		t.Fatalf("expected ErrCountMismatch, got %v", err)
	}
}

func TestRunCountsInvalidAnswers(t *testing.T) {
	backend := llm.NewScripted("Positive", "dunno")
	r, err := New(newClient(t, backend), Options{Workers: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := r.Run(context.Background(), makeItems("good", "bad"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Invalid != 1 || out.Results[1].Valid {
		t.Fatalf("expected one invalid answer, got %+v", out)
	}
}

func TestRunHonoursCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := New(newClient(t, llm.NewScripted("Positive")), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := r.Run(ctx, makeItems("good")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// positionBiasedBackend mislabels whatever text sits first in a multi-item
// batch, mimicking models whose batched answers depend on input order.
func positionBiasedBackend() llm.Backend {
	return llm.BackendFunc(func(_ context.Context, conv prompt.Conversation, _ llm.Params) (string, error) {
		lines := strings.Split(conv.LiveInput(), "\n")
		answers := make([]string, len(lines))
		for i, line := range lines {
			answers[i] = keywordLabel(line)
			if i == 0 && len(lines) > 1 {
				answers[i] = "Negative"
			}
		}
		return strings.Join(answers, "\n"), nil
	})
}

func TestBatchOrderSensitivityStillScoresCorrectly(t *testing.T) {
	tk := sentimentTask(t)
	evaluator, err := evaluate.New(tk.Categories, evaluate.ModeStrict)
	if err != nil {
		t.Fatalf("evaluate.New: %v", err)
	}
	forward := makeItems("good film", "bad film", "good plot", "bad plot")
	reversed := makeItems("bad plot", "good plot", "bad film", "good film")

	labelsByText := func(items []dataset.Item) (map[string]string, evaluate.Report) {
		r, err := New(newClient(t, positionBiasedBackend()), Options{Batch: true, BatchSize: 4})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		out, err := r.Run(context.Background(), items)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		got := make(map[string]string, len(items))
		predicted := make([]string, len(items))
		for i, result := range out.Results {
			got[result.Input] = result.Label
			predicted[i] = result.Label
		}
		report, err := evaluator.Evaluate(dataset.Labels(items), predicted)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		return got, report
	}

	first, firstReport := labelsByText(forward)
	second, secondReport := labelsByText(reversed)
	if first["good film"] == second["good film"] {
		t.Fatalf("expected the biased backend to change the label of %q across orderings", "good film")
	}
	// The evaluator must still score each ordering exactly.
	if firstReport.Correct != 3 || secondReport.Correct != 4 {
		t.Fatalf("unexpected correct counts: %d and %d", firstReport.Correct, secondReport.Correct)
	}
	pos, _ := firstReport.Class("Positive")
	if pos.FalseNegatives != 1 || pos.TruePositives != 1 {
		t.Fatalf("unexpected Positive counts in forward order: %+v", pos)
	}

	// Mismatch detection is independent of ordering.
	dropping := llm.BackendFunc(func(_ context.Context, conv prompt.Conversation, _ llm.Params) (string, error) {
		lines := strings.Split(conv.LiveInput(), "\n")
		return strings.Repeat("Positive\n", len(lines)-1), nil
	})
	for _, items := range [][]dataset.Item{forward, reversed} {
		r, _ := New(newClient(t, dropping), Options{Batch: true, BatchSize: 4})
		if _, err := r.Run(context.Background(), items); !errors.Is(err, services.ErrCountMismatch) {
			t.Fatalf("expected ErrCountMismatch, got %v", err)
		}
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(nil, Options{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := New(newClient(t, llm.NewScripted()), Options{Batch: true}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for batch size, got %v", err)
	}
}
