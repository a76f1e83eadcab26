package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"labelbench/internal/classify"
	"labelbench/internal/dataset"
	"labelbench/internal/logging"
	"labelbench/internal/services"
	"labelbench/internal/task"
)

// Classifier is the subset of *classify.Client the runner drives.
type Classifier interface {
	Classify(ctx context.Context, exemplars []task.Exemplar, input string) (classify.Result, error)
	ClassifyBatch(ctx context.Context, exemplars []task.Exemplar, inputs []string) ([]classify.Result, error)
}

// Options configures a Runner.
type Options struct {
	// Workers bounds concurrent backend calls. Values below 1 mean 1.
	Workers int
	// Batch selects batch mode.
	Batch bool
	// BatchSize is the number of items per batch request.
	BatchSize int
	// Exemplars are sent with every request.
	Exemplars []task.Exemplar
	// RunID tags logs and predictions. Blank generates one.
	RunID  string
	Logger *slog.Logger
}

// Output is a completed run.
type Output struct {
	RunID   string
	Results []classify.Result
	// Invalid counts answers outside the category set.
	Invalid int
	Elapsed time.Duration
}

// Runner classifies datasets.
type Runner struct {
	client Classifier
	opts   Options
	logger *slog.Logger
}

// New returns a runner around client.
func New(client Classifier, opts Options) (*Runner, error) {
	if client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "runner", "new", "classifier is required", nil)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Batch && opts.BatchSize < 1 {
		return nil, services.Wrap(services.ErrConfiguration, "runner", "new", "batch size must be at least 1", nil)
	}
	return &Runner{
		client: client,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "runner"),
	}, nil
}

type job struct {
	start int
	items []dataset.Item
}

// Run classifies items and returns results in input order.
func (r *Runner) Run(ctx context.Context, items []dataset.Item) (Output, error) {
	runID := r.opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)
	started := time.Now()

	jobs := r.plan(items)
	logger.Info("classification started",
		logging.Int("items", len(items)),
		logging.Int("requests", len(jobs)),
		logging.Int("workers", r.opts.Workers),
		logging.Bool("batch", r.opts.Batch),
		logging.Int("exemplars", len(r.opts.Exemplars)),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]classify.Result, len(items))
	var (
		firstErr error
		errOnce  sync.Once
		done     atomic.Int64
		progress sync.Mutex
	)
	sampler := logging.NewProgressSampler(10)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobCh := make(chan job, r.opts.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < r.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				if runCtx.Err() != nil {
					continue
				}
				out, err := r.runJob(runCtx, j)
				if err != nil {
					fail(err)
					continue
				}
				copy(results[j.start:], out)
				completed := int(done.Add(int64(len(j.items))))
				progress.Lock()
				if sampler.ShouldLog(completed, len(items), "classify") {
					logger.Info("classification progress",
						logging.Int("done", completed),
						logging.Int("total", len(items)),
					)
				}
				progress.Unlock()
			}
		}()
	}

dispatch:
	for _, j := range jobs {
		select {
		case jobCh <- j:
		case <-runCtx.Done():
			break dispatch
		}
	}
	close(jobCh)
	wg.Wait()

	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		logging.ErrorWithContext(logger, "classification failed", "run_failed",
			logging.Error(firstErr),
			logging.Int("completed", int(done.Load())),
			logging.Int("items", len(items)),
			logging.String(logging.FieldErrorHint, hintFor(firstErr)),
		)
		return Output{RunID: runID}, firstErr
	}

	output := Output{RunID: runID, Results: results, Elapsed: time.Since(started)}
	for _, result := range results {
		if !result.Valid {
			output.Invalid++
		}
	}
	if output.Invalid > 0 {
		logging.WarnWithContext(logger, "answers outside the category set", "invalid_labels",
			logging.Int("invalid", output.Invalid),
			logging.Int("items", len(items)),
			logging.String(logging.FieldErrorHint, "tighten the instructions or enable classify.canonicalize_labels"),
			logging.String(logging.FieldImpact, "invalid answers score as incorrect"),
		)
	}
	logger.Info("classification finished",
		logging.Int("items", len(items)),
		logging.Duration("elapsed", output.Elapsed),
	)
	return output, nil
}

func (r *Runner) plan(items []dataset.Item) []job {
	size := 1
	if r.opts.Batch {
		size = r.opts.BatchSize
	}
	jobs := make([]job, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		jobs = append(jobs, job{start: start, items: items[start:end]})
	}
	return jobs
}

func (r *Runner) runJob(ctx context.Context, j job) ([]classify.Result, error) {
	ctx = services.WithItemIndex(ctx, j.items[0].Index)
	if !r.opts.Batch {
		item := j.items[0]
		result, err := r.client.Classify(ctx, r.opts.Exemplars, item.Text)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", item.Index, err)
		}
		result.Index = item.Index
		return []classify.Result{result}, nil
	}
	results, err := r.client.ClassifyBatch(ctx, r.opts.Exemplars, dataset.Texts(j.items))
	if err != nil {
		last := j.items[len(j.items)-1].Index
		return nil, fmt.Errorf("items %d-%d: %w", j.items[0].Index, last, err)
	}
	for i := range results {
		results[i].Index = j.items[i].Index
	}
	return results, nil
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrCountMismatch):
		return "reduce classify.batch_size or switch classify.mode to single"
	case errors.Is(err, services.ErrTimeout):
		return "raise classify.request_timeout_seconds or lower classify.workers"
	case errors.Is(err, services.ErrConfiguration):
		return "run 'labelbench config validate'"
	case errors.Is(err, services.ErrBudgetExceeded):
		return "raise tokenizer.max_prompt_tokens or shorten the instructions"
	default:
		return "check backend connectivity with 'labelbench ping'"
	}
}

// Predictions joins items with their results for storage.
func Predictions(items []dataset.Item, out Output) []dataset.Prediction {
	preds := make([]dataset.Prediction, len(out.Results))
	for i, result := range out.Results {
		pred := dataset.Prediction{
			Index: result.Index,
			Text:  result.Input,
			Label: result.Label,
			Raw:   result.Raw,
			Valid: result.Valid,
			RunID: out.RunID,
		}
		if i < len(items) {
			pred.Text = items[i].Text
			pred.TrueLabel = items[i].Label
		}
		preds[i] = pred
	}
	return preds
}
