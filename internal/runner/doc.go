// Package runner classifies a whole dataset with a bounded pool of workers.
//
// Items are grouped into jobs (one item per job in single mode, BatchSize
// items per job in batch mode). Jobs complete in any order; results are
// placed by item index so output order always matches input order. The first
// failing job cancels the rest and the run returns no results.
package runner
