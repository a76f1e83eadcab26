// Package classify turns a task, optional exemplars and live text into labels
// by calling a generation backend.
//
// Classify issues one backend call per input. ClassifyBatch packs several
// inputs into one call and splits the answer on the agreed separator; when
// the number of answers differs from the number of inputs it fails with a
// *CountMismatchError and returns no partial results. Batched answers are
// order-sensitive and less stable than single-item answers.
//
// The client holds no mutable state, so concurrent calls are independent.
// Answers are trimmed and checked against the category set; membership is
// reported on each Result rather than assumed.
package classify
