// Package dataset reads labeled CSV datasets and reads and writes prediction
// files.
//
// Predictions are stored as JSON lines, one object per item in index order.
// Writers hold an exclusive advisory lock on a sibling ".lock" file so two
// runs cannot interleave output into the same file.
package dataset
