// Package evaluate scores predicted labels against true labels.
//
// An Evaluator is bound to a category set and an unknown-label policy. It is
// a pure function of its inputs and safe for concurrent use. Reports carry
// per-category precision, recall, F1 and support, overall accuracy, macro
// and support-weighted averages, and a confusion matrix.
package evaluate
