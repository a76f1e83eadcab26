// Package prompt assembles the conversations sent to a generation backend.
//
// A Conversation always opens with one instruction turn, continues with
// alternating example input/output turns, and ends with exactly one live
// input turn; the model supplies the final answer. Builder produces these
// deterministically from a task's instruction block, optional exemplars and
// the live text, normalizing whitespace so incidental formatting in source
// data does not change token counts or model behaviour.
//
// BuildBatch packs several live inputs into one turn, joined by a separator
// that the instruction turn spells out, so a response can be split back into
// one answer per input. Fit and FitBatch drop trailing exemplars until the
// conversation fits a token budget.
package prompt
