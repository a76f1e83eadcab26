// Package task describes a classification task: the ordered category set, the
// instruction block given to the model, and optional few-shot exemplars.
//
// Tasks are created once per task definition and are read-only afterwards.
// Load reads them from TOML files:
//
//	name = "tweet-relevance"
//	instructions = "Classify the tweet as Relevant or Irrelevant."
//	categories = ["Relevant", "Irrelevant"]
//
//	[[exemplars]]
//	text = "Parliament votes on the budget today"
//	label = "Relevant"
package task
