// Package main hosts the labelbench CLI entrypoint and command graph.
//
// The Cobra command tree counts tokens, classifies ad-hoc texts, runs a whole
// CSV dataset through the classifier, scores stored predictions, checks
// backend connectivity and scaffolds configuration. It centralizes
// configuration resolution, logger setup and backend construction so
// subcommands stay declarative; the heavy lifting lives in internal packages.
package main
