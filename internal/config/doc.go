// Package config loads, normalizes, and validates labelbench configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks for the API key
// (LABELBENCH_API_KEY, OPENAI_API_KEY, OPENROUTER_API_KEY). The Config type
// centralizes the backend connection, generation parameters, tokenizer
// choice, classification mode, dataset columns, evaluation policy and logging.
//
// Always obtain settings through this package so downstream code receives
// trimmed values, canonical enum spellings and clear validation errors.
package config
