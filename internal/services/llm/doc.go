// Package llm provides the generation backends the classifier talks to.
//
// Backend is the capability the rest of the code depends on: one synchronous
// Generate call taking a prompt.Conversation and Params and returning the
// model's text. Concrete backends are interchangeable and selected when the
// classifier is constructed.
//
// # Chat backend
//
// ChatBackend speaks the OpenAI-compatible chat completions protocol used by
// OpenAI, OpenRouter, and local servers such as Ollama or vLLM. Conversation
// roles map to system/user/assistant messages; Params become the seed,
// temperature, and max_tokens request fields.
//
// # Configuration
//
// Requires api_key and model; base_url, referer, title, and timeout are
// optional. The key is sent as a bearer token and never logged.
//
// # Failure Behaviour
//
// Each Generate call issues exactly one HTTP request. There is no retry: HTTP
// errors surface as *StatusError (services.ErrBackend), blank completions as
// *EmptyContentError (services.ErrEmptyResponse), and expired deadlines as
// services.ErrTimeout. Seeds are a sampling hint only; callers must treat
// repeated calls as approximately reproducible.
//
// # Entry Points
//
// NewChatBackend: construct a backend from Config.
// ChatBackend.Generate: one completion for a conversation.
// ChatBackend.HealthCheck: verify the API key and model are usable.
// Scripted / BackendFunc: in-process backends for tests and dry runs.
package llm
