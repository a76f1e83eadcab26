package config

const (
	defaultLLMBaseURL            = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel              = "gpt-4o-mini"
	defaultLLMTitle              = "labelbench"
	defaultLLMTimeoutSeconds     = 60
	defaultSeed                  = 42
	defaultTemperature           = 0.0
	defaultMaxOutputTokens       = 16
	defaultTokenizerEncoding     = "cl100k_base"
	defaultClassifyMode          = ModeSingle
	defaultBatchSize             = 10
	defaultSeparator             = "\n"
	defaultWorkers               = 4
	defaultRequestTimeoutSeconds = 30
	defaultCanonicalizeLabels    = true
	defaultTextColumn            = "text"
	defaultLabelColumn           = "label"
	defaultUnknownLabels         = UnknownLenient
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultConfigLocation        = "~/.config/labelbench/config.toml"
	projectConfigName            = "labelbench.toml"
)

// Classification modes.
const (
	ModeSingle = "single"
	ModeBatch  = "batch"
)

// Unknown-label policies.
const (
	UnknownLenient = "lenient"
	UnknownStrict  = "strict"
)

// apiKeyEnv lists the environment variables consulted, in order, when
// llm.api_key is blank.
var apiKeyEnv = []string{"LABELBENCH_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Generation: Generation{
			Seed:            defaultSeed,
			Temperature:     defaultTemperature,
			MaxOutputTokens: defaultMaxOutputTokens,
		},
		Classify: Classify{
			Mode:                  defaultClassifyMode,
			BatchSize:             defaultBatchSize,
			Separator:             defaultSeparator,
			Workers:               defaultWorkers,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			CanonicalizeLabels:    defaultCanonicalizeLabels,
		},
		Dataset: Dataset{
			TextColumn:  defaultTextColumn,
			LabelColumn: defaultLabelColumn,
		},
		Evaluation: Evaluation{
			UnknownLabels: defaultUnknownLabels,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
