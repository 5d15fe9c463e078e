package judge

// FactoryConfig constructs a client without leaking provider details.
type FactoryConfig struct {
	Provider     string // "openai", "anthropic" or "scripted"
	OpenAIKey    string
	AnthropicKey string
	SystemPrompt string
	// Defaults
	Model               string
	Temperature         float64
	MaxCompletionTokens int
}

// NewClient returns a provider-agnostic judge client. The scripted provider
// needs no credentials and exists for tests and offline runs.
func NewClient(cfg FactoryConfig) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return newAnthropicClient(cfg)
	case "scripted":
		return NewScripted(), nil
	default:
		return newOpenAIClient(cfg)
	}
}

func mergeOptions(defaults, opts Options) Options {
	out := defaults
	if opts.Model != "" {
		out.Model = opts.Model
	}
	if opts.Temperature != 0 {
		out.Temperature = opts.Temperature
	}
	if opts.MaxCompletionTokens != 0 {
		out.MaxCompletionTokens = opts.MaxCompletionTokens
	}
	if opts.SystemPrompt != "" {
		out.SystemPrompt = opts.SystemPrompt
	}
	return out
}

func valueOrDefault(val, def string) string {
	if val != "" {
		return val
	}
	return def
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orFloat(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}
