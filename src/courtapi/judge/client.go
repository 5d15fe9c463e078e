// Package judge is the client side of the AI judgment service. Providers
// return untyped free text; the typed operations in service.go parse it with
// the keyword-line parsers in parse.go and fall back to safe defaults, so a
// failed or garbled judge call never stalls the courtroom protocol.
package judge

import "context"

// Options controls model behavior; fields are optional per provider.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int
	SystemPrompt        string
}

// Client is a provider-agnostic interface for one judge invocation.
type Client interface {
	// Respond sends an input prompt and returns the raw response text.
	Respond(ctx context.Context, input string, opts Options) (string, error)
}
