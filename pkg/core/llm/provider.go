// Package llm holds the model-provider clients behind a single Provider
// interface. Unit-mix inference is the only LLM consumer in this system;
// everything it needs from a model is one prompt -> one reply.
package llm

import (
	"context"
)

// Provider is the interface every model backend implements.
//
// options carries provider-specific knobs ("model", "api_key",
// "response_format") and may be nil. Implementations read API keys from
// the environment when options omit them.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

// ChatMessage is the role/content pair used by the OpenAI-compatible chat
// endpoints.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// jsonModeRequested reports whether the caller asked for a JSON reply via
// options["response_format"] = {"type": "json_object"}.
func jsonModeRequested(options map[string]interface{}) bool {
	val, ok := options["response_format"].(map[string]interface{})
	if !ok {
		return false
	}
	return val["type"] == "json_object"
}
