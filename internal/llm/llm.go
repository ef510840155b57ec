// Package llm wraps the hosted language models used to draft prompts.
package llm

import "fmt"

// creates a text generator for the configured provider; an empty key is an error
func NewTextGenerator(anthropicKey, model string) (TextGenerator, error) {
	if anthropicKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}

	return NewAnthropicClient(AnthropicConfig{APIKey: anthropicKey, Model: model}), nil
}
