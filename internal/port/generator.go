package port

import "context"

// Generator represents a language model for text generation.
type Generator interface {
	// Generate produces a completion for the system and user prompts.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
