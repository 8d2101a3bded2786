package llm

import (
	"context"
	"strings"
)

// EchoGenerator answers with the first context block of the user prompt. It
// makes the pipeline usable offline and keeps answers fully extractive.
type EchoGenerator struct{}

func NewEchoGenerator() *EchoGenerator {
	return &EchoGenerator{}
}

// Generate returns the text between the first "[1]" marker and the next blank
// line, or the whole prompt when no marker is present.
func (g *EchoGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	block := userPrompt
	if i := strings.Index(block, "[1]"); i >= 0 {
		block = block[i:]
		if j := strings.Index(block, "\n\n"); j >= 0 {
			block = block[:j]
		}
	}
	return strings.TrimSpace(block), nil
}

func (g *EchoGenerator) ModelName() string {
	return "echo"
}
