package service

import "context"

// Embedder maps text to a fixed-length numeric vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ChatModel produces a completion from a system and a user prompt. Every
// concrete backend is adapted to this single reply shape once, at the
// client, so callers never inspect provider response types.
type ChatModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
