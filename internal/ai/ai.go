// Package ai wraps the external embedding and text-generation operations.
// Both are opaque, possibly-failing network calls; callers treat any error
// as a step failure.
package ai

import "context"

// Embedder turns text into fixed-dimension vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Generator produces an answer from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Config holds the connection settings for OpenAI-compatible services.
type Config struct {
	BaseURL         string
	Token           string
	EmbeddingModel  string
	GenerationModel string
	BatchSize       int
}
