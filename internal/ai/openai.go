package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIEmbedder implements Embedder over an OpenAI-compatible embeddings
// endpoint.
type OpenAIEmbedder struct {
	embedder embeddings.Embedder
}

func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	token := cfg.Token
	if token == "" {
		// Local OpenAI-compatible services accept any token.
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("ai: embedding client: %w", err)
	}

	opts := []embeddings.Option{embeddings.WithStripNewLines(true)}
	if cfg.BatchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(cfg.BatchSize))
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("ai: embedder: %w", err)
	}

	return &OpenAIEmbedder{embedder: embedder}, nil
}

func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ai: embed %d texts: %w", len(texts), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("ai: embedding result mismatch: expected %d, received %d", len(texts), len(vecs))
	}
	return vecs, nil
}

func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ai: embed query: %w", err)
	}
	return vec, nil
}

// OpenAIGenerator implements Generator over an OpenAI-compatible chat
// completion endpoint.
type OpenAIGenerator struct {
	llm   *openai.LLM
	model string
}

func NewOpenAIGenerator(cfg Config) (*OpenAIGenerator, error) {
	token := cfg.Token
	if token == "" {
		token = "none"
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithModel(cfg.GenerationModel),
	)
	if err != nil {
		return nil, fmt.Errorf("ai: generation client: %w", err)
	}

	return &OpenAIGenerator{llm: llm, model: cfg.GenerationModel}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("ai: generate: %w", err)
	}
	return out, nil
}

func (g *OpenAIGenerator) Model() string { return g.model }
