package retrieval

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// EmbeddingModel produces 1536-dimensional vectors; the Pinecone index is
// created with the same dimension.
const (
	EmbeddingModel     = "text-embedding-ada-002"
	EmbeddingDimension = 1536
)

func NewOpenAIEmbedder(apiKey string) (embeddings.Embedder, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}
