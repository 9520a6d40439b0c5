package retrieval

import (
	"context"
	"fmt"
	"log"

	"admissionbot/models"

	chromem "github.com/philippgille/chromem-go"
	"github.com/samber/lo"
	"github.com/tmc/langchaingo/embeddings"
)

const programDocsCollection = "program-docs"

// ChromemBackend keeps program documents in an in-process vector collection.
type ChromemBackend struct {
	collection *chromem.Collection
}

// EmbeddingFunc adapts a langchaingo embedder to chromem-go.
func EmbeddingFunc(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}

func NewChromemBackend(ctx context.Context, docs []models.Document, embed chromem.EmbeddingFunc, concurrency int) (*ChromemBackend, error) {
	db := chromem.NewDB()

	col, err := db.CreateCollection(programDocsCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	if len(docs) > 0 {
		chromemDocs := lo.Map(docs, func(d models.Document, _ int) chromem.Document {
			return chromem.Document{ID: d.ID, Content: d.Content, Metadata: d.Metadata}
		})

		if concurrency < 1 {
			concurrency = 1
		}
		log.Printf("[INFO] Embedding %d documents into collection %s", len(chromemDocs), programDocsCollection)
		if err := col.AddDocuments(ctx, chromemDocs, concurrency); err != nil {
			return nil, fmt.Errorf("failed to add documents: %w", err)
		}
	}

	return &ChromemBackend{collection: col}, nil
}

func (b *ChromemBackend) Search(ctx context.Context, query string, program models.Program, k int) ([]string, error) {
	// chromem-go rejects nResults larger than the collection
	n := min(k, b.collection.Count())
	if n <= 0 {
		return []string{}, nil
	}

	results, err := b.collection.Query(ctx, query, n, map[string]string{"program": string(program)}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	log.Printf("[INFO] Vector search for %q in %s returned %d snippets", query, program, len(results))
	return lo.Map(results, func(r chromem.Result, _ int) string { return r.Content }), nil
}
