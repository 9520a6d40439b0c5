package retrieval

import (
	"context"
	"fmt"
	"log"
	"sync"

	"admissionbot/models"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/tmc/langchaingo/embeddings"
	"google.golang.org/protobuf/types/known/structpb"
)

const PineconeNamespace = "program-docs"

// PineconeBackend queries the index populated by cmd/indexdocs. The index
// connection is opened on first use.
type PineconeBackend struct {
	client    *pinecone.Client
	embedder  embeddings.Embedder
	indexName string

	mu   sync.Mutex
	conn *pinecone.IndexConnection
}

func NewPineconeBackend(apiKey, indexName string, embedder embeddings.Embedder) (*PineconeBackend, error) {
	log.Printf("[INFO] Initializing Pinecone backend for index %s", indexName)

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	return &PineconeBackend{client: pc, embedder: embedder, indexName: indexName}, nil
}

func (b *PineconeBackend) connection(ctx context.Context) (*pinecone.IndexConnection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		return b.conn, nil
	}

	idxDesc, err := b.client.DescribeIndex(ctx, b.indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index: %w", err)
	}

	conn, err := b.client.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: PineconeNamespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}

	b.conn = conn
	return conn, nil
}

func (b *PineconeBackend) Search(ctx context.Context, query string, program models.Program, k int) ([]string, error) {
	if k <= 0 {
		return []string{}, nil
	}

	conn, err := b.connection(ctx)
	if err != nil {
		return nil, err
	}

	vector, err := b.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	filter, err := structpb.NewStruct(map[string]any{
		"program": map[string]any{"$eq": string(program)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata filter: %w", err)
	}

	result, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(k),
		MetadataFilter:  filter,
		IncludeValues:   false,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}

	snippets := make([]string, 0, len(result.Matches))
	for _, match := range result.Matches {
		if match.Vector == nil || match.Vector.Metadata == nil {
			continue
		}
		if text, ok := match.Vector.Metadata.AsMap()["text"].(string); ok && text != "" {
			snippets = append(snippets, text)
		}
	}

	log.Printf("[INFO] Pinecone search for %q in %s returned %d snippets", query, program, len(snippets))
	return snippets, nil
}
