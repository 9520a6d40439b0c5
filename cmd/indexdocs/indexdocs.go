package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"admissionbot/config"
	"admissionbot/db"
	"admissionbot/models"
	"admissionbot/services/retrieval"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/samber/lo"
	"github.com/tmc/langchaingo/embeddings"
	"google.golang.org/protobuf/types/known/structpb"
)

const batchSize = 50

func main() {
	log.Printf("[INFO] Starting document indexing process")

	cfg := config.Load()

	if cfg.PineconeAPIKey == "" {
		log.Fatal("[ERROR] PINECONE_API_KEY environment variable is required")
	}

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("[ERROR] OPENAI_API_KEY environment variable is required")
	}

	ctx := context.Background()

	docs, err := db.NewFileDocumentRepository(cfg.DocPaths).LoadDocuments(ctx)
	if err != nil {
		log.Fatalf("[ERROR] Failed to load documents: %v", err)
	}
	if len(docs) == 0 {
		log.Fatalf("[ERROR] No documents found in %s", strings.Join(cfg.DocPaths, ", "))
	}

	embedder, err := retrieval.NewOpenAIEmbedder(cfg.OpenAIAPIKey)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.PineconeAPIKey,
	})
	if err != nil {
		log.Fatalf("[ERROR] Failed to create Pinecone client: %v", err)
	}

	if err := ensurePineconeIndex(ctx, pc, cfg.PineconeIndexName); err != nil {
		log.Fatalf("[ERROR] Failed to ensure Pinecone index: %v", err)
	}

	idxDesc, err := pc.DescribeIndex(ctx, cfg.PineconeIndexName)
	if err != nil {
		log.Fatalf("[ERROR] Failed to describe index: %v", err)
	}

	idxConn, err := pc.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: retrieval.PineconeNamespace,
	})
	if err != nil {
		log.Fatalf("[ERROR] Failed to create index connection: %v", err)
	}

	for _, prefix := range sourcePrefixes(docs) {
		if err := deleteExistingVectors(ctx, idxConn, prefix); err != nil {
			log.Fatalf("[ERROR] Failed to delete old vectors with prefix %s: %v", prefix, err)
		}
	}

	batches := lo.Chunk(docs, batchSize)
	for i, batch := range batches {
		log.Printf("[INFO] Indexing batch %d/%d (%d documents)", i+1, len(batches), len(batch))

		if err := indexBatch(ctx, idxConn, embedder, batch); err != nil {
			log.Fatalf("[ERROR] Failed to index batch %d: %v", i+1, err)
		}
	}

	log.Printf("[INFO] Indexed %d documents into %s/%s", len(docs), cfg.PineconeIndexName, retrieval.PineconeNamespace)
}

func ensurePineconeIndex(ctx context.Context, pc *pinecone.Client, indexName string) error {
	indexes, err := pc.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}

	for _, idx := range indexes {
		if idx.Name == indexName {
			log.Printf("[INFO] Index %s already exists", indexName)
			return nil
		}
	}

	log.Printf("[INFO] Creating Pinecone index: %s", indexName)
	dimension := int32(retrieval.EmbeddingDimension)
	deletionProtection := pinecone.DeletionProtectionDisabled
	metric := pinecone.Cosine

	_, err = pc.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:               indexName,
		Dimension:          &dimension,
		Metric:             &metric,
		Cloud:              pinecone.Aws,
		Region:             "us-east-1",
		DeletionProtection: &deletionProtection,
		Tags:               &pinecone.IndexTags{"project": "admissionbot"},
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	for {
		idx, err := pc.DescribeIndex(ctx, indexName)
		if err != nil {
			return fmt.Errorf("failed to describe index: %w", err)
		}
		if idx.Status.Ready {
			log.Printf("[INFO] Index %s is ready", indexName)
			return nil
		}
		log.Printf("[INFO] Waiting for index %s to be ready...", indexName)
		time.Sleep(10 * time.Second)
	}
}

// Document ids are "<source>-<n>".
func sourceOf(id string) string {
	if i := strings.LastIndex(id, "-"); i >= 0 {
		return id[:i]
	}
	return id
}

// sourcePrefixes returns the id prefix of every source file, so re-indexing a
// file first removes the vectors of its previous version.
func sourcePrefixes(docs []models.Document) []string {
	return lo.Uniq(lo.Map(docs, func(doc models.Document, _ int) string {
		return sourceOf(doc.ID) + "-"
	}))
}

func deleteExistingVectors(ctx context.Context, idxConn *pinecone.IndexConnection, prefix string) error {
	limit := uint32(100)
	req := &pinecone.ListVectorsRequest{Prefix: &prefix, Limit: &limit}

	for {
		listResp, err := idxConn.ListVectors(ctx, req)
		if err != nil {
			if strings.Contains(err.Error(), "Namespace not found") {
				log.Printf("[INFO] Namespace does not exist yet - nothing to delete for %s", prefix)
				return nil
			}
			return fmt.Errorf("failed to list vectors: %w", err)
		}

		ids := make([]string, 0, len(listResp.VectorIds))
		for _, vectorID := range listResp.VectorIds {
			if vectorID != nil {
				ids = append(ids, *vectorID)
			}
		}

		if len(ids) > 0 {
			if err := idxConn.DeleteVectorsById(ctx, ids); err != nil {
				return fmt.Errorf("failed to delete vector batch: %w", err)
			}
			log.Printf("[INFO] Deleted %d vectors with prefix %s", len(ids), prefix)
		}

		if listResp.NextPaginationToken == nil {
			return nil
		}
		req.PaginationToken = listResp.NextPaginationToken
	}
}

func indexBatch(ctx context.Context, idxConn *pinecone.IndexConnection, embedder embeddings.Embedder, docs []models.Document) error {
	texts := lo.Map(docs, func(doc models.Document, _ int) string { return doc.Content })

	values, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	vectors, err := buildVectors(docs, values)
	if err != nil {
		return err
	}

	if _, err := idxConn.UpsertVectors(ctx, vectors); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}

// buildVectors pairs documents with their embeddings. The snippet itself is
// stored under "text", which is what the search side reads back.
func buildVectors(docs []models.Document, values [][]float32) ([]*pinecone.Vector, error) {
	if len(values) != len(docs) {
		return nil, fmt.Errorf("got %d embeddings for %d documents", len(values), len(docs))
	}

	vectors := make([]*pinecone.Vector, 0, len(docs))
	for i, doc := range docs {
		metadata := map[string]any{
			"text":       doc.Content,
			"file":       sourceOf(doc.ID),
			"indexed_at": time.Now().Format(time.RFC3339),
		}
		for key, value := range doc.Metadata {
			if _, reserved := metadata[key]; !reserved {
				metadata[key] = value
			}
		}

		metadataStruct, err := structpb.NewStruct(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to create metadata struct for %s: %w", doc.ID, err)
		}

		vectors = append(vectors, &pinecone.Vector{
			Id:       doc.ID,
			Values:   &values[i],
			Metadata: metadataStruct,
		})
	}

	return vectors, nil
}
