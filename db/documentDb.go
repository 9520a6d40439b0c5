package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"admissionbot/models"
)

type DocumentRepository interface {
	LoadDocuments(ctx context.Context) ([]models.Document, error)
}

// FileDocumentRepository reads program snippets produced by the page scraper.
// FAQ items carry question/answer fields, everything else carries text.
type FileDocumentRepository struct {
	paths []string
}

func NewFileDocumentRepository(paths []string) *FileDocumentRepository {
	return &FileDocumentRepository{paths: paths}
}

func (r *FileDocumentRepository) LoadDocuments(ctx context.Context) ([]models.Document, error) {
	var documents []models.Document

	for _, path := range r.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[ERROR] Skipping document file %s: %v", path, err)
			continue
		}

		var items []map[string]any
		if err := json.Unmarshal(data, &items); err != nil {
			log.Printf("[ERROR] Skipping document file %s: failed to decode: %v", path, err)
			continue
		}

		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for i, item := range items {
			doc, ok := toDocument(item)
			if !ok {
				continue
			}
			doc.ID = fmt.Sprintf("%s-%d", base, i)
			documents = append(documents, doc)
		}
	}

	log.Printf("[INFO] Loaded %d documents from %d files", len(documents), len(r.paths))
	return documents, nil
}

func toDocument(item map[string]any) (models.Document, bool) {
	doc := models.Document{Metadata: map[string]string{}}

	question, _ := item["question"].(string)
	answer, _ := item["answer"].(string)
	text, _ := item["text"].(string)

	switch {
	case question != "" && answer != "":
		doc.Content = fmt.Sprintf("Q: %s\nA: %s", question, answer)
	case strings.TrimSpace(text) != "":
		doc.Content = text
	default:
		return doc, false
	}

	for key, value := range item {
		switch key {
		case "question", "answer", "text":
			continue
		}
		if s, ok := value.(string); ok {
			doc.Metadata[key] = s
		} else if value != nil {
			doc.Metadata[key] = fmt.Sprint(value)
		}
	}

	return doc, true
}
