package main

import (
	"reflect"
	"testing"

	"admissionbot/models"
)

func TestSourcePrefixes(t *testing.T) {
	docs := []models.Document{
		{ID: "ai_chunks-0"},
		{ID: "ai_chunks-1"},
		{ID: "ai_product_chunks-0"},
		{ID: "faq-extra-12"},
	}

	got := sourcePrefixes(docs)
	want := []string{"ai_chunks-", "ai_product_chunks-", "faq-extra-"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBuildVectors(t *testing.T) {
	docs := []models.Document{
		{
			ID:       "ai_chunks-3",
			Content:  "Q: Is there a dormitory?\nA: Yes",
			Metadata: map[string]string{"program": "ai", "type": "faq", "source": "https://abit.itmo.ru/program/master/ai", "text": "ignored"},
		},
	}

	t.Run("metadata", func(t *testing.T) {
		vectors, err := buildVectors(docs, [][]float32{{0.1, 0.2}})
		if err != nil {
			t.Fatalf("buildVectors() error = %v", err)
		}
		if len(vectors) != 1 {
			t.Fatalf("expected 1 vector, got %d", len(vectors))
		}

		vector := vectors[0]
		if vector.Id != "ai_chunks-3" {
			t.Errorf("unexpected id %q", vector.Id)
		}
		if len(*vector.Values) != 2 {
			t.Errorf("expected 2 values, got %d", len(*vector.Values))
		}

		metadata := vector.Metadata.AsMap()
		expected := map[string]string{
			"text":    "Q: Is there a dormitory?\nA: Yes",
			"program": "ai",
			"type":    "faq",
			"source":  "https://abit.itmo.ru/program/master/ai",
			"file":    "ai_chunks",
		}
		for key, want := range expected {
			if metadata[key] != want {
				t.Errorf("metadata %s: expected %q, got %v", key, want, metadata[key])
			}
		}
	})

	t.Run("count mismatch", func(t *testing.T) {
		if _, err := buildVectors(docs, nil); err == nil {
			t.Error("expected an error when embeddings are missing")
		}
	})
}
