package retrieval

import (
	"context"
	"log"
	"sort"
	"strings"

	"admissionbot/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

// KeywordBackend ranks documents by how many query terms they contain,
// tolerating small typos. It needs no embedding service.
type KeywordBackend struct {
	docs []models.Document
}

func NewKeywordBackend(docs []models.Document) *KeywordBackend {
	return &KeywordBackend{docs: docs}
}

type scoredDoc struct {
	content string
	score   int
}

func (b *KeywordBackend) Search(ctx context.Context, query string, program models.Program, k int) ([]string, error) {
	terms := queryTerms(query)
	if len(terms) == 0 || k <= 0 {
		return []string{}, nil
	}

	var scored []scoredDoc
	for _, doc := range b.docs {
		if doc.Program() != string(program) {
			continue
		}
		if score := matchScore(terms, doc.Content); score > 0 {
			scored = append(scored, scoredDoc{content: doc.Content, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > k {
		scored = scored[:k]
	}

	log.Printf("[INFO] Keyword search for %q in %s returned %d snippets", query, program, len(scored))
	return lo.Map(scored, func(d scoredDoc, _ int) string { return d.content }), nil
}

func queryTerms(query string) []string {
	return lo.Uniq(lo.FilterMap(strings.Fields(query), func(word string, _ int) (string, bool) {
		term := strings.ToLower(strings.Trim(word, ".,!?;:()[]{}\"'"))
		return term, len([]rune(term)) > 2
	}))
}

// matchScore gives two points per term found as a whole word and one point
// per term found only as a fuzzy match against a word.
func matchScore(terms []string, content string) int {
	words := lo.FilterMap(strings.Fields(content), func(word string, _ int) (string, bool) {
		clean := strings.Trim(word, ".,!?;:()[]{}\"'")
		return clean, clean != ""
	})

	score := 0
	for _, term := range terms {
		switch {
		case lo.ContainsBy(words, func(w string) bool { return strings.EqualFold(w, term) }):
			score += 2
		case len(fuzzy.FindFold(term, words)) > 0:
			score++
		}
	}
	return score
}
