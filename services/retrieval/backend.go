package retrieval

import (
	"context"

	"admissionbot/models"
)

// Backend returns up to k snippets relevant to query for one program, best
// first. An empty result is not an error.
type Backend interface {
	Search(ctx context.Context, query string, program models.Program, k int) ([]string, error)
}
