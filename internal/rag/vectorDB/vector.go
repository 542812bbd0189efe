package vectorDB

import (
	"context"

	"github.com/doclens/doclens/internal/domain/commonModels"
)

// ChunkStore persists chunks with their vectors and serves scope-filtered
// candidate fetches. Implementations enforce the access scope themselves;
// callers must never have to post-filter for tenancy.
type ChunkStore interface {
	// ReplaceDocument atomically swaps all stored chunks of the document:
	// prior chunks and vectors for the document id are gone once the new
	// set is visible.
	ReplaceDocument(ctx context.Context, doc commonModels.Document, chunks []commonModels.Chunk, vectors [][]float32, embeddingModel string) error

	// FetchCandidates returns up to limit chunks visible inside scope,
	// narrowed further by filter, with their stored vectors.
	FetchCandidates(ctx context.Context, scope commonModels.AccessScope, filter commonModels.CandidateFilter, queryVector []float32, limit int) ([]commonModels.Candidate, error)

	// DeleteDocument removes every chunk of the document within the tenant.
	DeleteDocument(ctx context.Context, tenantId string, documentId string) error
}
