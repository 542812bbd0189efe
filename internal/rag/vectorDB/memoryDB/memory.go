// Package memoryDB is an in-process ChunkStore used in tests and as a
// fallback when no vector database is reachable. It enforces the same scope
// semantics as the qdrant store.
package memoryDB

import (
	"context"
	"sort"
	"sync"

	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/domain/commonModels"
	"github.com/doclens/doclens/internal/rag/rank"
)

type storedPoint struct {
	chunk          commonModels.Chunk
	doc            commonModels.Document
	vector         []float32
	embeddingModel string
}

type Store struct {
	mu     sync.RWMutex
	points []storedPoint
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) ReplaceDocument(_ context.Context, doc commonModels.Document, chunks []commonModels.Chunk, vectors [][]float32, embeddingModel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteLocked(doc.TenantId, doc.Id)
	for i, chunk := range chunks {
		var vector []float32
		if i < len(vectors) {
			vector = vectors[i]
		}
		s.points = append(s.points, storedPoint{
			chunk:          chunk,
			doc:            doc,
			vector:         vector,
			embeddingModel: embeddingModel,
		})
	}
	return nil
}

func (s *Store) FetchCandidates(_ context.Context, scope commonModels.AccessScope, filter commonModels.CandidateFilter, queryVector []float32, limit int) ([]commonModels.Candidate, error) {
	if scope.DenyAll || scope.TenantId == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = config.CandidatePoolSize
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []commonModels.Candidate
	for _, p := range s.points {
		if !inScope(p.doc, scope) || !matchesFilter(p.doc, filter) {
			continue
		}
		candidates = append(candidates, commonModels.Candidate{
			Chunk:          p.chunk,
			DocumentTitle:  p.doc.Title,
			EmbeddingModel: p.embeddingModel,
			Vector:         p.vector,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return rank.CosineSimilarity(queryVector, candidates[i].Vector) > rank.CosineSimilarity(queryVector, candidates[j].Vector)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (s *Store) DeleteDocument(_ context.Context, tenantId string, documentId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(tenantId, documentId)
	return nil
}

func (s *Store) deleteLocked(tenantId string, documentId string) {
	kept := s.points[:0]
	for _, p := range s.points {
		if p.doc.TenantId == tenantId && p.doc.Id == documentId {
			continue
		}
		kept = append(kept, p)
	}
	s.points = kept
}

func inScope(doc commonModels.Document, scope commonModels.AccessScope) bool {
	if doc.TenantId != scope.TenantId {
		return false
	}
	if scope.DepartmentId != "" && doc.DepartmentId != scope.DepartmentId {
		return false
	}
	if scope.DivisionId != "" && doc.DivisionId != scope.DivisionId {
		return false
	}
	if scope.OwnerId != "" && doc.OwnerId != scope.OwnerId {
		return false
	}
	return true
}

func matchesFilter(doc commonModels.Document, filter commonModels.CandidateFilter) bool {
	if filter.DepartmentId != "" && doc.DepartmentId != filter.DepartmentId {
		return false
	}
	if filter.DivisionId != "" && doc.DivisionId != filter.DivisionId {
		return false
	}
	if filter.Category != "" && doc.Category != filter.Category {
		return false
	}
	for _, tag := range filter.Tags {
		if !hasTag(doc.Tags, tag) {
			return false
		}
	}
	if len(filter.DocumentIds) > 0 && !contains(filter.DocumentIds, doc.Id) {
		return false
	}
	if !filter.CreatedAfter.IsZero() && doc.CreatedAt.Before(filter.CreatedAfter) {
		return false
	}
	if !filter.CreatedBefore.IsZero() && doc.CreatedAt.After(filter.CreatedBefore) {
		return false
	}
	return true
}

func hasTag(tags []string, tag string) bool {
	return contains(tags, tag)
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
