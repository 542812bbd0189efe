// Package rank scores scope-filtered candidates against a query with a
// hybrid semantic plus lexical signal and selects the top results.
package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/domain/commonModels"
)

// Rank blends cosine similarity against queryVector with lexical overlap
// against queryText, drops everything under the relevance floor and returns
// at most topK results, highest score first. Ties keep candidate order.
func Rank(queryText string, queryVector []float32, candidates []commonModels.Candidate, topK int) []commonModels.SearchResult {
	topK = ClampTopK(topK)

	results := make([]commonModels.SearchResult, 0, len(candidates))
	for _, candidate := range candidates {
		semantic := CosineSimilarity(queryVector, candidate.Vector)
		lexical := LexicalOverlap(queryText, candidate.Chunk.Text)
		score := config.SemanticWeight*semantic + config.LexicalWeight*lexical
		if score < config.RelevanceFloor {
			continue
		}
		results = append(results, commonModels.SearchResult{
			Chunk:         candidate.Chunk,
			DocumentId:    candidate.Chunk.DocumentId,
			DocumentTitle: candidate.DocumentTitle,
			Score:         score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// ClampTopK forces topK into the allowed window, substituting the default
// when the caller left it unset.
func ClampTopK(topK int) int {
	if topK == 0 {
		return config.DefaultTopK
	}
	if topK < config.MinTopK {
		return config.MinTopK
	}
	if topK > config.MaxTopK {
		return config.MaxTopK
	}
	return topK
}

// CosineSimilarity returns dot(a,b)/(|a|*|b|), or 0 when either norm is zero
// or the dimensions disagree.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// LexicalOverlap returns the fraction of case-folded query terms appearing
// as substrings of the candidate text, or 1 when the whole query appears
// verbatim.
func LexicalOverlap(query, text string) float64 {
	query = strings.ToLower(strings.TrimSpace(query))
	text = strings.ToLower(text)
	if query == "" {
		return 0
	}
	if strings.Contains(text, query) {
		return 1
	}
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return 0
	}
	matched := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
