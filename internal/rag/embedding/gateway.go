package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/rag/errs"
	"github.com/doclens/doclens/pkg/logger_i"
)

// Gateway fronts the remote embedder with a time-bounded cache and batch
// coalescing. Blank input is embedded as a single-space placeholder so the
// provider never rejects an empty payload.
type Gateway struct {
	provider Embedder
	cache    *ttlCache
	logger   *logger_i.Logger
}

func NewGateway(provider Embedder) *Gateway {
	return &Gateway{
		provider: provider,
		cache:    newTTLCache(),
		logger:   logger_i.NewLogger("embedding_gateway"),
	}
}

func (g *Gateway) ModelName() string {
	return g.provider.ModelName()
}

func (g *Gateway) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	query = normalize(query)
	if vector, ok := g.cache.get(query); ok {
		return vector, nil
	}
	vector, err := g.provider.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding call: %w", errs.ErrUnavailable, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: embedding call returned no vector", errs.ErrUnavailable)
	}
	g.cache.put(query, vector)
	return vector, nil
}

// BatchEmbedding embeds all chunks, serving repeats and cached text without
// a remote call and slicing the remainder into provider-sized batches.
// Results align 1:1 with the input order.
func (g *Gateway) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	keys := make([]string, len(chunks))
	missIndex := make(map[string]int)
	var misses []string

	for i, chunk := range chunks {
		key := normalize(chunk)
		keys[i] = key
		if vector, ok := g.cache.get(key); ok {
			out[i] = vector
			continue
		}
		if _, seen := missIndex[key]; !seen {
			missIndex[key] = len(misses)
			misses = append(misses, key)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	vectors := make([][]float32, 0, len(misses))
	for start := 0; start < len(misses); start += config.EmbeddingBatchSize {
		end := min(start+config.EmbeddingBatchSize, len(misses))
		batch, err := g.provider.BatchEmbedding(ctx, misses[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: batch embedding: %w", errs.ErrUnavailable, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: batch embedding returned %d vectors for %d inputs", errs.ErrUnavailable, len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}

	for key, idx := range missIndex {
		g.cache.put(key, vectors[idx])
	}
	for i := range out {
		if out[i] == nil {
			out[i] = vectors[missIndex[keys[i]]]
		}
	}
	g.logger.Debug("batch embedding served", "total", len(chunks), "remote", len(misses))
	return out, nil
}

func normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return " "
	}
	return text
}
