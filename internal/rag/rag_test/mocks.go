package rag_test

import (
	"context"

	"github.com/doclens/doclens/internal/domain/commonModels"
)

// MockChunkStore implements vectorDB.ChunkStore
type MockChunkStore struct {
	OnReplaceDocument func(ctx context.Context, doc commonModels.Document, chunks []commonModels.Chunk, vectors [][]float32, embeddingModel string) error
	OnFetchCandidates func(ctx context.Context, scope commonModels.AccessScope, filter commonModels.CandidateFilter, queryVector []float32, limit int) ([]commonModels.Candidate, error)
	OnDeleteDocument  func(ctx context.Context, tenantId string, documentId string) error

	FetchCalls int
}

func (m *MockChunkStore) ReplaceDocument(ctx context.Context, doc commonModels.Document, chunks []commonModels.Chunk, vectors [][]float32, embeddingModel string) error {
	if m.OnReplaceDocument != nil {
		return m.OnReplaceDocument(ctx, doc, chunks, vectors, embeddingModel)
	}
	return nil
}

func (m *MockChunkStore) FetchCandidates(ctx context.Context, scope commonModels.AccessScope, filter commonModels.CandidateFilter, queryVector []float32, limit int) ([]commonModels.Candidate, error) {
	m.FetchCalls++
	if m.OnFetchCandidates != nil {
		return m.OnFetchCandidates(ctx, scope, filter, queryVector, limit)
	}
	return []commonModels.Candidate{
		{
			Chunk:  commonModels.Chunk{Id: "c-1", DocumentId: "doc-1", Text: "default context"},
			Vector: []float32{1, 0},
		},
	}, nil
}

func (m *MockChunkStore) DeleteDocument(ctx context.Context, tenantId string, documentId string) error {
	if m.OnDeleteDocument != nil {
		return m.OnDeleteDocument(ctx, tenantId, documentId)
	}
	return nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{1, 0}, nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks)
	}
	vectors := make([][]float32, len(chunks))
	for i := range vectors {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

func (m *MockEmbedder) ModelName() string { return "mock-model" }

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, question string, contextBlock string) (string, error)
	Calls      int
}

func (m *MockLLM) Generate(ctx context.Context, question string, contextBlock string) (string, error) {
	m.Calls++
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, question, contextBlock)
	}
	return "mocked llm response", nil
}
