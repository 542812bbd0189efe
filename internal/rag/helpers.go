package rag

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/doclens/doclens/internal/adapter/utils"
	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/domain/commonModels"
	"github.com/doclens/doclens/internal/domain/jobModel"
	"github.com/doclens/doclens/internal/metrics"
	"github.com/doclens/doclens/internal/rag/answer"
	"github.com/doclens/doclens/internal/rag/chunker"
	"github.com/doclens/doclens/internal/rag/errs"
	"github.com/doclens/doclens/pkg/logger_i"
)

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("job step", "Current Status", job.CurrentStep)
	return job
}

// jobError records a typed failure on the job. Invalid input is the
// caller's fault and not retryable; unavailable dependencies are.
func (s *service) jobError(job jobModel.Job, err error, message string) jobModel.Job {
	s.logger.Error(message, "error", err, "JobId", job.Id)

	code := http.StatusInternalServerError
	retry := true
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		code = http.StatusBadRequest
		retry = false
	case errors.Is(err, errs.ErrUnavailable):
		code = http.StatusServiceUnavailable
	}

	job.Error = jobModel.JobError{
		Code:    code,
		Message: err.Error(),
		Retry:   retry,
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}

func (s *service) executeChunkingStep(doc commonModels.Document) ([]commonModels.Chunk, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("chunking", time.Since(start)) }()

	pieces, err := chunker.Chunk(doc.Text, config.ChunkTargetSize, config.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: document %s produced no chunks", errs.ErrInvalidInput, doc.Id)
	}

	chunks := make([]commonModels.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = commonModels.Chunk{
			Id:         utils.GetNewUUID(),
			DocumentId: doc.Id,
			Index:      i,
			Text:       piece,
			CharCount:  len(piece),
		}
	}
	metrics.CaptureChunkCount(len(chunks))
	return chunks, nil
}

func (s *service) executeBatchEmbeddingStep(ctx context.Context, chunks []commonModels.Chunk) ([][]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("batch_embedding", time.Since(start)) }()

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := s.embedder.BatchEmbedding(ctx, texts)
	return vectors, embeddingUnavailable(err, "batch embedding")
}

func (s *service) executeReplaceStep(ctx context.Context, doc commonModels.Document, chunks []commonModels.Chunk, vectors [][]float32) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("chunk_store_replace", time.Since(start)) }()

	return s.chunkStore.ReplaceDocument(ctx, doc, chunks, vectors, s.embedder.ModelName())
}

func (s *service) executeQueryEmbeddingStep(ctx context.Context, query string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("query_embedding", time.Since(start)) }()

	vector, err := s.embedder.GetEmbedding(ctx, query)
	return vector, embeddingUnavailable(err, "query embedding")
}

// embeddingUnavailable classifies an embedder failure as a retryable outage
// regardless of which Embedder is injected. Already-typed errors pass
// through untouched.
func embeddingUnavailable(err error, stage string) error {
	if err == nil || errors.Is(err, errs.ErrUnavailable) || errors.Is(err, errs.ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", errs.ErrUnavailable, stage, err)
}

func (s *service) executeCandidateFetchStep(ctx context.Context, accessScope commonModels.AccessScope, filter commonModels.CandidateFilter, queryVector []float32) ([]commonModels.Candidate, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("candidate_fetch", time.Since(start)) }()

	return s.chunkStore.FetchCandidates(ctx, accessScope, filter, queryVector, config.CandidatePoolSize)
}

func (s *service) executeAnswerStep(ctx context.Context, question string, results []commonModels.SearchResult) (answer.Result, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.composer.Answer(ctx, question, results)
}

// documentLocks serializes replace operations per document id so a
// delete-then-insert never interleaves with another ingest of the same
// document. Entries are reference-counted and dropped once uncontended,
// keeping the map bounded by in-flight ingests rather than ids ever seen.
type documentLocks struct {
	mu    sync.Mutex
	locks map[string]*documentLock
}

type documentLock struct {
	mu   sync.Mutex
	refs int
}

func newDocumentLocks() *documentLocks {
	return &documentLocks{locks: make(map[string]*documentLock)}
}

func (d *documentLocks) lock(documentId string) func() {
	d.mu.Lock()
	l, ok := d.locks[documentId]
	if !ok {
		l = &documentLock{}
		d.locks[documentId] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, documentId)
		}
		d.mu.Unlock()
	}
}
