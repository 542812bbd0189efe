package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/doclens/doclens/internal/adapter/utils"
	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/domain/commonModels"
	"github.com/doclens/doclens/internal/domain/jobModel"
	"github.com/doclens/doclens/internal/metrics"
	"github.com/doclens/doclens/internal/rag/answer"
	"github.com/doclens/doclens/internal/rag/embedding"
	"github.com/doclens/doclens/internal/rag/errs"
	"github.com/doclens/doclens/internal/rag/rank"
	"github.com/doclens/doclens/internal/rag/scope"
	"github.com/doclens/doclens/internal/rag/vectorDB"
	"github.com/doclens/doclens/pkg/logger_i"
)

// Service is the public contract of the retrieval pipeline. The worker and
// the handlers only ever see this interface, never the stores or model
// clients behind it.
type Service interface {
	Ingest(ctx context.Context, doc commonModels.Document, identity commonModels.Identity) (IngestResult, error)
	Search(ctx context.Context, query string, identity commonModels.Identity, topK int, filter commonModels.CandidateFilter) ([]commonModels.SearchResult, error)
	Answer(ctx context.Context, question string, identity commonModels.Identity, filter commonModels.CandidateFilter) (answer.Result, error)

	// job-shaped entry points for the worker pool
	ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
}

type IngestResult struct {
	DocumentId string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

type service struct {
	chunkStore vectorDB.ChunkStore
	embedder   embedding.Embedder
	composer   *answer.Composer
	logger     *logger_i.Logger
	docLocks   *documentLocks
}

// NewService wires the pipeline. The embedder is expected to be the cached
// gateway, not a raw provider.
func NewService(store vectorDB.ChunkStore, em embedding.Embedder, composer *answer.Composer) Service {
	return &service{
		chunkStore: store,
		embedder:   em,
		composer:   composer,
		logger:     logger_i.NewLogger("RAG Service :"),
		docLocks:   newDocumentLocks(),
	}
}

// Ingest chunks, embeds and stores one document. Re-ingesting the same
// document id replaces its chunk set; concurrent ingests of the same id are
// serialized because the replace is a delete-then-insert sequence.
func (s *service) Ingest(ctx context.Context, doc commonModels.Document, identity commonModels.Identity) (IngestResult, error) {
	start := time.Now()
	defer func() { metrics.CaptureJobMetrics("document_ingestion", time.Since(start)) }()

	accessScope := scope.Resolve(identity)
	if accessScope.DenyAll {
		return IngestResult{}, fmt.Errorf("%w: role %q cannot ingest tenant documents", errs.ErrInvalidInput, identity.Role)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return IngestResult{}, fmt.Errorf("%w: no text extracted for document %q", errs.ErrInvalidInput, doc.Title)
	}

	// ownership always comes from the verified identity, not the payload
	doc.TenantId = identity.TenantId
	doc.OwnerId = identity.UserId
	if doc.DepartmentId == "" {
		doc.DepartmentId = identity.DepartmentId
	}
	if doc.DivisionId == "" {
		doc.DivisionId = identity.DivisionId
	}
	if doc.Id == "" {
		doc.Id = utils.GetNewUUID()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.ContentHash = contentHash(doc.Text)

	log := s.logger.With(config.TRACE_ID_KEY, ctx.Value(config.TRACE_ID_KEY), "documentId", doc.Id)

	chunks, err := s.executeChunkingStep(doc)
	if err != nil {
		return IngestResult{}, err
	}
	log.Debug("document chunked", "chunkCount", len(chunks))

	vectors, err := s.executeBatchEmbeddingStep(ctx, chunks)
	if err != nil {
		return IngestResult{}, err
	}

	unlock := s.docLocks.lock(doc.Id)
	defer unlock()

	if err := s.executeReplaceStep(ctx, doc, chunks, vectors); err != nil {
		return IngestResult{}, err
	}

	log.Info("document ingested", "chunkCount", len(chunks))
	return IngestResult{DocumentId: doc.Id, ChunkCount: len(chunks)}, nil
}

// Search embeds the query, fetches scope-filtered candidates and ranks
// them. Zero results is a legitimate outcome, not an error.
func (s *service) Search(ctx context.Context, query string, identity commonModels.Identity, topK int, filter commonModels.CandidateFilter) ([]commonModels.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", errs.ErrInvalidInput)
	}

	accessScope := scope.Resolve(identity)
	if accessScope.DenyAll {
		return []commonModels.SearchResult{}, nil
	}

	queryVector, err := s.executeQueryEmbeddingStep(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := s.executeCandidateFetchStep(ctx, accessScope, filter, queryVector)
	if err != nil {
		return nil, err
	}

	return rank.Rank(query, queryVector, candidates, topK), nil
}

// Answer runs Search with the default budget and hands the ranked results
// to the composer. With zero candidates the composer answers without an
// LLM call.
func (s *service) Answer(ctx context.Context, question string, identity commonModels.Identity, filter commonModels.CandidateFilter) (answer.Result, error) {
	if strings.TrimSpace(question) == "" {
		return answer.Result{}, fmt.Errorf("%w: empty question", errs.ErrInvalidInput)
	}

	results, err := s.Search(ctx, question, identity, config.DefaultTopK, filter)
	if err != nil {
		return answer.Result{}, err
	}

	return s.executeAnswerStep(ctx, question, results)
}

// ProcessRequest is the worker entry point for answer jobs.
func (s *service) ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.With(config.TRACE_ID_KEY, job.TraceId, "JobId", job.Id)

	processContext, cancel := context.WithTimeout(ctx, config.AnswerJobTimeout)
	defer cancel()

	job = logOutput(job, jobModel.RetrievalCall, log)

	result, err := s.Answer(processContext, job.JobPayload.Question, job.Identity, commonModels.CandidateFilter{})
	if err != nil {
		return s.jobError(job, err, "ANSWER_FAILURE")
	}

	job.JobPayload.Answer = result.Answer
	job.JobPayload.Sources = result.Sources
	job.JobPayload.Context = result.Context
	job.CurrentStep = jobModel.Complete
	return job
}

// IngestDocument is the worker entry point for ingest jobs.
func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.With(config.TRACE_ID_KEY, job.TraceId, "JobId", job.Id)

	processContext, cancel := context.WithTimeout(ctx, config.IngestJobTimeout)
	defer cancel()

	job = logOutput(job, jobModel.IngestChunking, log)

	doc := commonModels.Document{
		Id:       job.JobPayload.DocumentId,
		Title:    job.JobPayload.DocumentTitle,
		Category: job.JobPayload.Category,
		Tags:     job.JobPayload.Tags,
		Text:     job.JobPayload.Text,
	}
	result, err := s.Ingest(processContext, doc, job.Identity)
	if err != nil {
		return s.jobError(job, err, "INGESTION_FAILURE")
	}

	// raw text has served its purpose, no reason to keep it in the store
	job.JobPayload.Text = ""
	job.JobPayload.DocumentId = result.DocumentId
	job.JobPayload.ChunkCount = result.ChunkCount
	job.CurrentStep = jobModel.Complete
	return job
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
