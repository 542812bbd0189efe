package jobModel

import (
	"context"
	"time"

	"github.com/doclens/doclens/internal/domain/commonModels"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	QueryInit        InternalStatus = "Init"
	RetrievalCall    InternalStatus = "Retrieval"
	LLMCall          InternalStatus = "LLM"
	VectorDBCall     InternalStatus = "VectorDB"
	EmbeddingAPICall InternalStatus = "EmbeddingAPI"

	IngestInit       InternalStatus = "IngestInit"
	IngestChunking   InternalStatus = "IngestChunking"
	IngestProcessing InternalStatus = "IngestProcessing"
	Error            InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeAnswer JobType = "Answer"
	JobTypeIngest JobType = "Ingest"
)

// Job tracks one unit of asynchronous work through the pipeline: either a
// document ingestion or an answer generation. It doubles as the persisted
// status record, so an ingestion failure is always visible with its reason
// instead of hanging in a processing state.
type Job struct {
	Id          string                 `json:"id"`
	TraceId     string                 `json:"trace_id"`
	JobType     JobType                `json:"job_type"`
	Identity    commonModels.Identity  `json:"identity"`
	JobPayload  JobPayload             `json:"job_payload"`
	Error       JobError               `json:"error,omitempty"`
	CreatedTime time.Time              `json:"created_time"`
	EndTime     time.Time              `json:"end_time,omitempty"`
	Status      JobStatus              `json:"status"`
	CurrentStep InternalStatus         `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Question string   `json:"question,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Sources  []string `json:"sources,omitempty"`
	Context  string   `json:"context,omitempty"`

	DocumentId    string   `json:"document_id,omitempty"`
	DocumentTitle string   `json:"document_title,omitempty"`
	Category      string   `json:"category,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	IngestURL     string   `json:"ingest_url,omitempty"`
	ChunkCount    int      `json:"chunk_count,omitempty"`

	// extracted document text, carried only while the ingest job is queued
	// and cleared once chunks are stored
	Text string `json:"text,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
