package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	JobType   string            `json:"job_type" example:"Answer"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type AnswerResponse struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
	Context  string   `json:"context,omitempty"`
}

type IngestResponse struct {
	DocumentId string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

type Result struct {
	Status         string          `json:"status"`
	AnswerResponse *AnswerResponse `json:"answer_response,omitempty"`
	IngestResponse *IngestResponse `json:"ingest_response,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type SearchResultItem struct {
	ChunkId       string  `json:"chunk_id"`
	DocumentId    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	ChunkIndex    int     `json:"chunk_index"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
}

type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// requests---------------------

type AnswerRequest struct {
	Question string `json:"question" validate:"required"`
}

type SearchRequest struct {
	Query         string   `json:"query" validate:"required"`
	TopK          int      `json:"top_k,omitempty"`
	DepartmentId  string   `json:"department_id,omitempty"`
	DivisionId    string   `json:"division_id,omitempty"`
	Category      string   `json:"category,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	CreatedAfter  string   `json:"created_after,omitempty"`
	CreatedBefore string   `json:"created_before,omitempty"`
	DocumentIds   []string `json:"document_ids,omitempty"`
}

type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}

type IngestDocumentRequest struct {
	Title    string   `json:"title" validate:"required"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}
