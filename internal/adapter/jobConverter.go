package adapter

import (
	"fmt"
	"time"

	"github.com/doclens/doclens/internal/api"
	"github.com/doclens/doclens/internal/domain/commonModels"
	"github.com/doclens/doclens/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status: string(job.Status),
	}
	switch job.JobType {
	case jobModel.JobTypeAnswer:
		result.AnswerResponse = toAnswerResponse(job.JobPayload)
	case jobModel.JobTypeIngest:
		result.IngestResponse = toIngestResponse(job.JobPayload)
	}

	return api.JobResponse{
		Id:        job.Id,
		JobType:   string(job.JobType),
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func toAnswerResponse(payload jobModel.JobPayload) *api.AnswerResponse {
	if payload.Answer == "" && len(payload.Sources) == 0 {
		return nil
	}
	return &api.AnswerResponse{
		Question: payload.Question,
		Answer:   payload.Answer,
		Sources:  payload.Sources,
		Context:  payload.Context,
	}
}

func toIngestResponse(payload jobModel.JobPayload) *api.IngestResponse {
	if payload.DocumentId == "" {
		return nil
	}
	return &api.IngestResponse{
		DocumentId: payload.DocumentId,
		ChunkCount: payload.ChunkCount,
	}
}

func ToSearchResponse(results []commonModels.SearchResult) api.SearchResponse {
	items := make([]api.SearchResultItem, 0, len(results))
	for _, r := range results {
		items = append(items, api.SearchResultItem{
			ChunkId:       r.Chunk.Id,
			DocumentId:    r.DocumentId,
			DocumentTitle: r.DocumentTitle,
			ChunkIndex:    r.Chunk.Index,
			Content:       r.Chunk.Text,
			Score:         r.Score,
		})
	}
	return api.SearchResponse{Results: items}
}

func BadRequest(id string, message string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: message,
			Retry:   false,
		},
	}
}
