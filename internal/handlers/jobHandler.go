package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/domain/commonModels"
	"github.com/doclens/doclens/internal/domain/jobModel"
	"github.com/doclens/doclens/internal/job"
	"github.com/doclens/doclens/internal/metrics"
	"github.com/doclens/doclens/internal/rag"
	"github.com/doclens/doclens/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service    *job.Service
	ragService rag.Service
}

func InitJobHandler(jobService *job.Service, ragService rag.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService, ragService: ragService}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})

}

func CreateNewJob(newJob newJobData) {
	logJH.With("traceId", newJob.traceId, "job id", newJob.id)
	logJH.Info("To create new job")
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {

	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued
	_job.Identity = newJob.identity

	if newJob.jobType == jobModel.JobTypeIngest {
		_job.CurrentStep = jobModel.IngestInit
		_job.JobType = jobModel.JobTypeIngest
		_job.JobPayload.DocumentId = newJob.documentId
		_job.JobPayload.DocumentTitle = newJob.documentTitle
		_job.JobPayload.Category = newJob.category
		_job.JobPayload.Tags = newJob.tags
		_job.JobPayload.IngestURL = newJob.documentSource
		_job.JobPayload.Text = newJob.documentText

	} else {
		_job.JobType = jobModel.JobTypeAnswer
		_job.JobPayload.Question = newJob.question
		_job.CurrentStep = jobModel.QueryInit
	}

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //this is a blocking send to prevent the system from being overwhelmed
	logJH.Info("Created new job")

	//a new worker is started every 10 requests, and always for an ingest job:
	//ingestion is batch work against external model APIs and should not make
	//queued answer jobs wait behind it
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1) //after sending a request increment counter
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType == jobModel.JobTypeIngest {
		metrics.StartDispatcherSignalCount() //metrics
		logJH.Debug("Worker count ", accurateCount)
		h.service.DispatcherChannel <- true
	}
}

type newJobData struct {
	id             string
	traceId        string
	jobType        jobModel.JobType
	identity       commonModels.Identity
	question       string
	documentId     string
	documentTitle  string
	category       string
	tags           []string
	documentSource string
	documentText   string
}
