package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doclens/doclens/internal/adapter"
	"github.com/doclens/doclens/internal/adapter/utils"
	"github.com/doclens/doclens/internal/api"
	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/domain/jobModel"
	"github.com/doclens/doclens/internal/rag/ingest"
	"github.com/doclens/doclens/pkg/logger_i"
)

var logRH *logger_i.Logger

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	return
}

// AnswerHandler accepts a question, queues a background answer job and
// returns the job id to poll.
func AnswerHandler(w http.ResponseWriter, request *http.Request) {

	if validateContext(request.Context()) {

		identity, ok := identityFromRequest(request)
		if !ok {
			WriteErrorResponse(w, http.StatusBadRequest, "", "missing tenant or user identity headers")
			return
		}

		var requestData api.AnswerRequest
		defer func(Body io.ReadCloser) {
			err := Body.Close()
			if err != nil {
				logRH.Error("Couldn't close the Answer handler reader :", err)
			}
		}(request.Body)
		if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || strings.TrimSpace(requestData.Question) == "" {
			logRH.Warn("Bad Answer Request: ", "error:", err, "request data:", requestData)
			WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
			return
		}

		newJob := newJobData{
			id:       utils.GetNewUUID(),
			traceId:  request.Context().Value(config.TRACE_ID_KEY).(string),
			jobType:  jobModel.JobTypeAnswer,
			identity: identity,
			question: requestData.Question,
		}
		CreateNewJob(newJob)
		writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
		return
	}
	logRH.Warn("Invalid Context by request ", request.RemoteAddr)
}

// SearchHandler runs a synchronous scoped search and returns the ranked
// chunks. Zero results is a normal 200, not an error.
func SearchHandler(w http.ResponseWriter, request *http.Request) {

	if validateContext(request.Context()) {

		identity, ok := identityFromRequest(request)
		if !ok {
			WriteErrorResponse(w, http.StatusBadRequest, "", "missing tenant or user identity headers")
			return
		}

		var requestData api.SearchRequest
		defer func(Body io.ReadCloser) {
			err := Body.Close()
			if err != nil {
				logRH.Error("Couldn't close the Search handler reader :", err)
			}
		}(request.Body)
		if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || strings.TrimSpace(requestData.Query) == "" {
			logRH.Warn("Bad Search Request: ", "error:", err)
			WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
			return
		}

		filter, err := toCandidateFilter(requestData)
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "created_after/created_before must be RFC3339 timestamps")
			return
		}

		results, err := handlerInstance.ragService.Search(request.Context(), requestData.Query, identity, requestData.TopK, filter)
		if err != nil {
			logRH.Error("Search failed", "err", err)
			WriteErrorResponse(w, httpCodeForServiceError(err), "", "Search failed")
			return
		}

		writeJsonResponse(w, http.StatusOK, adapter.ToSearchResponse(results))
		return
	}
	logRH.Warn("Invalid Context by request ", request.RemoteAddr)
}

// GetStatusHandler retrieves the current status of a job by its id.
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := utils.GetChiURLParam(r, "id")
		result, isFound := validateId(idString, r.Context().Value(config.TRACE_ID_KEY).(string))

		logRH.Debug("Get Status Request:", "URL path", r.URL.Path)
		if !isFound {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
			return
		}

		writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
	}
}

// PostIngestHandler receives a document via multipart/form-data, extracts
// its text and queues an ingestion job. The uploaded file is only needed
// until extraction finishes.
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {

		identity, ok := identityFromRequest(r)
		if !ok {
			WriteErrorResponse(w, http.StatusBadRequest, "", "missing tenant or user identity headers")
			return
		}

		targetDir, errString := getTargetDirectory()
		if errString != "" {
			logRH.Error("Couldn't get target directory :", "err", errString)
			WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
			return
		}

		const maxUploadSize = 32 << 20 //32mb
		err := r.ParseMultipartForm(maxUploadSize)
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
			return
		}

		title := r.FormValue("title")
		if title == "" {
			WriteErrorResponse(w, http.StatusBadRequest, "", "title is required")
			return
		}
		category := r.FormValue("category")
		var tags []string
		if raw := r.FormValue("tags"); raw != "" {
			for _, tag := range strings.Split(raw, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					tags = append(tags, tag)
				}
			}
		}

		fileReader, fileMetadata, err := r.FormFile("document")
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, title, "Could not retrieve file")
			return
		}
		defer fileReader.Close()

		filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
		tempFilePath := filepath.Join(targetDir, filename)
		destinationFileWriter, err := os.Create(tempFilePath)
		if err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, title, "Storage error")
			return
		}

		if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
			destinationFileWriter.Close()
			WriteErrorResponse(w, http.StatusInternalServerError, title, "Write error")
			return
		}
		destinationFileWriter.Close()

		text, err := ingest.ExtractText(tempFilePath)
		if removeErr := os.Remove(tempFilePath); removeErr != nil {
			logRH.Warn("Couldn't remove uploaded file", "path", tempFilePath, "err", removeErr)
		}
		if err != nil {
			logRH.Error("Text extraction failed", "file", fileMetadata.Filename, "err", err)
			WriteErrorResponse(w, httpCodeForServiceError(err), title, "Could not extract text from document")
			return
		}

		newJob := newJobData{
			id:             utils.GetNewUUID(),
			traceId:        r.Context().Value(config.TRACE_ID_KEY).(string),
			jobType:        jobModel.JobTypeIngest,
			identity:       identity,
			documentId:     r.FormValue("document_id"),
			documentTitle:  title,
			category:       category,
			tags:           tags,
			documentSource: fileMetadata.Filename,
			documentText:   text,
		}
		CreateNewJob(newJob)
		writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}
