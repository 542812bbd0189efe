package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doclens/doclens/internal/adapter"
	"github.com/doclens/doclens/internal/api"
	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/domain/commonModels"
	"github.com/doclens/doclens/internal/domain/jobModel"
	"github.com/doclens/doclens/internal/rag/errs"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response: %v", err)
	}
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID")
		return jobModel.Job{}, false
	}
	return GetJobStatus(id, traceId)
}

func validateContext(ctx context.Context) bool {
	logRH.With("traceId:", ctx.Value(config.TRACE_ID_KEY).(string))
	if ctx.Err() != nil {
		logRH.Warn("context error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logRH.Warn("context cancelled")
		return false
	default:
		return true

	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

func getTargetDirectory() (string, string) {
	root, err := os.Getwd()
	if err != nil {
		return "", "Storage Error"
	}

	targetDir := filepath.Join(root, "temporary_data")
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", "Storage Error"
	}
	return targetDir, ""
}

// identityFromRequest reads the caller identity the upstream auth gateway
// attaches as headers. Tenant and user are mandatory; an unknown or empty
// role is left as-is and resolved downstream with least privilege.
func identityFromRequest(r *http.Request) (commonModels.Identity, bool) {
	identity := commonModels.Identity{
		UserId:       strings.TrimSpace(r.Header.Get("X-User-Id")),
		TenantId:     strings.TrimSpace(r.Header.Get("X-Tenant-Id")),
		DepartmentId: strings.TrimSpace(r.Header.Get("X-Department-Id")),
		DivisionId:   strings.TrimSpace(r.Header.Get("X-Division-Id")),
		Role:         commonModels.Role(strings.TrimSpace(r.Header.Get("X-Role"))),
	}
	if identity.TenantId == "" || identity.UserId == "" {
		return identity, false
	}
	return identity, true
}

// toCandidateFilter converts the wire-level search request into the domain
// filter. Bad timestamps are an input error, not something to silently drop.
func toCandidateFilter(req api.SearchRequest) (commonModels.CandidateFilter, error) {
	filter := commonModels.CandidateFilter{
		DepartmentId: req.DepartmentId,
		DivisionId:   req.DivisionId,
		Category:     req.Category,
		Tags:         req.Tags,
		DocumentIds:  req.DocumentIds,
	}
	if req.CreatedAfter != "" {
		t, err := time.Parse(time.RFC3339, req.CreatedAfter)
		if err != nil {
			return filter, err
		}
		filter.CreatedAfter = t
	}
	if req.CreatedBefore != "" {
		t, err := time.Parse(time.RFC3339, req.CreatedBefore)
		if err != nil {
			return filter, err
		}
		filter.CreatedBefore = t
	}
	return filter, nil
}

func httpCodeForServiceError(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
