package rag_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/domain/commonModels"
	"github.com/doclens/doclens/internal/domain/jobModel"
	"github.com/doclens/doclens/internal/rag"
	"github.com/doclens/doclens/internal/rag/answer"
	"github.com/doclens/doclens/internal/rag/errs"
	"github.com/doclens/doclens/internal/rag/vectorDB/memoryDB"
)

func memberIdentity() commonModels.Identity {
	return commonModels.Identity{
		UserId:   "user-1",
		TenantId: "tenant-1",
		Role:     commonModels.RoleMember,
	}
}

func newTestService(store *MockChunkStore, embedder *MockEmbedder, llm *MockLLM) rag.Service {
	return rag.NewService(store, embedder, answer.NewComposer(llm))
}

func TestSearch_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		identity    commonModels.Identity
		setupMocks  func(store *MockChunkStore, embedder *MockEmbedder)
		wantResults int
		wantErr     error
		wantFetches int
	}{
		{
			name:        "Success_Full_Flow",
			query:       "what is the policy",
			identity:    memberIdentity(),
			setupMocks:  func(store *MockChunkStore, embedder *MockEmbedder) {},
			wantResults: 1,
			wantFetches: 1,
		},
		{
			name:     "Empty_Tenant_Returns_Empty",
			query:    "anything",
			identity: memberIdentity(),
			setupMocks: func(store *MockChunkStore, embedder *MockEmbedder) {
				store.OnFetchCandidates = func(_ context.Context, _ commonModels.AccessScope, _ commonModels.CandidateFilter, _ []float32, _ int) ([]commonModels.Candidate, error) {
					return nil, nil
				}
			},
			wantResults: 0,
			wantFetches: 1,
		},
		{
			name:  "SuperAdmin_Never_Touches_Store",
			query: "anything",
			identity: commonModels.Identity{
				UserId:   "ops-1",
				TenantId: "tenant-1",
				Role:     commonModels.RoleSuperAdmin,
			},
			setupMocks:  func(store *MockChunkStore, embedder *MockEmbedder) {},
			wantResults: 0,
			wantFetches: 0,
		},
		{
			name:       "Empty_Query_Rejected",
			query:      "   ",
			identity:   memberIdentity(),
			setupMocks: func(store *MockChunkStore, embedder *MockEmbedder) {},
			wantErr:    errs.ErrInvalidInput,
		},
		{
			name:     "Failure_Embedding",
			query:    "what is the policy",
			identity: memberIdentity(),
			setupMocks: func(store *MockChunkStore, embedder *MockEmbedder) {
				embedder.OnGetEmbedding = func(_ context.Context, _ string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			wantErr: errs.ErrUnavailable,
		},
		{
			name:     "Failure_Store",
			query:    "what is the policy",
			identity: memberIdentity(),
			setupMocks: func(store *MockChunkStore, embedder *MockEmbedder) {
				store.OnFetchCandidates = func(_ context.Context, _ commonModels.AccessScope, _ commonModels.CandidateFilter, _ []float32, _ int) ([]commonModels.Candidate, error) {
					return nil, errs.ErrStorage
				}
			},
			wantErr: errs.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockChunkStore{}
			embedder := &MockEmbedder{}
			tt.setupMocks(store, embedder)

			s := newTestService(store, embedder, &MockLLM{})
			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

			results, err := s.Search(ctx, tt.query, tt.identity, 5, commonModels.CandidateFilter{})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(results) != tt.wantResults {
				t.Errorf("got %d results, want %d", len(results), tt.wantResults)
			}
			if store.FetchCalls != tt.wantFetches {
				t.Errorf("store fetched %d times, want %d", store.FetchCalls, tt.wantFetches)
			}
		})
	}
}

func TestSearchScopePassedToStore(t *testing.T) {
	store := &MockChunkStore{}
	var gotScope commonModels.AccessScope
	store.OnFetchCandidates = func(_ context.Context, scope commonModels.AccessScope, _ commonModels.CandidateFilter, _ []float32, _ int) ([]commonModels.Candidate, error) {
		gotScope = scope
		return nil, nil
	}

	s := newTestService(store, &MockEmbedder{}, &MockLLM{})
	identity := commonModels.Identity{
		UserId:       "user-7",
		TenantId:     "tenant-9",
		DepartmentId: "sales",
		Role:         commonModels.RoleDeptManager,
	}

	if _, err := s.Search(context.Background(), "pipeline report", identity, 5, commonModels.CandidateFilter{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotScope.TenantId != "tenant-9" || gotScope.DepartmentId != "sales" || gotScope.OwnerId != "" {
		t.Errorf("store saw scope %+v, want tenant-9/sales without owner", gotScope)
	}
}

func TestAnswer_Scenarios(t *testing.T) {
	t.Run("No_Candidates_Skips_LLM", func(t *testing.T) {
		store := &MockChunkStore{}
		store.OnFetchCandidates = func(_ context.Context, _ commonModels.AccessScope, _ commonModels.CandidateFilter, _ []float32, _ int) ([]commonModels.Candidate, error) {
			return nil, nil
		}
		llm := &MockLLM{}

		s := newTestService(store, &MockEmbedder{}, llm)
		result, err := s.Answer(context.Background(), "what is the policy?", memberIdentity(), commonModels.CandidateFilter{})
		if err != nil {
			t.Fatalf("Answer: %v", err)
		}
		if result.Answer != config.NoContentAnswer {
			t.Errorf("Answer = %q, want the fixed no-content answer", result.Answer)
		}
		if llm.Calls != 0 {
			t.Errorf("LLM called %d times with zero candidates", llm.Calls)
		}
	})

	t.Run("Success_With_Sources", func(t *testing.T) {
		llm := &MockLLM{
			OnGenerate: func(_ context.Context, _ string, contextBlock string) (string, error) {
				if !strings.Contains(contextBlock, "default context") {
					t.Errorf("context missing chunk text: %q", contextBlock)
				}
				return "final answer", nil
			},
		}

		s := newTestService(&MockChunkStore{}, &MockEmbedder{}, llm)
		result, err := s.Answer(context.Background(), "what is the policy?", memberIdentity(), commonModels.CandidateFilter{})
		if err != nil {
			t.Fatalf("Answer: %v", err)
		}
		if result.Answer != "final answer" {
			t.Errorf("Answer = %q", result.Answer)
		}
		if len(result.Sources) != 1 || result.Sources[0] != "doc-1" {
			t.Errorf("Sources = %v, want [doc-1]", result.Sources)
		}
	})

	t.Run("Failure_LLM", func(t *testing.T) {
		llm := &MockLLM{
			OnGenerate: func(_ context.Context, _ string, _ string) (string, error) {
				return "", errors.New("provider down")
			},
		}

		s := newTestService(&MockChunkStore{}, &MockEmbedder{}, llm)
		_, err := s.Answer(context.Background(), "what is the policy?", memberIdentity(), commonModels.CandidateFilter{})
		if !errors.Is(err, errs.ErrUnavailable) {
			t.Errorf("got %v, want ErrUnavailable", err)
		}
		if llm.Calls != 1 {
			t.Errorf("LLM called %d times, want exactly 1 with no retry", llm.Calls)
		}
	})
}

func TestIngest_Scenarios(t *testing.T) {
	docText := "A reasonably sized paragraph describing the travel reimbursement policy in enough detail to chunk."

	t.Run("Success", func(t *testing.T) {
		store := &MockChunkStore{}
		var storedDoc commonModels.Document
		var storedChunks []commonModels.Chunk
		var storedModel string
		store.OnReplaceDocument = func(_ context.Context, doc commonModels.Document, chunks []commonModels.Chunk, vectors [][]float32, embeddingModel string) error {
			storedDoc = doc
			storedChunks = chunks
			storedModel = embeddingModel
			if len(chunks) != len(vectors) {
				t.Errorf("chunk/vector mismatch: %d vs %d", len(chunks), len(vectors))
			}
			return nil
		}

		s := newTestService(store, &MockEmbedder{}, &MockLLM{})
		doc := commonModels.Document{Title: "Travel Policy", Text: docText, TenantId: "spoofed-tenant"}

		result, err := s.Ingest(context.Background(), doc, memberIdentity())
		if err != nil {
			t.Fatalf("Ingest: %v", err)
		}
		if result.ChunkCount == 0 || result.DocumentId == "" {
			t.Errorf("empty result: %+v", result)
		}
		if storedDoc.TenantId != "tenant-1" || storedDoc.OwnerId != "user-1" {
			t.Errorf("ownership not taken from identity: %+v", storedDoc)
		}
		if storedDoc.ContentHash == "" {
			t.Error("content hash not recorded")
		}
		if storedModel != "mock-model" {
			t.Errorf("embedding model = %q", storedModel)
		}
		for i, chunk := range storedChunks {
			if chunk.Index != i || chunk.DocumentId != result.DocumentId || chunk.Id == "" {
				t.Errorf("chunk %d malformed: %+v", i, chunk)
			}
		}
	})

	t.Run("Empty_Text_Rejected", func(t *testing.T) {
		s := newTestService(&MockChunkStore{}, &MockEmbedder{}, &MockLLM{})
		_, err := s.Ingest(context.Background(), commonModels.Document{Title: "Empty"}, memberIdentity())
		if !errors.Is(err, errs.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("SuperAdmin_Cannot_Ingest", func(t *testing.T) {
		s := newTestService(&MockChunkStore{}, &MockEmbedder{}, &MockLLM{})
		identity := commonModels.Identity{UserId: "ops", TenantId: "tenant-1", Role: commonModels.RoleSuperAdmin}
		_, err := s.Ingest(context.Background(), commonModels.Document{Title: "Doc", Text: docText}, identity)
		if !errors.Is(err, errs.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("Failure_Embedding", func(t *testing.T) {
		embedder := &MockEmbedder{
			OnBatchEmbedding: func(_ context.Context, _ []string) ([][]float32, error) {
				return nil, errors.New("api limit")
			},
		}
		s := newTestService(&MockChunkStore{}, embedder, &MockLLM{})
		_, err := s.Ingest(context.Background(), commonModels.Document{Title: "Doc", Text: docText}, memberIdentity())
		if !errors.Is(err, errs.ErrUnavailable) {
			t.Errorf("got %v, want ErrUnavailable", err)
		}
	})

	t.Run("Failure_Store", func(t *testing.T) {
		store := &MockChunkStore{}
		store.OnReplaceDocument = func(_ context.Context, _ commonModels.Document, _ []commonModels.Chunk, _ [][]float32, _ string) error {
			return errs.ErrStorage
		}
		s := newTestService(store, &MockEmbedder{}, &MockLLM{})
		_, err := s.Ingest(context.Background(), commonModels.Document{Title: "Doc", Text: docText}, memberIdentity())
		if !errors.Is(err, errs.ErrStorage) {
			t.Errorf("got %v, want ErrStorage", err)
		}
	})
}

func TestProcessRequest_JobLifecycle(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestService(&MockChunkStore{}, &MockEmbedder{}, &MockLLM{})
		job := jobModel.Job{
			Id:         "job-1",
			JobType:    jobModel.JobTypeAnswer,
			Identity:   memberIdentity(),
			JobPayload: jobModel.JobPayload{Question: "test question"},
		}

		result := s.ProcessRequest(context.Background(), job)
		if result.CurrentStep != jobModel.Complete {
			t.Errorf("CurrentStep = %v, want Complete", result.CurrentStep)
		}
		if result.JobPayload.Answer != "mocked llm response" {
			t.Errorf("Answer = %q", result.JobPayload.Answer)
		}
		if result.JobPayload.Context == "" {
			t.Error("context not recorded on the job")
		}
	})

	t.Run("Invalid_Input_Not_Retryable", func(t *testing.T) {
		s := newTestService(&MockChunkStore{}, &MockEmbedder{}, &MockLLM{})
		job := jobModel.Job{Id: "job-2", JobType: jobModel.JobTypeAnswer, Identity: memberIdentity()}

		result := s.ProcessRequest(context.Background(), job)
		if result.Status != jobModel.JobStatusError {
			t.Fatalf("Status = %v, want Error", result.Status)
		}
		if result.Error.Code != http.StatusBadRequest || result.Error.Retry {
			t.Errorf("Error = %+v, want 400 without retry", result.Error)
		}
	})

	t.Run("Unavailable_Is_Retryable", func(t *testing.T) {
		embedder := &MockEmbedder{
			OnGetEmbedding: func(_ context.Context, _ string) ([]float32, error) {
				return nil, errors.New("timeout")
			},
		}
		s := newTestService(&MockChunkStore{}, embedder, &MockLLM{})
		job := jobModel.Job{
			Id:         "job-3",
			JobType:    jobModel.JobTypeAnswer,
			Identity:   memberIdentity(),
			JobPayload: jobModel.JobPayload{Question: "q"},
		}

		result := s.ProcessRequest(context.Background(), job)
		if result.Status != jobModel.JobStatusError {
			t.Fatalf("Status = %v, want Error", result.Status)
		}
		if result.Error.Code != http.StatusServiceUnavailable || !result.Error.Retry {
			t.Errorf("Error = %+v, want 503 with retry", result.Error)
		}
	})
}

func TestIngestDocument_JobLifecycle(t *testing.T) {
	s := newTestService(&MockChunkStore{}, &MockEmbedder{}, &MockLLM{})
	job := jobModel.Job{
		Id:       "ingest-job-1",
		JobType:  jobModel.JobTypeIngest,
		Identity: memberIdentity(),
		JobPayload: jobModel.JobPayload{
			DocumentTitle: "Travel Policy",
			Text:          "Enough text to produce at least one chunk for the travel policy document.",
		},
	}

	result := s.IngestDocument(context.Background(), job)
	if result.CurrentStep != jobModel.Complete {
		t.Fatalf("CurrentStep = %v, want Complete (error: %+v)", result.CurrentStep, result.Error)
	}
	if result.JobPayload.ChunkCount == 0 || result.JobPayload.DocumentId == "" {
		t.Errorf("payload not filled: %+v", result.JobPayload)
	}
	if result.JobPayload.Text != "" {
		t.Error("raw text still attached to the finished job")
	}
}

// two tenants sharing a department name must never see each other's chunks,
// and a manager of one department must not reach another department in the
// same tenant
func TestEndToEndScopeIsolation(t *testing.T) {
	store := memoryDB.NewStore()
	embedder := &MockEmbedder{}
	llm := &MockLLM{}
	s := rag.NewService(store, embedder, answer.NewComposer(llm))

	ingest := func(identity commonModels.Identity, title string) {
		t.Helper()
		_, err := s.Ingest(context.Background(), commonModels.Document{
			Title: title,
			Text:  "The " + title + " document explains the internal escalation policy in detail.",
		}, identity)
		if err != nil {
			t.Fatalf("Ingest %s: %v", title, err)
		}
	}

	ingest(commonModels.Identity{UserId: "a1", TenantId: "tenant-a", DepartmentId: "sales", Role: commonModels.RoleMember}, "Tenant A Sales")
	ingest(commonModels.Identity{UserId: "b1", TenantId: "tenant-b", DepartmentId: "sales", Role: commonModels.RoleMember}, "Tenant B Sales")
	ingest(commonModels.Identity{UserId: "a2", TenantId: "tenant-a", DepartmentId: "hr", Role: commonModels.RoleMember}, "Tenant A HR")

	tenantAdmin := commonModels.Identity{UserId: "admin-a", TenantId: "tenant-a", Role: commonModels.RoleTenantAdmin}
	results, err := s.Search(context.Background(), "escalation policy", tenantAdmin, 20, commonModels.CandidateFilter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("tenant admin saw %d results, want the 2 tenant-a documents", len(results))
	}
	for _, r := range results {
		if strings.Contains(r.DocumentTitle, "Tenant B") {
			t.Errorf("cross-tenant leak: %q", r.DocumentTitle)
		}
	}

	// manager of hr querying while sales documents exist in the same tenant
	hrManager := commonModels.Identity{UserId: "mgr", TenantId: "tenant-a", DepartmentId: "hr", Role: commonModels.RoleDeptManager}
	hrResults, err := s.Search(context.Background(), "escalation policy", hrManager, 20, commonModels.CandidateFilter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hrResults) != 1 || hrResults[0].DocumentTitle != "Tenant A HR" {
		t.Errorf("hr manager results = %+v, want only the hr document", hrResults)
	}

	// and the composer path answers from nothing without an LLM call
	salesManagerOfEmptyDept := commonModels.Identity{UserId: "mgr2", TenantId: "tenant-a", DepartmentId: "legal", Role: commonModels.RoleDeptManager}
	answerResult, err := s.Answer(context.Background(), "escalation policy", salesManagerOfEmptyDept, commonModels.CandidateFilter{})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answerResult.Answer != config.NoContentAnswer || llm.Calls != 0 {
		t.Errorf("empty-department answer = %q with %d LLM calls", answerResult.Answer, llm.Calls)
	}
}
