package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/domain/commonModels"
	"github.com/doclens/doclens/internal/rag/errs"
	"github.com/doclens/doclens/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingOutputDimensionality)
var collectionName = config.ChunkCollectionName

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQdrantClient(ctx context.Context) *ClientHolder {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient()
		if res != nil {
			qdrantInstance = res
			go closeQdrant(ctx, qdrantInstance)
		}
	})

	if qdrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: qdrantInstance,
	}
}

func newClient() *qdrant.Client {
	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}

	err = createCollection(context.Background(), client, collectionName)
	if err != nil {
		logger.Error("could not create collection: ", "collectionName", collectionName, "error:", err)
		return nil
	}

	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

// ReplaceDocument drops every stored point of the document, then upserts the
// new chunk set with Wait so the replacement is visible on return. The
// caller serializes concurrent ingests of the same document id.
func (db *ClientHolder) ReplaceDocument(ctx context.Context, doc commonModels.Document, chunks []commonModels.Chunk, vectors [][]float32, embeddingModel string) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: got %d chunks but %d vectors", errs.ErrStorage, len(chunks), len(vectors))
	}

	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Points:         qdrant.NewPointsSelectorFilter(documentFilter(doc.TenantId, doc.Id)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: delete before replace for document %s: %w", errs.ErrStorage, doc.Id, err)
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		tags := make([]any, 0, len(doc.Tags))
		for _, tag := range doc.Tags {
			tags = append(tags, tag)
		}

		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.Id),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":         chunk.Text,
				"chunk_id":        chunk.Id,
				"chunk_index":     int64(chunk.Index),
				"char_count":      int64(chunk.CharCount),
				"document_id":     doc.Id,
				"tenant_id":       doc.TenantId,
				"department_id":   doc.DepartmentId,
				"division_id":     doc.DivisionId,
				"owner_id":        doc.OwnerId,
				"doc_title":       doc.Title,
				"category":        doc.Category,
				"tags":            tags,
				"content_hash":    doc.ContentHash,
				"created_at":      doc.CreatedAt.Unix(),
				"embedding_model": embeddingModel,
			}),
		}
	}

	_, err = db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: upsert for document %s: %w", errs.ErrStorage, doc.Id, err)
	}
	return nil
}

// FetchCandidates runs a vector query constrained by the scope payload
// filter. Hybrid re-scoring happens in the ranker, so vectors travel back
// with each hit.
func (db *ClientHolder) FetchCandidates(ctx context.Context, scope commonModels.AccessScope, filter commonModels.CandidateFilter, queryVector []float32, limit int) ([]commonModels.Candidate, error) {
	loggr := logger.With(config.TRACE_ID_KEY, ctx.Value(config.TRACE_ID_KEY))

	if scope.DenyAll || scope.TenantId == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = config.CandidatePoolSize
	}

	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Filter:         scopeFilter(scope, filter),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, fmt.Errorf("%w: candidate fetch: %w", errs.ErrStorage, err)
	}

	candidates := make([]commonModels.Candidate, 0, len(result))
	for _, hit := range result {
		candidate := commonModels.Candidate{
			Chunk: commonModels.Chunk{
				Id:         hit.Payload["chunk_id"].GetStringValue(),
				DocumentId: hit.Payload["document_id"].GetStringValue(),
				Index:      int(hit.Payload["chunk_index"].GetIntegerValue()),
				Text:       hit.Payload["content"].GetStringValue(),
				CharCount:  int(hit.Payload["char_count"].GetIntegerValue()),
			},
			DocumentTitle:  hit.Payload["doc_title"].GetStringValue(),
			EmbeddingModel: hit.Payload["embedding_model"].GetStringValue(),
		}
		if v := hit.Vectors.GetVector(); v != nil {
			candidate.Vector = v.Data
		}
		candidates = append(candidates, candidate)
	}

	loggr.Debug("candidate fetch", "hits", len(candidates))
	return candidates, nil
}

func (db *ClientHolder) DeleteDocument(ctx context.Context, tenantId string, documentId string) error {
	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Points:         qdrant.NewPointsSelectorFilter(documentFilter(tenantId, documentId)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: delete document %s: %w", errs.ErrStorage, documentId, err)
	}
	return nil
}

func documentFilter(tenantId string, documentId string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("tenant_id", tenantId),
			qdrant.NewMatch("document_id", documentId),
		},
	}
}

// scopeFilter translates scope and the optional request filter into one AND
// condition set. The tenant constraint is always present; request filters
// only ever narrow what the scope allows.
func scopeFilter(scope commonModels.AccessScope, filter commonModels.CandidateFilter) *qdrant.Filter {
	must := []*qdrant.Condition{
		qdrant.NewMatch("tenant_id", scope.TenantId),
	}

	if scope.DepartmentId != "" {
		must = append(must, qdrant.NewMatch("department_id", scope.DepartmentId))
	}
	if scope.DivisionId != "" {
		must = append(must, qdrant.NewMatch("division_id", scope.DivisionId))
	}
	if scope.OwnerId != "" {
		must = append(must, qdrant.NewMatch("owner_id", scope.OwnerId))
	}

	if filter.DepartmentId != "" {
		must = append(must, qdrant.NewMatch("department_id", filter.DepartmentId))
	}
	if filter.DivisionId != "" {
		must = append(must, qdrant.NewMatch("division_id", filter.DivisionId))
	}
	if filter.Category != "" {
		must = append(must, qdrant.NewMatch("category", filter.Category))
	}
	for _, tag := range filter.Tags {
		must = append(must, qdrant.NewMatch("tags", tag))
	}
	if len(filter.DocumentIds) > 0 {
		must = append(must, qdrant.NewMatchKeywords("document_id", filter.DocumentIds...))
	}
	if !filter.CreatedAfter.IsZero() || !filter.CreatedBefore.IsZero() {
		createdRange := &qdrant.Range{}
		if !filter.CreatedAfter.IsZero() {
			createdRange.Gte = qdrant.PtrOf(float64(filter.CreatedAfter.Unix()))
		}
		if !filter.CreatedBefore.IsZero() {
			createdRange.Lte = qdrant.PtrOf(float64(filter.CreatedBefore.Unix()))
		}
		must = append(must, qdrant.NewRange("created_at", createdRange))
	}

	return &qdrant.Filter{Must: must}
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	return err
}
