package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//chunking
	ChunkTargetSize = 800
	ChunkOverlap    = 100

	//hybrid ranking
	SemanticWeight    = 0.75
	LexicalWeight     = 0.25
	RelevanceFloor    = 0.35
	MinTopK           = 1
	MaxTopK           = 20
	DefaultTopK       = 5
	CandidatePoolSize = 50

	//answer composition
	MaxContextChars = 8000
	NoContentAnswer = "No matching documents were found for your question."

	EmbeddingOutputDimensionality int32 = 1536
	EmbeddingCacheTTL                   = 1 * time.Hour
	EmbeddingCacheMaxEntries            = 4096
	EmbeddingBatchSize                  = 100

	ChunkCollectionName = "doc-chunks"

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = ""
	QdrantPort              = 6333 //http
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1

	//remote model calls
	EmbeddingCallTimeout = 30 * time.Second
	EmbeddingRetryDelay  = 5 * time.Second
	LLMCallTimeout       = 45 * time.Second

	//end-to-end job budgets
	AnswerJobTimeout = 90 * time.Second
	IngestJobTimeout = 5 * time.Minute

	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel = "gemini-embedding-001"
	OpenAIEmbeddingModel = "text-embedding-3-small"

	//system contract for answer generation: the model may only use the
	//supplied context, must admit when it cannot answer, and must cite the
	//bracketed document ids it drew from
	AnswerSystemContract = "You answer questions using only the context supplied in the prompt. " +
		"Respond in the same language the question was asked in. " +
		"If the context does not contain the answer, say so explicitly instead of guessing. " +
		"Cite the documents you used by the bracketed id that prefixes each context block."

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore = 0

	//redis timeouts
	RedisJobStoreTTL = 24 * time.Hour
)
