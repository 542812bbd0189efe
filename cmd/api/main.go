package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/data/store"
	jobmodel "github.com/doclens/doclens/internal/domain/jobModel"
	"github.com/doclens/doclens/internal/handlers"
	"github.com/doclens/doclens/internal/job"
	"github.com/doclens/doclens/internal/rag"
	"github.com/doclens/doclens/internal/rag/answer"
	"github.com/doclens/doclens/internal/rag/embedding"
	"github.com/doclens/doclens/internal/rag/embedding/googleEmbedding"
	"github.com/doclens/doclens/internal/rag/embedding/openaiEmbedding"
	"github.com/doclens/doclens/internal/rag/llm/gemini"
	"github.com/doclens/doclens/internal/rag/vectorDB"
	"github.com/doclens/doclens/internal/rag/vectorDB/memoryDB"
	"github.com/doclens/doclens/internal/rag/vectorDB/qdrantDB"
	"github.com/doclens/doclens/internal/server"
	"github.com/doclens/doclens/internal/worker"
	"github.com/doclens/doclens/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          store.GetRedisJobStore(serviceContext),
	}
	logger.Info("Starting job service")

	if serviceConfig.JobStore == nil {
		logger.Error("Redis job store is offline, falling back to in-memory store")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
	}
	service := job.InitJobService(serviceConfig)

	embeddingProvider := buildEmbeddingProvider(serviceContext, logger)
	llmProvider := gemini.GetGeminiClient(serviceContext, config.GeminiModelName, config.GeminiAPIKey)

	if embeddingProvider == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "EmbeddingProvider", embeddingProvider != nil, "LLMProvider", llmProvider != nil)
		return
	}

	var chunkStore vectorDB.ChunkStore
	if qdrantClient := qdrantDB.GetQdrantClient(serviceContext); qdrantClient != nil {
		chunkStore = qdrantClient
	} else {
		logger.Error("Qdrant is offline, falling back to the in-memory chunk store")
		chunkStore = memoryDB.NewStore()
	}

	ragService := rag.NewService(chunkStore, embedding.NewGateway(embeddingProvider), answer.NewComposer(llmProvider))

	handlers.InitJobHandler(service, ragService)

	//init worker pool
	worker.InitServices(service, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

func buildEmbeddingProvider(ctx context.Context, logger *logger_i.Logger) embedding.Embedder {
	switch config.EmbeddingsProvider {
	case "openai":
		logger.Info("Using OpenAI embeddings", "model", config.OpenAIEmbeddingModel)
		return openaiEmbedding.GetOpenAIEmbeddingClient(config.OpenAIEmbeddingModel, config.OpenAIAPIKey)
	default:
		logger.Info("Using Google embeddings", "model", config.GoogleEmbeddingModel)
		return googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, config.GeminiAPIKey)
	}
}
