// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/the-hive/internal/chunk"
	"github.com/the-hive/internal/config"
	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/embeddings"
	"github.com/the-hive/internal/eventbus"
	"github.com/the-hive/internal/indexer"
	"github.com/the-hive/internal/logger"
	"github.com/the-hive/internal/objectstore"
	"github.com/the-hive/internal/parser"
	"github.com/the-hive/internal/vectordb"
)

func main() {
	logFile := "indexing-worker.log"
	if _, err := logger.Init(logFile); err != nil {
		logger.Printf("failed to initialize logger: %v, using stdout only", err)
	}

	if err := godotenv.Load(); err != nil {
		logger.Printf("no .env file found, using environment variables: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		logger.Fatalf("failed to open sqlite database: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logger.Fatalf("failed to enable foreign keys: %v", err)
	}

	docs, err := database.NewDocumentStore(db)
	if err != nil {
		logger.Fatalf("failed to init document store: %v", err)
	}
	sources, err := database.NewSourceStore(db)
	if err != nil {
		logger.Fatalf("failed to init source store: %v", err)
	}

	blobs, err := objectstore.New(ctx, cfg.Blob)
	if err != nil {
		logger.Fatalf("failed to init blob gateway: %v", err)
	}

	var vectorDB vectordb.VectorDB
	qdrantConn, err := grpc.Dial(cfg.Vector.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Printf("warning: failed to connect to Qdrant: %v, using mock vector DB", err)
		vectorDB = vectordb.NewMockVectorDB()
	} else {
		defer qdrantConn.Close()
		_ = qdrant.NewQdrantClient(qdrantConn)
		vdb, err := vectordb.NewQdrantVectorDB(qdrantConn, cfg.Vector.Collection, cfg.Vector.Dimension)
		if err != nil {
			logger.Printf("warning: failed to init vector db: %v, using mock vector DB", err)
			vectorDB = vectordb.NewMockVectorDB()
		} else {
			vectorDB = vdb
			logger.Printf("connected to Qdrant at %s", cfg.Vector.Addr)
		}
	}

	embedder := initEmbedder(cfg.Embeddings)

	redisClient, err := config.NewRedisClient(ctx)
	if err != nil {
		logger.Fatalf("failed to connect to Redis: %v", err)
	}
	consumer, err := eventbus.NewConsumer(ctx, redisClient, cfg.Bus.Stream, "indexing-workers", cfg.Bus.ConsumerName)
	if err != nil {
		logger.Fatalf("failed to init event bus consumer: %v", err)
	}

	splitter := chunk.NewSplitter(cfg.Worker.ChunkSize, cfg.Worker.ChunkOverlap)
	urlTimeout := time.Duration(cfg.Limits.URLProcessingTimeoutSeconds) * time.Second
	parserLimits := parser.Limits{
		MaxPDFBytes:        cfg.Limits.MaxPDFBytes,
		MaxDOCXBytes:       cfg.Limits.MaxDOCXBytes,
		MaxTXTBytes:        cfg.Limits.MaxTXTBytes,
		MaxBinaryNullRatio: cfg.Limits.MaxBinaryNullRatio,
	}
	dispatch := indexer.NewTaskDispatcher(docs, sources, blobs, vectorDB, embedder, splitter,
		parser.NewURLProcessor(urlTimeout), parserLimits)
	w := indexer.NewWorker(consumer, dispatch, cfg.Worker)

	workerCtx, workerCancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(workerCtx)
	}()

	logger.Printf("indexing-worker started, consuming stream %q as %q", cfg.Bus.Stream, cfg.Bus.ConsumerName)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
		logger.Println("shutting down indexing-worker...")
		workerCancel()
		<-done
	case err := <-done:
		if err != nil {
			logger.Errorf("indexing worker stopped: %v", err)
		}
	}

	if err := logger.GetDefault().Close(); err != nil {
		logger.Printf("failed to close logger: %v", err)
	}
}

func initEmbedder(cfg config.EmbeddingsConfig) embeddings.Embedder {
	embedderType := cfg.Provider
	if embedderType == "" {
		if cfg.APIKey != "" {
			embedderType = "openai"
		} else {
			embedderType = "mock"
		}
	}
	embedder, err := embeddings.NewEmbedder(embedderType, map[string]string{
		"api_key":  cfg.APIKey,
		"model":    cfg.Model,
		"base_url": cfg.BaseURL,
	})
	if err != nil {
		logger.Fatalf("failed to initialize embedder: %v", err)
	}
	logger.Printf("initialized embedder: %s (dimension: %d)", embedderType, embedder.Dimension())
	return embedder
}
