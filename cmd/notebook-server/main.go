// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/the-hive/internal/auth"
	"github.com/the-hive/internal/config"
	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/embeddings"
	"github.com/the-hive/internal/eventbus"
	"github.com/the-hive/internal/logger"
	"github.com/the-hive/internal/objectstore"
	"github.com/the-hive/internal/reconcile"
	"github.com/the-hive/internal/resource"
	"github.com/the-hive/internal/retrieval"
	"github.com/the-hive/internal/server"
	"github.com/the-hive/internal/vectordb"
)

var httpPort = flag.Int("http-port", 8082, "HTTP server port")

func main() {
	logFile := "notebook-server.log"
	if _, err := logger.Init(logFile); err != nil {
		fmt.Printf("failed to initialize logger: %v, using stdout only\n", err)
	}

	if err := godotenv.Load(); err != nil {
		logger.Printf("no .env file found, using environment variables: %v", err)
	}

	flag.Parse()

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
	notebooks, err := database.NewNotebookStore(db)
	if err != nil {
		logger.Fatalf("failed to init notebook store: %v", err)
	}
	memberships, err := database.NewNotebookSourceStore(db)
	if err != nil {
		logger.Fatalf("failed to init notebook source store: %v", err)
	}
	messages, err := database.NewMessageStore(db)
	if err != nil {
		logger.Fatalf("failed to init message store: %v", err)
	}
	incons, err := database.NewInconsistencyLogStore(db)
	if err != nil {
		logger.Fatalf("failed to init inconsistency log store: %v", err)
	}
	auditLog, err := database.NewAuditLogStore(db)
	if err != nil {
		logger.Fatalf("failed to init audit log store: %v", err)
	}
	sysMeta, err := database.NewSystemMetadataStore(db)
	if err != nil {
		logger.Fatalf("failed to init system metadata store: %v", err)
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
	bus := eventbus.NewPublisher(redisClient, cfg.Bus.Stream)

	verifier, err := auth.NewVerifier(ctx, cfg.Auth)
	if err != nil {
		logger.Fatalf("failed to init auth verifier: %v", err)
	}

	limiter := resource.NewDBRateLimiter(docs, cfg.Limits.MaxConcurrentDocuments)
	uploads := resource.NewUploadService(db, docs, blobs, bus, limiter, cfg.Limits, cfg.Blob.Bucket)
	deleteDoc := resource.NewDeleteDocumentService(docs, blobs, vectorDB, bus, incons)
	sourceSvc := resource.NewSourceService(sources, bus)
	deleteSource := resource.NewSourceDeleteService(sources, docs, blobs, vectorDB, bus, incons)
	notebookSvc := resource.NewNotebookService(notebooks)
	deleteNotebook := resource.NewNotebookDeleteService(notebooks, memberships, deleteSource)
	membershipSvc := resource.NewNotebookSourceService(memberships)
	messageSvc := resource.NewMessageService(messages)

	tool := retrieval.NewTool(embedder, vectorDB, 5, 0)
	sweeper := reconcile.NewSweeper(docs, blobs, vectorDB, sysMeta)

	handlers := server.Handlers{
		Upload:         server.NewUploadHandler(uploads, docs, deleteDoc, blobs, cfg.Blob.Bucket, auditLog),
		Source:         server.NewSourceHandler(sourceSvc, deleteSource, auditLog),
		Notebook:       server.NewNotebookHandler(notebookSvc, deleteNotebook, auditLog),
		NotebookSource: server.NewNotebookSourceHandler(membershipSvc),
		Message:        server.NewMessageHandler(messageSvc),
		Search:         server.NewSearchHandler(tool, vectorDB, embedder, auditLog),
		Superuser:      server.NewSuperuserHandler(sweeper, auditLog),
	}

	mux := server.NewMux(handlers, server.AuthMiddleware(verifier))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *httpPort),
		Handler: mux,
	}

	go func() {
		logger.Printf("notebook-server listening on %d", *httpPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	waitForShutdown(httpServer)
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

func waitForShutdown(httpServer *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Println("shutting down notebook-server...")
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("http shutdown error: %v", err)
	}
	if err := logger.GetDefault().Close(); err != nil {
		fmt.Printf("failed to close logger: %v\n", err)
	}
}
