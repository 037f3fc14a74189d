// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates every environment-driven setting the notebook
// service and the indexing worker need.
type Config struct {
	DBPath     string           `mapstructure:"db_path"`
	Blob       BlobConfig       `mapstructure:"blob"`
	Bus        BusConfig        `mapstructure:"bus"`
	Vector     VectorConfig     `mapstructure:"vector"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`
	Limits     LimitsConfig     `mapstructure:"limits"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

// BlobConfig configures the Object Store Gateway.
type BlobConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// BusConfig configures the Redis Streams event bus.
type BusConfig struct {
	Addr         string `mapstructure:"addr"`
	DB           int    `mapstructure:"db"`
	Password     string `mapstructure:"password"`
	Stream       string `mapstructure:"stream"`
	ConsumerName string `mapstructure:"consumer_name"`
}

// VectorConfig configures the Qdrant vector index gateway.
type VectorConfig struct {
	Addr       string `mapstructure:"addr"`
	Collection string `mapstructure:"collection"`
	Dimension  int    `mapstructure:"dimension"`
}

// EmbeddingsConfig configures the embedder factory.
type EmbeddingsConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
}

// LimitsConfig configures the per-user concurrency gate, per-type upload
// size caps, and the upload/processing boundary checks in D.1 and E.
type LimitsConfig struct {
	MaxConcurrentDocuments int   `mapstructure:"max_concurrent_documents"`
	MaxDocumentBytes       int64 `mapstructure:"max_document_bytes"`

	// MaxPDFBytes, MaxDOCXBytes and MaxTXTBytes bound a single upload of
	// that type; other supported extensions fall back to MaxDocumentBytes.
	MaxPDFBytes  int64 `mapstructure:"max_pdf_bytes"`
	MaxDOCXBytes int64 `mapstructure:"max_docx_bytes"`
	MaxTXTBytes  int64 `mapstructure:"max_txt_bytes"`

	// MaxTotalUploadBytes bounds the sum of every file in one batch upload.
	MaxTotalUploadBytes int64 `mapstructure:"max_total_upload_bytes"`

	// AllowedFileTypes lists the lowercase extensions (without the dot)
	// an upload may use, independent of which processors are registered.
	AllowedFileTypes []string `mapstructure:"allowed_file_types"`

	// MaxBinaryNullRatio rejects a .txt/.md upload whose NUL-byte ratio
	// suggests it's binary content mislabeled as text.
	MaxBinaryNullRatio float64 `mapstructure:"max_binary_null_ratio"`

	// URLProcessingTimeoutSeconds bounds how long a url source's fetch waits.
	URLProcessingTimeoutSeconds int `mapstructure:"url_processing_timeout_seconds"`
}

// WorkerConfig configures the indexing worker's batch/poll/timeout behaviour.
type WorkerConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	TaskTimeout    time.Duration `mapstructure:"task_timeout"`
	ExtractWorkers int           `mapstructure:"extract_workers"`
	ChunkSize      int           `mapstructure:"chunk_size"`
	ChunkOverlap   int           `mapstructure:"chunk_overlap"`
}

// AuthConfig configures JWT verification.
type AuthConfig struct {
	JWKSURL string `mapstructure:"jwks_url"`
	Issuer  string `mapstructure:"issuer"`
}

// Load builds a Config from environment variables, optionally layered
// over a config.yaml in the working directory. The keys set with
// SetDefault below have defaults; blob.endpoint, the blob credentials,
// bus.password, embeddings.* and auth.* do not and stay empty unless
// the file or the environment sets them.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("db_path", "./notebook.db")

	v.SetDefault("blob.region", "us-east-1")
	v.SetDefault("blob.bucket", "notebook-documents")
	v.SetDefault("blob.use_path_style", true)

	v.SetDefault("bus.addr", "127.0.0.1:6379")
	v.SetDefault("bus.db", 0)
	v.SetDefault("bus.stream", "source_changes")
	v.SetDefault("bus.consumer_name", "indexing-worker")

	v.SetDefault("vector.addr", "localhost:6334")
	v.SetDefault("vector.collection", "notebook_chunks")
	v.SetDefault("vector.dimension", 1536)

	v.SetDefault("limits.max_concurrent_documents", 3)
	v.SetDefault("limits.max_document_bytes", 25*1024*1024)
	v.SetDefault("limits.max_pdf_bytes", 10*1024*1024)
	v.SetDefault("limits.max_docx_bytes", 10*1024*1024)
	v.SetDefault("limits.max_txt_bytes", 10*1024*1024)
	v.SetDefault("limits.max_total_upload_bytes", 500*1024*1024)
	v.SetDefault("limits.allowed_file_types", "pdf,docx,txt,md,xlsx,xls,html,htm,eml")
	v.SetDefault("limits.max_binary_null_ratio", 0.1)
	v.SetDefault("limits.url_processing_timeout_seconds", 25)

	v.SetDefault("worker.batch_size", 10)
	v.SetDefault("worker.poll_interval", "1s")
	v.SetDefault("worker.task_timeout", "300s")
	v.SetDefault("worker.extract_workers", 4)
	v.SetDefault("worker.chunk_size", 1000)
	v.SetDefault("worker.chunk_overlap", 200)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("NOTEBOOK")
	v.AutomaticEnv()
	bindEnv(v, "db_path", "DB_PATH")
	bindEnv(v, "blob.endpoint", "BLOB_ENDPOINT")
	bindEnv(v, "blob.region", "BLOB_REGION")
	bindEnv(v, "blob.bucket", "BLOB_BUCKET")
	bindEnv(v, "blob.access_key_id", "BLOB_ACCESS_KEY_ID")
	bindEnv(v, "blob.secret_access_key", "BLOB_SECRET_ACCESS_KEY")
	bindEnv(v, "blob.use_path_style", "BLOB_USE_PATH_STYLE")
	bindEnv(v, "bus.addr", "REDIS_ADDR")
	bindEnv(v, "bus.db", "REDIS_DB")
	bindEnv(v, "bus.password", "REDIS_PASSWORD")
	bindEnv(v, "bus.stream", "BUS_STREAM")
	bindEnv(v, "bus.consumer_name", "BUS_CONSUMER_NAME")
	bindEnv(v, "vector.addr", "QDRANT_ADDR")
	bindEnv(v, "vector.collection", "QDRANT_COLLECTION")
	bindEnv(v, "vector.dimension", "EMBEDDER_DIMENSION")
	bindEnv(v, "embeddings.provider", "EMBEDDER_TYPE")
	bindEnv(v, "embeddings.api_key", "OPENAI_API_KEY")
	bindEnv(v, "embeddings.model", "EMBEDDER_MODEL")
	bindEnv(v, "embeddings.base_url", "OLLAMA_BASE_URL")
	bindEnv(v, "limits.max_concurrent_documents", "MAX_CONCURRENT_DOCUMENTS_PER_USER")
	bindEnv(v, "limits.max_document_bytes", "MAX_DOCUMENT_BYTES")
	bindEnv(v, "limits.max_pdf_bytes", "MAX_PDF_SIZE_BYTES")
	bindEnv(v, "limits.max_docx_bytes", "MAX_DOCX_SIZE_BYTES")
	bindEnv(v, "limits.max_txt_bytes", "MAX_TXT_SIZE_BYTES")
	bindEnv(v, "limits.max_total_upload_bytes", "MAX_TOTAL_UPLOAD_SIZE_BYTES")
	bindEnv(v, "limits.allowed_file_types", "ALLOWED_FILE_TYPES")
	bindEnv(v, "limits.max_binary_null_ratio", "MAX_BINARY_NULL_RATIO")
	bindEnv(v, "limits.url_processing_timeout_seconds", "URL_PROCESSING_TIMEOUT_SECONDS")
	bindEnv(v, "worker.batch_size", "WORKER_BATCH_SIZE")
	bindEnv(v, "worker.poll_interval", "WORKER_POLL_INTERVAL")
	bindEnv(v, "worker.task_timeout", "WORKER_TASK_TIMEOUT")
	bindEnv(v, "worker.extract_workers", "WORKER_EXTRACT_CONCURRENCY")
	bindEnv(v, "worker.chunk_size", "CHUNK_SIZE")
	bindEnv(v, "worker.chunk_overlap", "CHUNK_OVERLAP")
	bindEnv(v, "auth.jwks_url", "AUTH_JWKS_URL")
	bindEnv(v, "auth.issuer", "AUTH_ISSUER")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

func bindEnv(v *viper.Viper, key, env string) {
	_ = v.BindEnv(key, env)
}
