// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Kafka, Indexer, Store, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Kafka   KafkaConfig   `yaml:"kafka"`
	Indexer IndexerConfig `yaml:"indexer"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DocumentIngest string `yaml:"documentIngest"`
	IndexComplete  string `yaml:"indexComplete"`
}

// IndexerConfig controls the extraction pipeline: memory budget, spill
// behaviour, worker fan-out, batching, and the field schema.
type IndexerConfig struct {
	// DataDir holds spill chunks while a batch is being extracted.
	DataDir string `yaml:"dataDir"`
	// MaxMemory is the whole extraction budget in bytes, split across
	// workers and, within a worker, across the per-table sorters.
	MaxMemory int64 `yaml:"maxMemory"`
	// NumWorkers is the number of independent extraction pipelines a batch
	// is fanned out over.
	NumWorkers int `yaml:"numWorkers"`
	// ChunkCompression is "none" or "zstd".
	ChunkCompression string `yaml:"chunkCompression"`
	// CompressionLevel is the zstd level (0 means the encoder default).
	CompressionLevel int `yaml:"compressionLevel"`
	// MaxChunkCount caps the fan-in of a sorter's final merge.
	MaxChunkCount int `yaml:"maxChunkCount"`
	// BatchSize is the number of documents accumulated before indexing.
	BatchSize int `yaml:"batchSize"`
	// FlushInterval bounds how long a partial batch may wait.
	FlushInterval time.Duration `yaml:"flushInterval"`
	// Fields lists the schema's attributes; a field's position in this
	// list is its stable field id.
	Fields []string `yaml:"fields"`
	// ExactFields flags attributes whose words are exact-match only.
	ExactFields []string `yaml:"exactFields"`
	// FacetNumberFields and FacetStringFields flag faceted attributes.
	FacetNumberFields []string `yaml:"facetNumberFields"`
	FacetStringFields []string `yaml:"facetStringFields"`
}

// StoreConfig locates the persistent index store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies
// environment-variable overrides. It returns a Config populated with
// sensible defaults for any missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Indexer.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c IndexerConfig) validate() error {
	if c.MaxMemory <= 0 {
		return fmt.Errorf("indexer.maxMemory must be positive, got %d", c.MaxMemory)
	}
	if c.NumWorkers <= 0 {
		return fmt.Errorf("indexer.numWorkers must be positive, got %d", c.NumWorkers)
	}
	switch c.ChunkCompression {
	case "", "none", "zstd":
	default:
		return fmt.Errorf("indexer.chunkCompression must be none or zstd, got %q", c.ChunkCompression)
	}
	return nil
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "indexer-group",
			Topics: KafkaTopics{
				DocumentIngest: "document-ingest",
				IndexComplete:  "index.complete",
			},
		},
		Indexer: IndexerConfig{
			DataDir:          "data/spill",
			MaxMemory:        256 << 20,
			NumWorkers:       4,
			ChunkCompression: "none",
			MaxChunkCount:    32,
			BatchSize:        1000,
			FlushInterval:    5 * time.Second,
			Fields:           []string{"title", "body"},
		},
		Store: StoreConfig{
			Path: "data/index.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads IDX_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IDX_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("IDX_KAFKA_CONSUMER_GROUP"); v != "" {
		cfg.Kafka.ConsumerGroup = v
	}
	if v := os.Getenv("IDX_INDEXER_DATA_DIR"); v != "" {
		cfg.Indexer.DataDir = v
	}
	if v := os.Getenv("IDX_INDEXER_MAX_MEMORY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Indexer.MaxMemory = n
		}
	}
	if v := os.Getenv("IDX_INDEXER_NUM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.NumWorkers = n
		}
	}
	if v := os.Getenv("IDX_INDEXER_CHUNK_COMPRESSION"); v != "" {
		cfg.Indexer.ChunkCompression = v
	}
	if v := os.Getenv("IDX_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("IDX_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("IDX_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("IDX_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
