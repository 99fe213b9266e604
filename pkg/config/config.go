// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Corpus, Index, Search, Experiment, Redis, Kafka, Database).
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Field names accepted by IndexConfig and RunConfig.
const (
	FieldTitleOnly    = "title_only"
	FieldTitleAndText = "title_and_text"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Index      IndexConfig      `yaml:"index"`
	Search     SearchConfig     `yaml:"search"`
	Experiment ExperimentConfig `yaml:"experiment"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings for the search service.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// CorpusConfig points at the collection, the topics, the relevance judgments
// and the stopword list, and controls token normalisation.
type CorpusConfig struct {
	DocumentsPath string `yaml:"documentsPath"`
	QueriesPath   string `yaml:"queriesPath"`
	QrelsPath     string `yaml:"qrelsPath"`
	StopwordsPath string `yaml:"stopwordsPath"`
	Stem          bool   `yaml:"stem"`
}

// IndexConfig selects which field variants are built.
type IndexConfig struct {
	Fields       []string `yaml:"fields"`
	DefaultField string   `yaml:"defaultField"`
}

// SearchConfig controls query execution limits and timeouts.
type SearchConfig struct {
	MaxResults           int           `yaml:"maxResults"`
	DefaultLimit         int           `yaml:"defaultLimit"`
	QueryTimeout         time.Duration `yaml:"queryTimeout"`
	MaxConcurrentQueries int           `yaml:"maxConcurrentQueries"`
}

// ExperimentConfig describes the batch runs and their TREC output.
type ExperimentConfig struct {
	RunTag      string      `yaml:"runTag"`
	TopK        int         `yaml:"topK"`
	OutputDir   string      `yaml:"outputDir"`
	BestRunFile string      `yaml:"bestRunFile"`
	QrelsOut    string      `yaml:"qrelsOut"`
	Runs        []RunConfig `yaml:"runs"`
}

// RunConfig is one indexed-field variant of an experiment.
type RunConfig struct {
	Name   string `yaml:"name"`
	Field  string `yaml:"field"`
	Output string `yaml:"output"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled bool        `yaml:"enabled"`
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	SearchEvents string `yaml:"searchEvents"`
	RunComplete  string `yaml:"runComplete"`
}

// DatabaseConfig holds the SQL store used to record experiment runs. Driver
// is either "postgres" or "sqlite"; Path is only used by sqlite.
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns the data source name for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
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

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	for _, f := range c.Index.Fields {
		if !validField(f) {
			return fmt.Errorf("index.fields: unknown field %q", f)
		}
	}
	if !validField(c.Index.DefaultField) {
		return fmt.Errorf("index.defaultField: unknown field %q", c.Index.DefaultField)
	}
	if !slices.Contains(c.Index.Fields, c.Index.DefaultField) {
		return fmt.Errorf("index.defaultField: %q is not one of index.fields %v", c.Index.DefaultField, c.Index.Fields)
	}
	for _, r := range c.Experiment.Runs {
		if r.Name == "" || r.Output == "" {
			return fmt.Errorf("experiment.runs: name and output are required")
		}
		if !validField(r.Field) {
			return fmt.Errorf("experiment.runs[%s]: unknown field %q", r.Name, r.Field)
		}
	}
	if c.Experiment.TopK <= 0 {
		return fmt.Errorf("experiment.topK must be positive, got %d", c.Experiment.TopK)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("search: defaultLimit %d must be positive and not above maxResults %d",
			c.Search.DefaultLimit, c.Search.MaxResults)
	}
	if c.Database.Enabled && c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver)
	}
	return nil
}

func validField(f string) bool {
	return f == FieldTitleOnly || f == FieldTitleAndText
}

// defaultConfig mirrors the layout of the SciFact collection used for local
// experiments.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Corpus: CorpusConfig{
			DocumentsPath: "datasets/scifact/corpus.jsonl",
			QueriesPath:   "datasets/scifact/queries.jsonl",
			QrelsPath:     "datasets/scifact/qrels/test.tsv",
			StopwordsPath: "stopwords.txt",
		},
		Index: IndexConfig{
			Fields:       []string{FieldTitleOnly, FieldTitleAndText},
			DefaultField: FieldTitleAndText,
		},
		Search: SearchConfig{
			MaxResults:           1000,
			DefaultLimit:         10,
			QueryTimeout:         5 * time.Second,
			MaxConcurrentQueries: 8,
		},
		Experiment: ExperimentConfig{
			RunTag:      "vsm_tfidf_cosine",
			TopK:        100,
			OutputDir:   ".",
			BestRunFile: "Results",
			QrelsOut:    "datasets/scifact/qrels/test_trec_eval.qrels",
			Runs: []RunConfig{
				{Name: "title_only", Field: FieldTitleOnly, Output: "Results_title_only.txt"},
				{Name: "title_and_text", Field: FieldTitleAndText, Output: "Results_title_and_text.txt"},
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				SearchEvents: "search-events",
				RunComplete:  "run.complete",
			},
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Host:            "localhost",
			Port:            5432,
			Database:        "retrieval",
			User:            "retrieval",
			Password:        "localdev",
			SSLMode:         "disable",
			Path:            "runs.db",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads VSR_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VSR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VSR_CORPUS_DOCUMENTS"); v != "" {
		cfg.Corpus.DocumentsPath = v
	}
	if v := os.Getenv("VSR_CORPUS_QUERIES"); v != "" {
		cfg.Corpus.QueriesPath = v
	}
	if v := os.Getenv("VSR_CORPUS_QRELS"); v != "" {
		cfg.Corpus.QrelsPath = v
	}
	if v := os.Getenv("VSR_CORPUS_STOPWORDS"); v != "" {
		cfg.Corpus.StopwordsPath = v
	}
	if v := os.Getenv("VSR_CORPUS_STEM"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Corpus.Stem = b
		}
	}
	if v := os.Getenv("VSR_INDEX_DEFAULT_FIELD"); v != "" {
		cfg.Index.DefaultField = v
	}
	if v := os.Getenv("VSR_SEARCH_MAX_CONCURRENT_QUERIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxConcurrentQueries = n
		}
	}
	if v := os.Getenv("VSR_EXPERIMENT_RUN_TAG"); v != "" {
		cfg.Experiment.RunTag = v
	}
	if v := os.Getenv("VSR_EXPERIMENT_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Experiment.TopK = n
		}
	}
	if v := os.Getenv("VSR_EXPERIMENT_OUTPUT_DIR"); v != "" {
		cfg.Experiment.OutputDir = v
	}
	if v := os.Getenv("VSR_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("VSR_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("VSR_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("VSR_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
		cfg.Database.Enabled = true
	}
	if v := os.Getenv("VSR_DATABASE_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("VSR_DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("VSR_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("VSR_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VSR_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
