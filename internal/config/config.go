// Package config loads service settings from an optional file and EDI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. EDI_BLOB_BACKEND.
const EnvPrefix = "EDI"

// Blob backends.
const (
	BlobGCS    = "gcs"
	BlobS3     = "s3"
	BlobMemory = "memory"
)

// Record store backends.
const (
	StoreBigQuery = "bigquery"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Blob     BlobConfig     `mapstructure:"blob"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Store    StoreConfig    `mapstructure:"store"`
	BigQuery BigQueryConfig `mapstructure:"bigquery"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Inbox    InboxConfig    `mapstructure:"inbox"`
}

type HTTPConfig struct {
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type BlobConfig struct {
	Backend      string        `mapstructure:"backend"`
	Bucket       string        `mapstructure:"bucket"`
	SignedURLTTL time.Duration `mapstructure:"signed_url_ttl"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`

	// Endpoint overrides the S3 endpoint, e.g. http://localhost:4566 for localstack.
	Endpoint string `mapstructure:"endpoint"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

type BigQueryConfig struct {
	Project string `mapstructure:"project"`
	Dataset string `mapstructure:"dataset"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type JobsConfig struct {
	QueueSize  int `mapstructure:"queue_size"`
	Workers    int `mapstructure:"workers"`
	MaxRetries int `mapstructure:"max_retries"`
}

type WorkerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type InboxConfig struct {
	Dir           string  `mapstructure:"dir"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.api_key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("blob.backend", BlobMemory)
	v.SetDefault("blob.bucket", "edi-raw")
	v.SetDefault("blob.signed_url_ttl", time.Hour)
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("store.backend", StoreMemory)
	v.SetDefault("bigquery.project", "")
	v.SetDefault("bigquery.dataset", "edi")
	v.SetDefault("sqlite.path", "edi.db")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("jobs.queue_size", 100)
	v.SetDefault("jobs.workers", 5)
	v.SetDefault("jobs.max_retries", 3)
	v.SetDefault("worker.poll_interval", 5*time.Minute)
	v.SetDefault("inbox.dir", "")
	v.SetDefault("inbox.rate_per_second", 5.0)
	v.SetDefault("inbox.burst", 10)
}

// Load reads path when it is non-empty, then applies EDI_* environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config.Load: reading %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config.Load: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend names and the settings each chosen backend needs.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}

	switch c.Blob.Backend {
	case BlobMemory:
	case BlobGCS, BlobS3:
		if c.Blob.Bucket == "" {
			errs = append(errs, fmt.Errorf("blob.bucket is required for the %s backend", c.Blob.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob.backend %q (want gcs, s3 or memory)", c.Blob.Backend))
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreBigQuery:
		if c.BigQuery.Project == "" || c.BigQuery.Dataset == "" {
			errs = append(errs, errors.New("bigquery.project and bigquery.dataset are required for the bigquery store"))
		}
	case StoreSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, errors.New("sqlite.path is required for the sqlite store"))
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q (want bigquery, sqlite, postgres or memory)", c.Store.Backend))
	}

	if c.Jobs.Workers < 1 {
		errs = append(errs, fmt.Errorf("jobs.workers must be at least 1, got %d", c.Jobs.Workers))
	}
	if c.Jobs.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("jobs.queue_size must be at least 1, got %d", c.Jobs.QueueSize))
	}
	if c.Jobs.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("jobs.max_retries must not be negative, got %d", c.Jobs.MaxRetries))
	}
	if c.Worker.PollInterval <= 0 {
		errs = append(errs, errors.New("worker.poll_interval must be positive"))
	}
	if c.Inbox.Dir != "" && c.Inbox.RatePerSecond <= 0 {
		errs = append(errs, errors.New("inbox.rate_per_second must be positive when inbox.dir is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
