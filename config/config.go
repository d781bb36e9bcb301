package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Environment variable names.
const (
	EnvSupabaseURL       = "SUPABASE_URL"
	EnvSupabaseProjectID = "SUPABASE_PROJECT_ID"
	EnvSupabaseKey       = "SUPABASE_SERVICE_KEY"
	EnvVideoBucket       = "VIDEO_BUCKET"
	EnvProjectsTable     = "PROJECTS_TABLE"
	EnvStoreDriver       = "STORE_DRIVER"
	EnvSQLitePath        = "SQLITE_PATH"
	EnvFontFile          = "FONT_FILE"
	EnvFallbackFontFile  = "FALLBACK_FONT_FILE"
	EnvTempDir           = "TEMP_DIR"
	EnvWorkerCount       = "WORKER_COUNT"
	EnvJobQueueSize      = "JOB_QUEUE_SIZE"
	EnvHTTPAddr          = "HTTP_ADDR"
	EnvLogLevel          = "LOG_LEVEL"
	EnvLogFormat         = "LOG_FORMAT"
	EnvAMQPURL           = "AMQP_URL"
	EnvAMQPQueue         = "AMQP_QUEUE"
	EnvTranscribeURL     = "TRANSCRIBE_URL"
	EnvTranscribeKey     = "TRANSCRIBE_API_KEY"
	EnvRequestTimeout    = "STORAGE_TIMEOUT"
)

// Store drivers.
const (
	StoreDriverPostgrest = "postgrest"
	StoreDriverSQLite    = "sqlite"
)

const (
	DefaultVideoBucket    = "videos"
	DefaultProjectsTable  = "projects"
	DefaultSQLitePath     = "videothingy.db"
	DefaultFontFile       = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
	DefaultWorkerCount    = 2
	DefaultJobQueueSize   = 32
	DefaultHTTPAddr       = ":8080"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultAMQPQueue      = "q.exports.request"
	DefaultTranscribeURL  = "https://api.assemblyai.com/v2"
	DefaultRequestTimeout = 10 * time.Minute
)

// Config is built once at startup and handed to every collaborator that
// needs a connection setting. Nothing in the service reads the environment
// after Load returns.
type Config struct {
	Endpoint    string // Supabase project URL
	TenantID    string // Supabase project ref
	APIKey      string // service role key
	Bucket      string
	Table       string
	StoreDriver string
	SQLitePath  string

	FontFile         string
	FallbackFontFile string
	TempDir          string

	WorkerCount  int
	JobQueueSize int
	HTTPAddr     string

	LogLevel  string
	LogFormat string

	AMQPURL   string
	AMQPQueue string

	TranscribeURL string
	TranscribeKey string

	RequestTimeout time.Duration
}

// Load reads the configuration from environment variables, applying
// defaults for everything that is optional.
func Load() (*Config, error) {
	cfg := &Config{
		Endpoint:       strings.TrimRight(os.Getenv(EnvSupabaseURL), "/"),
		TenantID:       os.Getenv(EnvSupabaseProjectID),
		APIKey:         os.Getenv(EnvSupabaseKey),
		Bucket:         envOr(EnvVideoBucket, DefaultVideoBucket),
		Table:          envOr(EnvProjectsTable, DefaultProjectsTable),
		SQLitePath:     envOr(EnvSQLitePath, DefaultSQLitePath),
		FontFile:       envOr(EnvFontFile, DefaultFontFile),
		TempDir:        envOr(EnvTempDir, os.TempDir()),
		HTTPAddr:       envOr(EnvHTTPAddr, DefaultHTTPAddr),
		LogLevel:       envOr(EnvLogLevel, DefaultLogLevel),
		LogFormat:      envOr(EnvLogFormat, DefaultLogFormat),
		AMQPURL:        os.Getenv(EnvAMQPURL),
		AMQPQueue:      envOr(EnvAMQPQueue, DefaultAMQPQueue),
		TranscribeURL:  strings.TrimRight(envOr(EnvTranscribeURL, DefaultTranscribeURL), "/"),
		TranscribeKey:  os.Getenv(EnvTranscribeKey),
		WorkerCount:    DefaultWorkerCount,
		JobQueueSize:   DefaultJobQueueSize,
		RequestTimeout: DefaultRequestTimeout,
	}
	cfg.FallbackFontFile = envOr(EnvFallbackFontFile, filepath.Join(cfg.TempDir, "DejaVuSans.ttf"))

	cfg.StoreDriver = os.Getenv(EnvStoreDriver)
	if cfg.StoreDriver == "" {
		if cfg.Endpoint != "" {
			cfg.StoreDriver = StoreDriverPostgrest
		} else {
			cfg.StoreDriver = StoreDriverSQLite
		}
	}

	var err error
	if cfg.WorkerCount, err = envInt(EnvWorkerCount, DefaultWorkerCount); err != nil {
		return nil, err
	}
	if cfg.JobQueueSize, err = envInt(EnvJobQueueSize, DefaultJobQueueSize); err != nil {
		return nil, err
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}

	return cfg, nil
}

// Validate checks that the settings needed by the selected store driver
// are present.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgrest:
		if c.Endpoint == "" || c.APIKey == "" {
			return fmt.Errorf("%s and %s must be set for the %s store", EnvSupabaseURL, EnvSupabaseKey, StoreDriverPostgrest)
		}
	case StoreDriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%s must not be empty for the %s store", EnvSQLitePath, StoreDriverSQLite)
		}
	default:
		return fmt.Errorf("unknown %s %q", EnvStoreDriver, c.StoreDriver)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("invalid %s: must be at least 1", EnvWorkerCount)
	}
	if c.JobQueueSize < 1 {
		return fmt.Errorf("invalid %s: must be at least 1", EnvJobQueueSize)
	}
	return nil
}

// RestURL returns the PostgREST base URL for the configured endpoint.
func (c *Config) RestURL() string {
	return c.Endpoint + "/rest/v1"
}

// StorageURL returns the Storage API base URL for the configured endpoint.
func (c *Config) StorageURL() string {
	return c.Endpoint + "/storage/v1"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
