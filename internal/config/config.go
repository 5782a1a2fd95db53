package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Input records and local output
	InputGlob  string `yaml:"input_glob"`
	OutputPath string `yaml:"output_path"`

	// Auth for the rebuild endpoint
	AtlasAPIKey string `yaml:"atlas_api_key"`

	// Import API
	ImportAPIURL string `yaml:"import_api_url"`
	ImportAPIKey string `yaml:"import_api_key"`

	// Blob storage publishing
	Blob BlobConfig `yaml:"blob"`

	DataVersion string `yaml:"data_version"`
	KeepBuilds  int    `yaml:"keep_builds"`

	// Build queue and run state
	MaxQueueSize int           `yaml:"max_queue_size"`
	RunTTL       time.Duration `yaml:"run_ttl"`

	WatchDebounce time.Duration `yaml:"watch_debounce"`
	NodeCacheSize int           `yaml:"node_cache_size"`

	DocumentTitle string `yaml:"document_title"`
}

type BlobConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Enabled reports whether blob publishing is configured.
func (b BlobConfig) Enabled() bool {
	return b.Endpoint != ""
}

func Default() Config {
	return Config{
		Port:          "8090",
		InputGlob:     "data/input/**/*.json",
		OutputPath:    "data/output",
		DataVersion:   "1",
		KeepBuilds:    3,
		MaxQueueSize:  4,
		RunTTL:        time.Hour,
		WatchDebounce: 500 * time.Millisecond,
		NodeCacheSize: 1024,
		DocumentTitle: "Atlas",
		Blob:          BlobConfig{Region: "us-east-1", UseSSL: true},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in that order of precedence. A .env file in the working
// directory is read into the environment first when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyEnv()

	d := Default()
	if cfg.KeepBuilds <= 0 {
		cfg.KeepBuilds = d.KeepBuilds
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = d.MaxQueueSize
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = d.RunTTL
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = d.WatchDebounce
	}
	if cfg.NodeCacheSize <= 0 {
		cfg.NodeCacheSize = d.NodeCacheSize
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)

	c.InputGlob = envOr("ATLAS_INPUT_GLOB", c.InputGlob)
	c.OutputPath = envOr("OUTPUT_PATH", c.OutputPath)
	c.AtlasAPIKey = envOr("ATLAS_API_KEY", c.AtlasAPIKey)

	c.ImportAPIURL = envOr("IMPORT_API_URL", c.ImportAPIURL)
	c.ImportAPIKey = envOr("IMPORT_API_KEY", c.ImportAPIKey)

	c.Blob.Endpoint = envOr("BLOB_ENDPOINT", c.Blob.Endpoint)
	c.Blob.Region = envOr("BLOB_REGION", c.Blob.Region)
	c.Blob.AccessKey = envOr("BLOB_ACCESS_KEY", c.Blob.AccessKey)
	c.Blob.SecretKey = envOr("BLOB_SECRET_KEY", c.Blob.SecretKey)
	c.Blob.Bucket = envOr("BLOB_BUCKET", c.Blob.Bucket)
	c.Blob.UseSSL = envBool("BLOB_USE_SSL", c.Blob.UseSSL)

	c.DataVersion = envOr("DATA_VERSION", c.DataVersion)
	c.KeepBuilds = envInt("KEEP_BUILDS", c.KeepBuilds)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.RunTTL = envDuration("RUN_TTL", c.RunTTL)
	c.WatchDebounce = envDuration("WATCH_DEBOUNCE", c.WatchDebounce)
	c.NodeCacheSize = envInt("NODE_CACHE_SIZE", c.NodeCacheSize)
	c.DocumentTitle = envOr("DOCUMENT_TITLE", c.DocumentTitle)
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	if c.InputGlob == "" {
		return fmt.Errorf("ATLAS_INPUT_GLOB is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("OUTPUT_PATH is required")
	}
	if c.ImportAPIURL != "" && c.ImportAPIKey == "" {
		return fmt.Errorf("IMPORT_API_KEY is required when IMPORT_API_URL is set")
	}
	if c.Blob.Enabled() {
		if c.Blob.Bucket == "" {
			return fmt.Errorf("BLOB_BUCKET is required when BLOB_ENDPOINT is set")
		}
		if c.Blob.AccessKey == "" || c.Blob.SecretKey == "" {
			return fmt.Errorf("BLOB_ACCESS_KEY and BLOB_SECRET_KEY are required when BLOB_ENDPOINT is set")
		}
	}
	return nil
}

// ValidateServe additionally checks what the HTTP server needs.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AtlasAPIKey == "" {
		return fmt.Errorf("ATLAS_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
