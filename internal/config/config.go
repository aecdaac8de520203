package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the vecgate configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Backend   BackendConfig   `yaml:"backend"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	DocMap    DocMapConfig    `yaml:"docmap"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// BackendConfig describes the remote vector-index service and the collection served.
type BackendConfig struct {
	BaseURL          string `yaml:"base_url"`
	Token            string `yaml:"token"`
	Collection       string `yaml:"collection"`
	Dimension        int    `yaml:"dimension"`
	SpaceType        string `yaml:"space_type"`
	Precision        string `yaml:"precision"`
	HNSWM            int    `yaml:"hnsw_m"`
	HNSWEFConstruct  int    `yaml:"hnsw_ef_construction"`
	RequestTimeoutMS int    `yaml:"request_timeout_ms"`
	ProbeTimeoutMS   int    `yaml:"probe_timeout_ms"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider         string      `yaml:"provider"` // openai | mock
	APIKey           string      `yaml:"api_key"`
	BaseURL          string      `yaml:"base_url"`
	Model            string      `yaml:"model"`
	Dimensions       int         `yaml:"dimensions"`
	QueryInstruction string      `yaml:"query_instruction"`
	Cache            CacheConfig `yaml:"cache"`
}

// CacheConfig enables the Valkey-backed embedding cache when Addrs is set.
type CacheConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	TTLHours int      `yaml:"ttl_hours"`
}

// SearchConfig holds result-size settings.
type SearchConfig struct {
	DefaultK int `yaml:"default_k"`
	MaxK     int `yaml:"max_k"`
}

// DocMapConfig selects the Document Map store.
type DocMapConfig struct {
	Driver string `yaml:"driver"` // json | sqlite
	Path   string `yaml:"path"`
}

// IngestConfig holds settings for the ingest command.
type IngestConfig struct {
	DataDir              string `yaml:"data_dir"`
	BatchSize            int    `yaml:"batch_size"`
	DeletePollAttempts   int    `yaml:"delete_poll_attempts"`
	DeletePollIntervalMS int    `yaml:"delete_poll_interval_ms"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8080/api/v1"
	}
	if c.Backend.Collection == "" {
		c.Backend.Collection = "semantic_docs"
	}
	if c.Backend.Dimension <= 0 {
		c.Backend.Dimension = 384
	}
	if c.Backend.SpaceType == "" {
		c.Backend.SpaceType = "cosine"
	}
	if c.Backend.Precision == "" {
		c.Backend.Precision = "float32"
	}
	if c.Backend.HNSWM <= 0 {
		c.Backend.HNSWM = 16
	}
	if c.Backend.HNSWEFConstruct <= 0 {
		c.Backend.HNSWEFConstruct = 200
	}
	if c.Backend.RequestTimeoutMS <= 0 {
		c.Backend.RequestTimeoutMS = 10000
	}
	if c.Backend.ProbeTimeoutMS <= 0 {
		c.Backend.ProbeTimeoutMS = 2000
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "all-MiniLM-L6-v2"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = c.Backend.Dimension
	}
	if c.Embedding.Cache.TTLHours <= 0 {
		c.Embedding.Cache.TTLHours = 24 * 7
	}

	if c.Search.DefaultK <= 0 {
		c.Search.DefaultK = 5
	}
	if c.Search.MaxK <= 0 {
		c.Search.MaxK = 100
	}

	if c.DocMap.Driver == "" {
		c.DocMap.Driver = "json"
	}
	if c.DocMap.Path == "" {
		if c.DocMap.Driver == "sqlite" {
			c.DocMap.Path = "doc_map.db"
		} else {
			c.DocMap.Path = "doc_map.json"
		}
	}

	if c.Ingest.DataDir == "" {
		c.Ingest.DataDir = "data"
	}
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = 256
	}
	if c.Ingest.DeletePollAttempts <= 0 {
		c.Ingest.DeletePollAttempts = 5
	}
	if c.Ingest.DeletePollIntervalMS <= 0 {
		c.Ingest.DeletePollIntervalMS = 2000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.Collection == "" {
		return fmt.Errorf("backend.collection is required")
	}
	switch c.Backend.SpaceType {
	case "cosine", "l2", "ip":
	default:
		return fmt.Errorf("backend.space_type must be cosine, l2 or ip, got %q", c.Backend.SpaceType)
	}
	switch c.Embedding.Provider {
	case "openai", "mock":
	default:
		return fmt.Errorf("embedding.provider must be \"openai\" or \"mock\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions != c.Backend.Dimension {
		return fmt.Errorf(
			"embedding.dimensions (%d) must match backend.dimension (%d)",
			c.Embedding.Dimensions, c.Backend.Dimension,
		)
	}
	if c.Search.DefaultK > c.Search.MaxK {
		return fmt.Errorf("search.default_k (%d) exceeds search.max_k (%d)", c.Search.DefaultK, c.Search.MaxK)
	}
	switch c.DocMap.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("docmap.driver must be \"json\" or \"sqlite\", got %q", c.DocMap.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
