package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the pixxearch configuration shared by the API and the indexer.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Database DatabaseConfig `yaml:"database"`
	Search   SearchConfig   `yaml:"search"`
	Storage  StorageConfig  `yaml:"storage"`
	Upload   UploadConfig   `yaml:"upload"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"` // default: determined by env
}

// AuthConfig holds webhook authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// IndexerConfig holds the annotation webhook server settings.
type IndexerConfig struct {
	Port         int   `yaml:"port" validate:"min=1,max=65535"`
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs" validate:"required,min=1,dive,hostname_port"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds index naming and color lookup limits.
type SearchConfig struct {
	KeyPrefix       string `yaml:"key_prefix"`
	ColorScanLimit  int    `yaml:"color_scan_limit"`
	MaxColorParents int    `yaml:"max_color_parents"`
}

// StorageConfig holds blob storage settings.
type StorageConfig struct {
	Root             string `yaml:"root" validate:"required"`
	PublicBaseURL    string `yaml:"public_base_url" validate:"required"`
	PicturesBucket   string `yaml:"pictures_bucket" validate:"required"`
	ThumbnailsBucket string `yaml:"thumbnails_bucket" validate:"required"`
}

// UploadConfig holds upload limits and the notification stream.
type UploadConfig struct {
	MaxBytes     int64   `yaml:"max_bytes"`
	RatePerSec   float64 `yaml:"rate_per_sec" validate:"gte=0"`
	Burst        int     `yaml:"burst" validate:"gte=0"`
	Stream       string  `yaml:"stream"`
	StreamMaxLen int64   `yaml:"stream_max_len"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document. ${VAR} and
// ${VAR:-default} references are expanded first.
func Parse(data []byte) (Config, error) {
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
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
	if c.Indexer.Port == 0 {
		c.Indexer.Port = 8081
	}
	if c.Indexer.MaxBodyBytes <= 0 {
		c.Indexer.MaxBodyBytes = 8 << 20
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Search.KeyPrefix == "" {
		c.Search.KeyPrefix = "pixxearch"
	}
	if c.Search.ColorScanLimit <= 0 {
		c.Search.ColorScanLimit = 10000
	}
	if c.Search.MaxColorParents <= 0 {
		c.Search.MaxColorParents = 1000
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "data/blobs"
	}
	if c.Storage.PublicBaseURL == "" {
		c.Storage.PublicBaseURL = "/blobs"
	}
	if c.Storage.PicturesBucket == "" {
		c.Storage.PicturesBucket = "pictures"
	}
	if c.Storage.ThumbnailsBucket == "" {
		c.Storage.ThumbnailsBucket = "thumbnails"
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = 10 << 20
	}
	if c.Upload.Stream == "" {
		c.Upload.Stream = c.Search.KeyPrefix + ":uploads"
	}
	if c.Upload.StreamMaxLen <= 0 {
		c.Upload.StreamMaxLen = 10000
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}
	if c.Search.MaxColorParents > c.Search.ColorScanLimit {
		return fmt.Errorf("search.max_color_parents (%d) must not exceed search.color_scan_limit (%d)",
			c.Search.MaxColorParents, c.Search.ColorScanLimit)
	}
	if strings.Contains(c.Search.KeyPrefix, " ") {
		return fmt.Errorf("search.key_prefix must not contain spaces, got %q", c.Search.KeyPrefix)
	}
	if c.HTTP.Port == c.Indexer.Port {
		return fmt.Errorf("http.port and indexer.port must differ, both are %d", c.HTTP.Port)
	}
	return nil
}

// fieldError renders a validator error with the YAML path of the field.
func fieldError(fe validator.FieldError) error {
	path := yamlPath(fe.StructNamespace())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", path)
	case "min", "max", "gte":
		return fmt.Errorf("%s must be %s %s, got %v", path, fe.Tag(), fe.Param(), fe.Value())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", path, fe.Param(), fe.Value())
	case "hostname_port":
		return fmt.Errorf("%s must be host:port, got %q", path, fe.Value())
	default:
		return fmt.Errorf("%s is invalid", path)
	}
}

// yamlPath turns "Config.Database.Addrs[0]" into "database.addrs[0]".
func yamlPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

var acronyms = strings.NewReplacer("HTTP", "Http", "URL", "Url", "API", "Api")

func snake(s string) string {
	s = acronyms.Replace(s)
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
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
