// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ElasticsearchConfig holds the document-search cluster connection.
type ElasticsearchConfig struct {
	URLs     []string // cluster addresses (ELASTICSEARCH_URL, comma separated)
	User     string
	Password string
	Index    string // default index alias for document searches
}

// Enabled returns true when a cluster address is configured.
func (e *ElasticsearchConfig) Enabled() bool {
	return len(e.URLs) > 0
}

// Config holds the configuration for the search stores and the search engine.
type Config struct {
	MetaDBPath    string // path to SQLite metastore (sample roster, enum dictionaries)
	VariantDBPath string // path to DuckDB variant store; empty for in-memory
	LogLevel      string // log level: debug, info, warn, error (default "info")
	LogFormat     string // "text" (default) or "json"
	GenomeVersion string // reference genome of the loaded tables (default GRCh38)

	NumResults       int // default result count per search (default 100)
	MaxParallelLoads int // concurrent per-project table loads (default 8)

	Elasticsearch ElasticsearchConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LoadFromEnv loads configuration from environment variables.
// The Elasticsearch cluster is optional; searches then run on the variant store only.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		MetaDBPath:    os.Getenv("META_DB_PATH"),
		VariantDBPath: os.Getenv("VARIANT_DB_PATH"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		LogFormat:     os.Getenv("LOG_FORMAT"),
		GenomeVersion: os.Getenv("GENOME_VERSION"),
		Elasticsearch: ElasticsearchConfig{
			User:     os.Getenv("ELASTICSEARCH_USER"),
			Password: os.Getenv("ELASTICSEARCH_PASSWORD"),
			Index:    os.Getenv("ELASTICSEARCH_INDEX"),
		},
	}

	var err error
	if cfg.NumResults, err = parseIntEnv("SEARCH_NUM_RESULTS"); err != nil {
		return nil, err
	}
	if cfg.MaxParallelLoads, err = parseIntEnv("SEARCH_MAX_PARALLEL_LOADS"); err != nil {
		return nil, err
	}
	if v := os.Getenv("ELASTICSEARCH_URL"); v != "" {
		urls := strings.Split(v, ",")
		for i := range urls {
			urls[i] = strings.TrimSpace(urls[i])
		}
		cfg.Elasticsearch.URLs = compactNonEmpty(urls)
	}

	// Defaults
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "seqr_meta.sqlite"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.GenomeVersion == "" {
		cfg.GenomeVersion = "GRCh38"
	}
	if cfg.NumResults == 0 {
		cfg.NumResults = 100
	}
	if cfg.MaxParallelLoads == 0 {
		cfg.MaxParallelLoads = 8
	}
	if cfg.VariantDBPath == "" {
		cfg.Warnings = append(cfg.Warnings, "VARIANT_DB_PATH not set, using an empty in-memory variant store")
	}
	if (cfg.Elasticsearch.User == "") != (cfg.Elasticsearch.Password == "") {
		return nil, fmt.Errorf("both ELASTICSEARCH_USER and ELASTICSEARCH_PASSWORD must be set together")
	}
	if cfg.Elasticsearch.Enabled() && cfg.Elasticsearch.Index == "" {
		cfg.Warnings = append(cfg.Warnings, "ELASTICSEARCH_INDEX not set, document searches need an explicit index")
	}
	return cfg, nil
}

func parseIntEnv(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
