package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/gophshop/internal/timex"
)

// FileConfig is the on-disk shape of Config. Zero values leave the current
// setting untouched. Durations accept "5m" style strings or nanoseconds.
type FileConfig struct {
	CatalogBaseURL  string         `json:"catalog_base_url" yaml:"catalog_base_url"`
	CatalogLimit    int            `json:"catalog_limit" yaml:"catalog_limit"`
	RequestTimeout  timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	RetryBackoff    timex.Duration `json:"retry_backoff" yaml:"retry_backoff"`
	RateLimit       float64        `json:"rate_limit" yaml:"rate_limit"`
	RateBurst       int            `json:"rate_burst" yaml:"rate_burst"`
	CacheStaleTime  timex.Duration `json:"cache_stale_time" yaml:"cache_stale_time"`
	CacheGCTime     timex.Duration `json:"cache_gc_time" yaml:"cache_gc_time"`
	JanitorInterval timex.Duration `json:"janitor_interval" yaml:"janitor_interval"`
	DataDir         string         `json:"data_dir" yaml:"data_dir"`
	DatabaseFile    string         `json:"database_file" yaml:"database_file"`
	LogLevel        string         `json:"log_level" yaml:"log_level"`
	S3Bucket        string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region        string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3AccessKey     string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey     string         `json:"s3_secret_key" yaml:"s3_secret_key"`
}

// parseFile overlays cfg with a JSON or YAML file chosen by extension.
func parseFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			if err := json.Unmarshal(data, &fc); err != nil {
				return fmt.Errorf("unable to parse config %s as YAML or JSON", path)
			}
		}
	}

	fc.merge(cfg)
	return nil
}

func (fc *FileConfig) merge(cfg *Config) {
	setString(&cfg.CatalogBaseURL, fc.CatalogBaseURL)
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.DatabaseFile, fc.DatabaseFile)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, fc.S3AccessKey)
	setString(&cfg.S3SecretKey, fc.S3SecretKey)

	if fc.CatalogLimit > 0 {
		cfg.CatalogLimit = fc.CatalogLimit
	}
	if fc.RateLimit > 0 {
		cfg.RateLimit = fc.RateLimit
	}
	if fc.RateBurst > 0 {
		cfg.RateBurst = fc.RateBurst
	}

	for dst, src := range map[*time.Duration]timex.Duration{
		&cfg.RequestTimeout:  fc.RequestTimeout,
		&cfg.RetryBackoff:    fc.RetryBackoff,
		&cfg.CacheStaleTime:  fc.CacheStaleTime,
		&cfg.CacheGCTime:     fc.CacheGCTime,
		&cfg.JanitorInterval: fc.JanitorInterval,
	} {
		if src.Duration > 0 {
			*dst = src.Duration
		}
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
