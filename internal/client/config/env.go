package config

import (
	"fmt"
	"strconv"
	"time"
)

// EnvPrefix starts every environment variable read by the client.
const EnvPrefix = "SHOP_"

// parseEnv overlays cfg with SHOP_* variables. Durations use Go syntax
// ("10s", "5m"). Malformed numbers are reported, not ignored.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return v, ok && v != ""
	}

	for name, dst := range map[string]*string{
		"CATALOG_URL":   &cfg.CatalogBaseURL,
		"DATA_DIR":      &cfg.DataDir,
		"DATABASE_FILE": &cfg.DatabaseFile,
		"LOG_LEVEL":     &cfg.LogLevel,
		"S3_BUCKET":     &cfg.S3Bucket,
		"S3_REGION":     &cfg.S3Region,
		"S3_ENDPOINT":   &cfg.S3BaseEndpoint,
		"S3_ACCESS_KEY": &cfg.S3AccessKey,
		"S3_SECRET_KEY": &cfg.S3SecretKey,
	} {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	for name, dst := range map[string]*int{
		"CATALOG_LIMIT": &cfg.CatalogLimit,
		"RATE_BURST":    &cfg.RateBurst,
	} {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	if v, ok := get("RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT: %w", EnvPrefix, err)
		}
		cfg.RateLimit = f
	}

	for name, dst := range map[string]*time.Duration{
		"REQUEST_TIMEOUT":  &cfg.RequestTimeout,
		"RETRY_BACKOFF":    &cfg.RetryBackoff,
		"CACHE_STALE_TIME": &cfg.CacheStaleTime,
		"CACHE_GC_TIME":    &cfg.CacheGCTime,
		"JANITOR_INTERVAL": &cfg.JanitorInterval,
	} {
		if v, ok := get(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = d
		}
	}

	return nil
}
