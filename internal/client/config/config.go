package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/gophshop/internal/flagx"
)

// MemoryDatabase keeps everything in process memory.
const MemoryDatabase = ":memory:"

// Config holds runtime settings for the shop client.
type Config struct {
	CatalogBaseURL  string        `validate:"required,url"`
	CatalogLimit    int           `validate:"gt=0"`
	RequestTimeout  time.Duration `validate:"gt=0"`
	RetryBackoff    time.Duration `validate:"gte=0"`
	RateLimit       float64       `validate:"gte=0"`
	RateBurst       int           `validate:"gte=0"`
	CacheStaleTime  time.Duration `validate:"gte=0"`
	CacheGCTime     time.Duration `validate:"gtefield=CacheStaleTime"`
	JanitorInterval time.Duration `validate:"gt=0"`

	DataDir      string `validate:"required"`
	DatabaseFile string `validate:"required"`
	LogLevel     string `validate:"oneof=debug info warn warning error"`

	// Avatars go to S3 when S3Bucket is set, otherwise they are inlined.
	S3Bucket       string
	S3Region       string `validate:"required_with=S3Bucket"`
	S3BaseEndpoint string `validate:"omitempty,url"`
	S3AccessKey    string
	S3SecretKey    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.CatalogBaseURL = "https://dummyjson.com"
	c.CatalogLimit = 100
	c.RequestTimeout = 10 * time.Second
	c.RetryBackoff = 500 * time.Millisecond
	c.RateLimit = 5
	c.RateBurst = 5
	c.CacheStaleTime = 5 * time.Minute
	c.CacheGCTime = 30 * time.Minute
	c.JanitorInterval = time.Minute
	c.DataDir = "data"
	c.DatabaseFile = "shop.db"
	c.LogLevel = "info"
	c.S3Region = "us-east-1"
}

// DatabasePath is the SQLite DSN derived from DataDir and DatabaseFile.
func (c *Config) DatabasePath() string {
	if c.DatabaseFile == MemoryDatabase || filepath.IsAbs(c.DatabaseFile) {
		return c.DatabaseFile
	}
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// UsesS3 reports whether avatars should be uploaded to a bucket.
func (c *Config) UsesS3() bool { return c.S3Bucket != "" }

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return fmt.Errorf("invalid config: %s fails %q", f.Field(), f.Tag())
	}
	return err
}

// Load builds a Config from defaults, then the file named by -c/-config,
// then environment variables resolved through lookup, then flags in args.
// Later sources take precedence over earlier ones.
func Load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigFilePath(args); path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads a .env file from the working directory when present and
// then calls Load with the process arguments and environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Load(os.Args[1:], os.LookupEnv)
}
