// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aristath/smartwealth/internal/database"
	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/datasets"
	"github.com/aristath/smartwealth/internal/modules/schema"
)

// scheduleParser accepts the six-field (seconds first) expressions the
// scheduler runs with, plus descriptors such as "@every 5m"
var scheduleParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the local state database (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// FrontendOrigins lists the CORS origins allowed to call the API
	FrontendOrigins []string

	Warehouse WarehouseConfig
	Datasets  []DatasetConfig
	S3        S3Config

	CacheWarmSchedule string
	PrimeOnStart      bool
	SnapshotRetention time.Duration
}

// WarehouseConfig holds the SQL warehouse connection settings
type WarehouseConfig struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// DatasetConfig holds one dataset's table, cache and source settings
type DatasetConfig struct {
	Key    string
	Table  string
	TTL    time.Duration
	Limit  int
	Source string
	Path   string
}

// S3Config holds the object store used by s3-sourced datasets
type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Enabled reports whether an S3 bucket is configured
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// envKeys are a dataset's environment variable prefix and mock file key
type envKeys struct {
	prefix string
	mock   string
}

var datasetEnv = map[string]envKeys{
	domain.DatasetProfiles: {"PROFILES", "MOCK_PROFILES_PATH"},
	domain.DatasetScores:   {"SCORES", "MOCK_SCORES_PATH"},
	domain.DatasetEarnings: {"EARNINGS", "MOCK_EARNINGS_PATH"},
	domain.DatasetVendors:  {"VENDOR", "MOCK_VENDORS_PATH"},
}

var defaultTables = map[string]string{
	domain.DatasetProfiles: schema.DefaultProfilesTable,
	domain.DatasetScores:   schema.DefaultScoresTable,
	domain.DatasetEarnings: schema.DefaultEarningsTable,
	domain.DatasetVendors:  schema.DefaultVendorsTable,
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		FrontendOrigins: getEnvAsList("FRONTEND_ORIGINS", []string{"*"}),
		Warehouse: WarehouseConfig{
			Driver:       getEnv("WAREHOUSE_DRIVER", string(database.DriverSQLite)),
			DSN:          getEnv("WAREHOUSE_DSN", ""),
			MaxOpenConns: getEnvAsInt("WAREHOUSE_MAX_OPEN_CONNS", 10),
		},
		S3: S3Config{
			Bucket:    getEnv("SNAPSHOT_S3_BUCKET", ""),
			Prefix:    getEnv("SNAPSHOT_S3_PREFIX", ""),
			Region:    getEnv("SNAPSHOT_S3_REGION", "us-east-1"),
			Endpoint:  getEnv("SNAPSHOT_S3_ENDPOINT", ""),
			AccessKey: getEnv("SNAPSHOT_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("SNAPSHOT_S3_SECRET_KEY", ""),
		},
		CacheWarmSchedule: getEnv("CACHE_WARM_SCHEDULE", "0 */5 * * * *"),
		PrimeOnStart:      getEnvAsBool("CACHE_PRIME_ON_START", true),
		SnapshotRetention: getEnvAsDuration("SNAPSHOT_RETENTION", 7*24*time.Hour),
	}

	for _, def := range datasets.DefaultSettings() {
		env := datasetEnv[def.Dataset]
		cfg.Datasets = append(cfg.Datasets, DatasetConfig{
			Key:    def.Dataset,
			Table:  getEnv(env.prefix+"_TABLE", defaultTables[def.Dataset]),
			TTL:    time.Duration(getEnvAsInt(env.prefix+"_CACHE_TTL", int(def.TTL/time.Second))) * time.Second,
			Limit:  getEnvAsInt(env.prefix+"_CACHE_LIMIT", def.Limit),
			Source: getEnv(env.prefix+"_SOURCE", sourceDefault(env.mock)),
			Path:   getEnv(env.mock, ""),
		})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// sourceDefault picks the file source when a mock path is set
func sourceDefault(mockKey string) string {
	if os.Getenv(mockKey) != "" {
		return string(datasets.SourceFile)
	}
	return string(datasets.SourceWarehouse)
}

// Validate checks that the configuration can start the server
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &domain.ConfigError{Field: "PORT", Reason: fmt.Sprintf("out of range: %d", c.Port)}
	}
	if _, err := database.ParseDriver(c.Warehouse.Driver); err != nil {
		return err
	}
	if _, err := scheduleParser.Parse(c.CacheWarmSchedule); err != nil {
		return &domain.ConfigError{Field: "CACHE_WARM_SCHEDULE", Reason: err.Error()}
	}
	if c.SnapshotRetention <= 0 {
		return &domain.ConfigError{Field: "SNAPSHOT_RETENTION", Reason: "must be positive"}
	}

	settings, err := c.DatasetSettings()
	if err != nil {
		return err
	}
	for _, s := range settings {
		if err := s.Validate(); err != nil {
			return err
		}
		if s.Source == datasets.SourceS3 && !c.S3.Enabled() {
			return &domain.ConfigError{Field: "SNAPSHOT_S3_BUCKET", Reason: s.Dataset + " is sourced from s3 but no bucket is configured"}
		}
	}
	return nil
}

// DatasetSettings converts the per-dataset configuration into loader settings
func (c *Config) DatasetSettings() ([]datasets.Settings, error) {
	out := make([]datasets.Settings, 0, len(c.Datasets))
	for _, d := range c.Datasets {
		source, err := datasets.ParseSource(d.Key, d.Source)
		if err != nil {
			return nil, err
		}
		out = append(out, datasets.Settings{
			Dataset: d.Key,
			Source:  source,
			TTL:     d.TTL,
			Limit:   d.Limit,
			Path:    d.Path,
		})
	}
	return out, nil
}

// Tables returns the warehouse table for every dataset
func (c *Config) Tables() schema.Tables {
	tables := make(schema.Tables, len(c.Datasets))
	for _, d := range c.Datasets {
		tables[d.Key] = d.Table
	}
	return tables
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("36h") or plain seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
