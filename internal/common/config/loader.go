// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultCollection is used when a routing rule has no configured collection id.
const DefaultCollection = "default_collection"

// Load reads configs/config.yaml, the optional config.{APP_ENVIRONMENT}.yaml overlay,
// any .env file found up the tree and the process environment.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return decode(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromLegacyEnv(&cfg)
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideFromLegacyEnv honors the variable names used by the original sync script
// when the structured keys are still empty.
func overrideFromLegacyEnv(cfg *Config) {
	setIfEmpty(&cfg.Database.Postgres.Host, "POSTGRES_HOST")
	setIfEmpty(&cfg.Database.Postgres.Database, "POSTGRES_DB")
	setIfEmpty(&cfg.Database.Postgres.User, "POSTGRES_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "POSTGRES_PASSWORD")

	setIfEmpty(&cfg.APIs.Outline.BaseURL, "OUTLINE_URL")
	setIfEmpty(&cfg.APIs.Outline.APIKey, "OUTLINE_API_KEY")
	setIfEmpty(&cfg.APIs.Arctic.BaseURL, "ARCTIC_URL")
	setIfEmpty(&cfg.APIs.Arctic.APIKey, "ARCTIC_API_KEY")

	setIfEmpty(&cfg.Collections.DayTours, "OUTLINE_DAY_TOURS_COLLECTION_ID")
	setIfEmpty(&cfg.Collections.Colorado, "OUTLINE_COLORADO_COLLECTION_ID")
	setIfEmpty(&cfg.Collections.Arizona, "OUTLINE_ARIZONA_COLLECTION_ID")
	setIfEmpty(&cfg.Collections.Rentals, "OUTLINE_RENTALS_COLLECTION_ID")
	setIfEmpty(&cfg.Collections.Utah, "OUTLINE_UTAH_COLLECTION_ID")
}

func setIfEmpty(field *string, envKey string) {
	if *field != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "tour-sync"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 1
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 300000
	}

	if cfg.Database.Postgres.Host == "" {
		cfg.Database.Postgres.Host = "localhost"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 5
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "tours"
	}

	if cfg.Sources.TripTypesCSV == "" {
		cfg.Sources.TripTypesCSV = "data/input/arctic_triptype.csv"
	}
	if cfg.Sources.PricingCSV == "" {
		cfg.Sources.PricingCSV = "data/input/arctic_pricing_final.csv"
	}
	if cfg.Sources.WebsiteCSV == "" {
		cfg.Sources.WebsiteCSV = "data/input/website_export.csv"
	}

	if cfg.APIs.Outline.BaseURL == "" {
		cfg.APIs.Outline.BaseURL = "https://your-outline-instance.com/api"
	}
	if cfg.APIs.Arctic.BaseURL == "" {
		cfg.APIs.Arctic.BaseURL = "https://your-arctic-system.com/api"
	}
	if cfg.APIs.Outline.Timeout == 0 {
		cfg.APIs.Outline.Timeout = 30000
	}
	if cfg.APIs.Arctic.Timeout == 0 {
		cfg.APIs.Arctic.Timeout = 30000
	}
	if cfg.APIs.Outline.PageSize == 0 {
		cfg.APIs.Outline.PageSize = 100
	}

	for _, id := range []*string{
		&cfg.Collections.DayTours,
		&cfg.Collections.Colorado,
		&cfg.Collections.Arizona,
		&cfg.Collections.Rentals,
		&cfg.Collections.Utah,
	} {
		if *id == "" {
			*id = DefaultCollection
		}
	}

	if cfg.TitleIndex.CacheTTL == 0 {
		cfg.TitleIndex.CacheTTL = 10 * time.Minute
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Workers == nil {
		cfg.Workers = map[string]WorkerConfig{}
	}
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 1
		}
		if worker.Timeout == 0 {
			worker.Timeout = cfg.Camunda.Timeout
		}
		cfg.Workers[key] = worker
	}
}

// Validate checks the fields every command needs.
func Validate(cfg *Config) error {
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if cfg.Notifications.SES.Enabled && (cfg.Notifications.SES.From == "" || len(cfg.Notifications.SES.To) == 0) {
		return fmt.Errorf("notifications.ses.from and notifications.ses.to are required when ses is enabled")
	}
	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required when sns is enabled")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 1,
		Timeout:       cfg.Camunda.Timeout,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
