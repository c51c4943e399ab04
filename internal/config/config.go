package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fraudscore/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Database  DatabaseConfig  `yaml:"database"`
	Training  TrainingConfig  `yaml:"training"`
	LLM       LLMConfig       `yaml:"llm"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	LogLevel  string          `yaml:"log_level"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string   `yaml:"port"`
	GinMode     string   `yaml:"gin_mode"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DataConfig locates the transaction table
type DataConfig struct {
	DatasetPath  string   `yaml:"dataset_path"`
	SampleRows   int      `yaml:"sample_rows"`
	TargetColumn string   `yaml:"target_column"` // empty means infer
	DropColumns  []string `yaml:"drop_columns"`  // row identifiers removed at load time
}

// ArtifactsConfig holds where trained models are written
type ArtifactsConfig struct {
	Dir string `yaml:"dir"`
}

// DatabaseConfig holds the run registry connection
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

// TrainingConfig holds booster, split and serving knobs
type TrainingConfig struct {
	Iterations          int     `yaml:"iterations"`
	LearningRate        float64 `yaml:"learning_rate"`
	Depth               int     `yaml:"depth"`
	L2LeafReg           float64 `yaml:"l2_leaf_reg"`
	Subsample           float64 `yaml:"subsample"`
	EarlyStoppingRounds int     `yaml:"early_stopping_rounds"`
	BorderCount         int     `yaml:"border_count"`
	RandomSeed          int64   `yaml:"random_seed"`
	TrainRatio          float64 `yaml:"train_ratio"`
	Threshold           float64 `yaml:"threshold"`
	DeviationPrefix     string  `yaml:"deviation_prefix"`
	ReferenceRows       int     `yaml:"reference_rows"`
}

// LLMConfig holds the explanation text provider settings
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"-"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SchedulerConfig holds the retraining schedule; an empty spec disables it
type SchedulerConfig struct {
	RetrainSchedule string `yaml:"retrain_schedule"`
}

// Default returns the production defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			GinMode:     "release",
			CORSOrigins: []string{"*"},
		},
		Data: DataConfig{
			SampleRows:  10000,
			DropColumns: []string{"id"},
		},
		Artifacts: ArtifactsConfig{Dir: "outputs"},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			URL:    "file:fraudscore.db?_busy_timeout=5000",
		},
		Training: TrainingConfig{
			Iterations:          2000,
			LearningRate:        0.03,
			Depth:               8,
			L2LeafReg:           3,
			Subsample:           0.8,
			EarlyStoppingRounds: 100,
			BorderCount:         254,
			RandomSeed:          42,
			TrainRatio:          0.8,
			Threshold:           0.5,
			DeviationPrefix:     "V",
			ReferenceRows:       10000,
		},
		LLM: LLMConfig{
			Provider:    "groq",
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "llama-3.3-70b-versatile",
			Temperature: 0.5,
			MaxTokens:   300,
			Timeout:     10 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load reads .env, the optional CONFIG_PATH yaml file and the environment, in that order
func Load() (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	config := Default()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, errors.Wrap(err, "failed to load configuration file")
		}
	}
	applyEnv(config)

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parse %s: %w", path, err))
	}
	return nil
}

func applyEnv(c *Config) {
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)

	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	c.Server.GinMode = getEnvOrDefault("GIN_MODE", c.Server.GinMode)
	c.Server.CORSOrigins = getEnvListOrDefault("CORS_ORIGINS", c.Server.CORSOrigins)

	c.Data.DatasetPath = getEnvOrDefault("DATASET_PATH", c.Data.DatasetPath)
	c.Data.SampleRows = getEnvIntOrDefault("DATASET_SAMPLE_ROWS", c.Data.SampleRows)
	c.Data.TargetColumn = getEnvOrDefault("TARGET_COLUMN", c.Data.TargetColumn)
	c.Data.DropColumns = getEnvListOrDefault("DROP_COLUMNS", c.Data.DropColumns)

	c.Artifacts.Dir = getEnvOrDefault("ARTIFACTS_DIR", c.Artifacts.Dir)

	c.Database.Driver = getEnvOrDefault("DATABASE_DRIVER", c.Database.Driver)
	c.Database.URL = getEnvOrDefault("DATABASE_URL", c.Database.URL)

	t := &c.Training
	t.Iterations = getEnvIntOrDefault("TRAIN_ITERATIONS", t.Iterations)
	t.LearningRate = getEnvFloatOrDefault("TRAIN_LEARNING_RATE", t.LearningRate)
	t.Depth = getEnvIntOrDefault("TRAIN_DEPTH", t.Depth)
	t.L2LeafReg = getEnvFloatOrDefault("TRAIN_L2_LEAF_REG", t.L2LeafReg)
	t.Subsample = getEnvFloatOrDefault("TRAIN_SUBSAMPLE", t.Subsample)
	t.EarlyStoppingRounds = getEnvIntOrDefault("TRAIN_EARLY_STOPPING_ROUNDS", t.EarlyStoppingRounds)
	t.BorderCount = getEnvIntOrDefault("TRAIN_BORDER_COUNT", t.BorderCount)
	t.RandomSeed = int64(getEnvIntOrDefault("RANDOM_SEED", int(t.RandomSeed)))
	t.TrainRatio = getEnvFloatOrDefault("TRAIN_RATIO", t.TrainRatio)
	t.Threshold = getEnvFloatOrDefault("DECISION_THRESHOLD", t.Threshold)
	t.DeviationPrefix = getEnvOrDefault("DEVIATION_PREFIX", t.DeviationPrefix)
	t.ReferenceRows = getEnvIntOrDefault("REFERENCE_ROWS", t.ReferenceRows)

	l := &c.LLM
	l.Provider = strings.ToLower(getEnvOrDefault("LLM_PROVIDER", l.Provider))
	l.BaseURL = getEnvOrDefault("LLM_BASE_URL", l.BaseURL)
	l.Model = getEnvOrDefault("LLM_MODEL", l.Model)
	l.Temperature = getEnvFloatOrDefault("LLM_TEMPERATURE", l.Temperature)
	l.MaxTokens = getEnvIntOrDefault("LLM_MAX_TOKENS", l.MaxTokens)
	l.Timeout = getEnvDurationOrDefault("LLM_TIMEOUT", l.Timeout)
	switch l.Provider {
	case "anthropic":
		l.APIKey = getEnvOrDefault("ANTHROPIC_API_KEY", os.Getenv("LLM_API_KEY"))
	default:
		l.APIKey = getEnvOrDefault("GROQ_API_KEY", os.Getenv("LLM_API_KEY"))
	}

	c.Scheduler.RetrainSchedule = getEnvOrDefault("RETRAIN_SCHEDULE", c.Scheduler.RetrainSchedule)
}

func validateConfig(config *Config) error {
	t := config.Training
	if t.Threshold < 0 || t.Threshold > 1 {
		return errors.ConfigInvalid(fmt.Sprintf("decision threshold %v is outside [0, 1]", t.Threshold))
	}
	if t.Iterations <= 0 {
		return errors.ConfigInvalid("training iterations must be positive")
	}
	if t.TrainRatio <= 0 || t.TrainRatio >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("train ratio %v is outside (0, 1)", t.TrainRatio))
	}
	switch config.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown database driver %q", config.Database.Driver))
	}
	switch config.LLM.Provider {
	case "groq", "openai", "anthropic":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown llm provider %q", config.LLM.Provider))
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
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
	return out
}
