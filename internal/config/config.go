package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/bobby-s-dev/temperature-predictor/internal/model"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`

	Model struct {
		Path             string  `yaml:"path"`
		TrainingDataPath string  `yaml:"training_data_path"`
		TempScale        float64 `yaml:"temp_scale"`
	} `yaml:"model"`

	Reload struct {
		Schedule string `yaml:"schedule"`
		Watch    bool   `yaml:"watch"`
	} `yaml:"reload"`

	Cache struct {
		MaxSize int `yaml:"max_size"`
	} `yaml:"cache"`

	Client struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"client"`

	CircuitBreaker struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"circuit_breaker"`

	Retry struct {
		MaxRetries int           `yaml:"max_retries"`
		Delay      time.Duration `yaml:"delay"`
		Multiplier float64       `yaml:"multiplier"`
	} `yaml:"retry"`
}

func Default() *Config {
	cfg := &Config{}

	cfg.Server.Port = "5000"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 10 * time.Second

	cfg.Log.Level = "info"

	cfg.Model.Path = model.DefaultPath
	cfg.Model.TrainingDataPath = "_temperature_data.txt"
	cfg.Model.TempScale = 10

	cfg.Cache.MaxSize = 1000

	cfg.Client.Timeout = 10 * time.Second
	cfg.CircuitBreaker.Timeout = 30 * time.Second

	cfg.Retry.MaxRetries = 3
	cfg.Retry.Delay = time.Second
	cfg.Retry.Multiplier = 2

	return cfg
}

// LoadConfig layers defaults, an optional YAML file and the environment, in
// that order.
func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := Default()

	path := getEnv("CONFIG_FILE", "config.yaml")
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if cfg.Model.TempScale == 0 {
		return nil, errors.New("TEMP_SCALE must be non-zero")
	}
	return cfg, nil
}

func (cfg *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	zap.L().Info("Loaded config file", zap.String("path", path))
	return nil
}

func (cfg *Config) applyEnv() {
	// Server configuration
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = parseDuration(getEnv("READ_TIMEOUT", ""), cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = parseDuration(getEnv("WRITE_TIMEOUT", ""), cfg.Server.WriteTimeout)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)

	// Model configuration
	cfg.Model.Path = getEnv("MODEL_PATH", cfg.Model.Path)
	cfg.Model.TrainingDataPath = getEnv("TRAINING_DATA_PATH", cfg.Model.TrainingDataPath)
	cfg.Model.TempScale = parseFloat(getEnv("TEMP_SCALE", ""), cfg.Model.TempScale)

	cfg.Reload.Schedule = getEnv("MODEL_RELOAD_SCHEDULE", cfg.Reload.Schedule)
	cfg.Reload.Watch = parseBool(getEnv("MODEL_WATCH", ""), cfg.Reload.Watch)

	cfg.Cache.MaxSize = parseInt(getEnv("CACHE_MAX_SIZE", ""), cfg.Cache.MaxSize)

	// Remote predictor client
	cfg.Client.URL = getEnv("PREDICTOR_API_URL", cfg.Client.URL)
	cfg.Client.Timeout = parseDuration(getEnv("CLIENT_TIMEOUT", ""), cfg.Client.Timeout)
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", ""), cfg.CircuitBreaker.Timeout)
	cfg.Retry.MaxRetries = parseInt(getEnv("MAX_RETRIES", ""), cfg.Retry.MaxRetries)
	cfg.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", ""), cfg.Retry.Delay)
	cfg.Retry.Multiplier = parseFloat(getEnv("RETRY_MULTIPLIER", ""), cfg.Retry.Multiplier)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return fallback
	}
	return duration
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return fallback
	}
	return intValue
}

func parseFloat(value string, fallback float64) float64 {
	if value == "" {
		return fallback
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return fallback
	}
	return floatValue
}

func parseBool(value string, fallback bool) bool {
	if value == "" {
		return fallback
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		zap.L().Warn("Failed to parse bool", zap.String("value", value), zap.Error(err))
		return fallback
	}
	return boolValue
}
