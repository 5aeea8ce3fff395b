// Package cfg loads the service configuration from a YAML file (selected via
// CONFIG_FILE) with environment-variable overrides, and validates it.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	APIPort     int
	MetricsPort int

	ArtifactPath       string
	RemoteArtifactURL  string
	DisableRemoteFetch bool
	UseStubModel       bool

	Estimator    string // "logistic" or "boosted"
	TopColumns   int
	LearningRate float64
	Epochs       int
	BatchSize    int
	Rounds       int
	MaxDepth     int
	Seed         *int64 // nil means non-deterministic training split

	LoggingEnabled bool
	WarehouseURL   string

	DataPath    string
	RESTTimeout time.Duration
}

type ConfigFile struct {
	Server struct {
		APIPort     int `yaml:"apiPort"`
		MetricsPort int `yaml:"metricsPort"`
	} `yaml:"server"`

	Model struct {
		ArtifactPath       string `yaml:"artifactPath"`
		RemoteURL          string `yaml:"remoteURL"`
		DisableRemoteFetch bool   `yaml:"disableRemoteFetch"`
		UseStubModel       bool   `yaml:"useStubModel"`
	} `yaml:"model"`

	Training struct {
		Estimator    string  `yaml:"estimator"`
		TopColumns   int     `yaml:"topColumns"`
		LearningRate float64 `yaml:"learningRate"`
		Epochs       int     `yaml:"epochs"`
		BatchSize    int     `yaml:"batchSize"`
		Rounds       int     `yaml:"rounds"`
		MaxDepth     int     `yaml:"maxDepth"`
		Seed         *int64  `yaml:"seed"`
	} `yaml:"training"`

	Logging struct {
		Enabled      bool   `yaml:"enabled"`
		WarehouseURL string `yaml:"warehouseURL"`
	} `yaml:"logging"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		RESTTimeout string `yaml:"restTimeout"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	if configPath := os.Getenv(EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	restTimeout, err := time.ParseDuration(config.System.RESTTimeout)
	if err != nil {
		restTimeout = DefaultRESTTimeout
	}
	restTimeout = getDurationOrDefault(EnvRESTTimeout, restTimeout)

	settings := Settings{
		APIPort:            getIntFromEnvOrConfig(EnvAPIPort, config.Server.APIPort, DefaultAPIPort),
		MetricsPort:        getIntFromEnvOrConfig(EnvMetricsPort, config.Server.MetricsPort, DefaultMetricsPort),
		ArtifactPath:       getEnvOrDefault(EnvModelPath, firstNonEmpty(config.Model.ArtifactPath, DefaultArtifactPath)),
		RemoteArtifactURL:  getEnvOrDefault(EnvModelRemoteURL, config.Model.RemoteURL),
		DisableRemoteFetch: getBoolFromEnvOrConfig(EnvDisableRemoteFetch, config.Model.DisableRemoteFetch),
		UseStubModel:       getBoolFromEnvOrConfig(EnvUseStubModel, config.Model.UseStubModel),
		Estimator:          getEnvOrDefault(EnvEstimator, firstNonEmpty(config.Training.Estimator, DefaultEstimator)),
		TopColumns:         getIntFromEnvOrConfig(EnvTopColumns, config.Training.TopColumns, 0),
		LearningRate:       getFloatFromEnvOrConfig(EnvLearningRate, config.Training.LearningRate, DefaultLearningRate),
		Epochs:             getIntFromEnvOrConfig(EnvEpochs, config.Training.Epochs, DefaultEpochs),
		BatchSize:          getIntFromEnvOrConfig(EnvBatchSize, config.Training.BatchSize, DefaultBatchSize),
		Rounds:             getIntFromEnvOrConfig(EnvBoostRounds, config.Training.Rounds, DefaultBoostRounds),
		MaxDepth:           getIntFromEnvOrConfig(EnvMaxDepth, config.Training.MaxDepth, DefaultMaxDepth),
		Seed:               getSeed(config.Training.Seed),
		LoggingEnabled:     getBoolFromEnvOrConfig(EnvPredictionLogging, config.Logging.Enabled),
		WarehouseURL:       getEnvOrDefault(EnvWarehouseURL, config.Logging.WarehouseURL),
		DataPath:           getEnvOrDefault(EnvDataPath, config.System.DataPath),
		RESTTimeout:        restTimeout,
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		APIPort:            getIntOrDefault(EnvAPIPort, DefaultAPIPort),
		MetricsPort:        getIntOrDefault(EnvMetricsPort, DefaultMetricsPort),
		ArtifactPath:       getEnvOrDefault(EnvModelPath, DefaultArtifactPath),
		RemoteArtifactURL:  os.Getenv(EnvModelRemoteURL), // optional
		DisableRemoteFetch: getBoolOrDefault(EnvDisableRemoteFetch, false),
		UseStubModel:       getBoolOrDefault(EnvUseStubModel, false),
		Estimator:          getEnvOrDefault(EnvEstimator, DefaultEstimator),
		TopColumns:         getIntOrDefault(EnvTopColumns, 0),
		LearningRate:       getFloatOrDefault(EnvLearningRate, DefaultLearningRate),
		Epochs:             getIntOrDefault(EnvEpochs, DefaultEpochs),
		BatchSize:          getIntOrDefault(EnvBatchSize, DefaultBatchSize),
		Rounds:             getIntOrDefault(EnvBoostRounds, DefaultBoostRounds),
		MaxDepth:           getIntOrDefault(EnvMaxDepth, DefaultMaxDepth),
		Seed:               getSeed(nil),
		LoggingEnabled:     getBoolOrDefault(EnvPredictionLogging, false),
		WarehouseURL:       os.Getenv(EnvWarehouseURL),
		DataPath:           os.Getenv(EnvDataPath), // optional
		RESTTimeout:        getDurationOrDefault(EnvRESTTimeout, DefaultRESTTimeout),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

// getSeed resolves the training seed: the env var wins over the config value;
// both absent leaves training non-deterministic.
func getSeed(configSeed *int64) *int64 {
	if v := os.Getenv(EnvTrainSeed); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return &seed
		}
	}
	return configSeed
}

func firstNonEmpty(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs range validation of configuration values.
func validateSettings(settings *Settings) error {
	if settings.ArtifactPath == "" {
		return fmt.Errorf("artifact path cannot be empty")
	}
	if settings.APIPort < 1 || settings.APIPort > 65535 {
		return fmt.Errorf("API port must be between 1 and 65535, got %d", settings.APIPort)
	}
	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.APIPort == settings.MetricsPort {
		return fmt.Errorf("API port and metrics port must differ, both are %d", settings.APIPort)
	}
	if settings.Estimator != EstimatorLogistic && settings.Estimator != EstimatorBoosted {
		return fmt.Errorf("estimator must be %q or %q, got %q", EstimatorLogistic, EstimatorBoosted, settings.Estimator)
	}
	if settings.LearningRate <= 0 || settings.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1], got %f", settings.LearningRate)
	}
	if settings.Epochs <= 0 || settings.Epochs > 100000 {
		return fmt.Errorf("epochs must be between 1 and 100000, got %d", settings.Epochs)
	}
	if settings.BatchSize <= 0 || settings.BatchSize > 100000 {
		return fmt.Errorf("batch size must be between 1 and 100000, got %d", settings.BatchSize)
	}
	if settings.Rounds <= 0 || settings.Rounds > 10000 {
		return fmt.Errorf("boosting rounds must be between 1 and 10000, got %d", settings.Rounds)
	}
	if settings.MaxDepth <= 0 || settings.MaxDepth > 16 {
		return fmt.Errorf("max tree depth must be between 1 and 16, got %d", settings.MaxDepth)
	}
	if settings.TopColumns < 0 {
		return fmt.Errorf("top columns cannot be negative, got %d", settings.TopColumns)
	}
	if settings.RESTTimeout < time.Second || settings.RESTTimeout > time.Minute {
		return fmt.Errorf("REST timeout must be between 1s and 1m, got %v", settings.RESTTimeout)
	}
	if settings.LoggingEnabled && settings.WarehouseURL == "" && settings.DataPath == "" {
		return fmt.Errorf("prediction logging enabled but neither warehouse URL nor data path configured")
	}
	return nil
}
