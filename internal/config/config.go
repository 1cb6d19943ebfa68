package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings for the detection module and
// its offline tooling.
type Config struct {
	// Detector tunables
	Detector DetectorConfig `yaml:"detector"`

	// Classification cache settings
	Cache CacheConfig `yaml:"cache"`

	// Offline training settings
	Training TrainingConfig `yaml:"training"`
}

type DetectorConfig struct {
	// AmbiguityRatio: best:second-best likelihood ratios at or below
	// this degrade the result to GENERIC.
	AmbiguityRatio float64 `yaml:"ambiguity_ratio"`

	// MinPosterior: winning posteriors below this floor degrade to GENERIC.
	MinPosterior float64 `yaml:"min_posterior"`

	// Uncertainty sampling settings (explicit-request path only)
	UncertaintySamples int     `yaml:"uncertainty_samples"`
	Perturbation       float64 `yaml:"perturbation"`
}

type CacheConfig struct {
	// ChainLimit bounds the collision chain per hash bucket.
	// 0 defers to the FORMATDETECT_CACHE_CHAIN_LIMIT env var / default.
	ChainLimit int `yaml:"chain_limit"`
}

type TrainingConfig struct {
	// CalibrationPath is where the trainer reads/writes learned
	// PENotH parameters and priors.
	CalibrationPath string `yaml:"calibration_path"`

	// Parallelism bounds concurrent sample classification in batch runs.
	Parallelism int `yaml:"parallelism"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Detector: DetectorConfig{
			AmbiguityRatio:     1.5,
			MinPosterior:       0.30,
			UncertaintySamples: 200,
			Perturbation:       0.10,
		},
		Cache: CacheConfig{
			ChainLimit: 0, // env var / compiled-in default
		},
		Training: TrainingConfig{
			CalibrationPath: "calibration.yaml",
			Parallelism:     4,
		},
	}
}

// Load loads configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("detector", cfg.Detector)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("training", cfg.Training)

	// Load from environment variables
	v.SetEnvPrefix("FORMATDETECT")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath(".formatdetect")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".formatdetect"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",       // Main environment file
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}
