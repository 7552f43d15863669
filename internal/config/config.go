package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface for the solver CLI and the
// solve service. Values come from the environment; an optional YAML
// file can override them.
type Config struct {
	Environment string `env:"ENV" envDefault:"development" yaml:"environment"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080" yaml:"port"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s" yaml:"read_timeout"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s" yaml:"write_timeout"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s" yaml:"idle_timeout"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s" yaml:"shutdown_timeout"`
	} `yaml:"http"`
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info" yaml:"level"`
		Format string `env:"LOG_FORMAT" envDefault:"json" yaml:"format"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr" yaml:"output"`
	} `yaml:"logging"`
	Corpus struct {
		URL          string `env:"CORPUS_URL" envDefault:"http://www.gutenberg.org/files/76/76-0.txt" yaml:"url"`
		FallbackPath string `env:"CORPUS_FALLBACK" envDefault:"corpus.txt" yaml:"fallback_path"`
	} `yaml:"corpus"`
	Solver struct {
		InitialTemperature float64 `env:"SOLVER_INITIAL_TEMPERATURE" envDefault:"10" yaml:"initial_temperature"`
		CoolingRate        float64 `env:"SOLVER_COOLING_RATE" envDefault:"0.95" yaml:"cooling_rate"`
		Threshold          float64 `env:"SOLVER_THRESHOLD" envDefault:"0.1" yaml:"threshold"`
		RandomSeed         int64   `env:"SOLVER_RANDOM_SEED" envDefault:"0" yaml:"random_seed"`
		CiphertextPath     string  `env:"SOLVER_CIPHERTEXT_FILE" envDefault:"encrypted_input.txt" yaml:"ciphertext_path"`
	} `yaml:"solver"`
	Store struct {
		Path string `env:"STORE_PATH" envDefault:"data/decipher.db" yaml:"path"`
	} `yaml:"store"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}

// LoadFile parses configuration from the environment, then overlays the
// YAML file at path on top. File values win over environment values.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}
