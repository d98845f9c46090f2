package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Redis    Redis    `yaml:"redis"`
	Snapshot Snapshot `yaml:"snapshot"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Snapshot controls the optional Redis copy of the in-memory stores.
type Snapshot struct {
	Enabled  bool          `yaml:"enabled" env:"SNAPSHOT_ENABLED" env-default:"false"`
	Interval time.Duration `yaml:"interval" env:"SNAPSHOT_INTERVAL" env-default:"1m"`
}

// Load reads the config file at path, falling back to the environment when the file is missing.
func Load(path string) (*Config, error) {
	config := &Config{}

	err := cleanenv.ReadConfig(path, config)
	if errors.Is(err, fs.ErrNotExist) {
		err = cleanenv.ReadEnv(config)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if config.Snapshot.Enabled && config.Snapshot.Interval <= 0 {
		return nil, fmt.Errorf("snapshot interval must be positive, got %s", config.Snapshot.Interval)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
