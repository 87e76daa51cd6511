// Package config содержит логику чтения конфигурации клиента JGAA Thai.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации клиента JGAA Thai.
type Config struct {
	RunAddress     string        `env:"RUN_ADDRESS"`
	BackendAddress string        `env:"BACKEND_ADDRESS"`
	SnapshotURI    string        `env:"SNAPSHOT_URI"`
	SyncInterval   time.Duration `env:"SYNC_INTERVAL"`
	LogLevel       string        `env:"LOG_LEVEL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envBackendAddress := cfg.BackendAddress
	envSnapshotURI := cfg.SnapshotURI
	envSyncInterval := cfg.SyncInterval
	envLogLevel := cfg.LogLevel

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8090", "address and port for the local control surface")
	flag.StringVar(&cfg.BackendAddress, "b", "", "restaurant backend address")
	flag.StringVar(&cfg.SnapshotURI, "s", "jgaa-state.json", "snapshot URI: file path, postgres:// or redis://")
	flag.DurationVar(&cfg.SyncInterval, "i", 30*time.Second, "cart synchronizer interval")
	flag.StringVar(&cfg.LogLevel, "l", "info", "log level")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envBackendAddress != "" {
		cfg.BackendAddress = envBackendAddress
	}
	if envSnapshotURI != "" {
		cfg.SnapshotURI = envSnapshotURI
	}
	if envSyncInterval != 0 {
		cfg.SyncInterval = envSyncInterval
	}
	if envLogLevel != "" {
		cfg.LogLevel = envLogLevel
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8090"
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = 30 * time.Second
	}

	return cfg, nil
}
