package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// config holds everything a run needs, loadable from a YAML file and then
// overridden by whichever CLI flags the caller actually set.
type config struct {
	Writers       int           `yaml:"writers"`
	ReadersPerGen int           `yaml:"readers_per_gen"`
	TasksPerWrite int           `yaml:"tasks_per_write"`
	Duration      time.Duration `yaml:"duration"`
	MaxInFlight   int64         `yaml:"max_in_flight"`
	MetricsAddr   string        `yaml:"metrics_addr"`
}

func defaultConfig() config {
	return config{
		Writers:       2,
		ReadersPerGen: 16,
		TasksPerWrite: 64,
		Duration:      5 * time.Second,
		MaxInFlight:   32,
		MetricsAddr:   "",
	}
}

// loadConfig reads a YAML config file at path, if path is non-empty,
// layering it over the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
