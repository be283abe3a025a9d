package main

import (
	"fmt"
	"os"

	"floorplan/internal/common/config"

	"gopkg.in/yaml.v3"
)

// CLIConfig содержимое --config файла.
type CLIConfig struct {
	APIURL       string              `yaml:"api_url"`
	Organization string              `yaml:"organization"`
	Editor       config.EditorConfig `yaml:"editor"`
}

// LoadCLIConfig читает YAML поверх значений из окружения; пустой путь дает только окружение.
func LoadCLIConfig(path string) (*CLIConfig, error) {
	env := config.Load()
	cfg := &CLIConfig{Editor: env.Editor}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
