package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

type fileConfig struct {
	LogLevel  string           `toml:"log_level"`
	Strict    bool             `toml:"strict"`
	Pipelines []pipelineConfig `toml:"pipelines"`
}

type pipelineConfig struct {
	Name      string `toml:"name"`
	Values    []int  `toml:"values"`
	OnlyEven  bool   `toml:"only_even"`
	Take      *int   `toml:"take"`
	Multiply  int    `toml:"multiply"`
	BatchSize uint   `toml:"batch_size"`
}

type config struct {
	Level     zerolog.Level
	Strict    bool
	Pipelines []pipelineConfig
}

func defaultConfig() config {
	return config{
		Level: zerolog.InfoLevel,
		Pipelines: []pipelineConfig{
			{Name: "default", Values: []int{1, 2, 3, 4, 5}, Multiply: 10, Take: intPtr(3)},
		},
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load demo config: %w", err)
	}

	if meta.IsDefined("log_level") {
		lvl, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return config{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.Level = lvl
	}

	if meta.IsDefined("strict") {
		cfg.Strict = raw.Strict
	}

	if meta.IsDefined("pipelines") {
		cfg.Pipelines = cfg.Pipelines[:0]
		for i, p := range raw.Pipelines {
			p.Name = strings.TrimSpace(p.Name)
			if p.Name == "" {
				p.Name = fmt.Sprintf("pipeline-%d", i)
			}
			if p.Multiply == 0 {
				p.Multiply = 1
			}
			if p.Take != nil && *p.Take < 0 {
				return config{}, fmt.Errorf("pipeline %s: take must not be negative", p.Name)
			}
			cfg.Pipelines = append(cfg.Pipelines, p)
		}
	}

	return cfg, nil
}

func intPtr(v int) *int {
	return &v
}
