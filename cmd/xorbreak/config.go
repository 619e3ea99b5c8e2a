// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// configValidate is the validator instance for CLI configuration.
var configValidate = validator.New()

// Config is the optional YAML configuration file. Flags override it.
//
// Example:
//
//	log:
//	  level: debug
//	  dir: ~/.xorbreak/logs
//	solve:
//	  optimize: true
//	  jobs: 4
//	render:
//	  footer: true
//	generate:
//	  bytes: 32
//	  factor: 12
//	  seed: 42
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Solve    SolveConfig    `yaml:"solve"`
	Render   RenderConfig   `yaml:"render"`
	Generate GenerateConfig `yaml:"generate"`
}

// LogConfig configures pkg/logging.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir"`
}

// SolveConfig holds solve and batch defaults.
type SolveConfig struct {
	Optimize bool `yaml:"optimize"`
	// Jobs bounds batch concurrency; 0 means one per CPU.
	Jobs int `yaml:"jobs" validate:"gte=0,lte=256"`
}

// RenderConfig holds render defaults.
type RenderConfig struct {
	Footer bool `yaml:"footer"`
}

// GenerateConfig holds defaults for generated test data.
type GenerateConfig struct {
	// Bytes is the value width.
	Bytes int `yaml:"bytes" validate:"gte=1,lte=4096"`

	// Factor is the number of pool values per target byte. The solver
	// needs at least eight.
	Factor int `yaml:"factor" validate:"gte=8,lte=1024"`

	// Seed makes generation reproducible. Nil draws from crypto/rand.
	Seed *uint64 `yaml:"seed"`
}

// DefaultConfig returns the built-in defaults: 32-byte values with twelve
// candidates per byte, Info logging, no optimization.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Generate: GenerateConfig{
			Bytes:  32,
			Factor: 12,
		},
	}
}

// LoadConfig reads and validates the YAML file at path. An empty path
// returns the defaults. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
