// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load reads the configuration at path, creating a default file first when
// none exists. An empty path means ~/.praxis/praxis.yaml.
//
// Environment overrides, applied after the file:
//
//	PRAXIS_PORT           server port
//	PRAXIS_DATA_DIR       badger directory
//	PRAXIS_ORACLE_BACKEND oracle backend name
//	PRAXIS_DROP_DIR       discovery drop directory
//	PRAXIS_OTLP_ENDPOINT  trace collector address (also enables tracing)
func Load(path string) (*Config, error) {
	if path == "" {
		path = filepath.Join(DefaultDir(), "praxis.yaml")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefault(path); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	applyEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PRAXIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PRAXIS_DATA_DIR"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("PRAXIS_ORACLE_BACKEND"); v != "" {
		cfg.Oracle.Backend = v
	}
	if v := os.Getenv("PRAXIS_DROP_DIR"); v != "" {
		cfg.Discovery.DropDir = v
	}
	if v := os.Getenv("PRAXIS_OTLP_ENDPOINT"); v != "" {
		cfg.Observability.OTLPEndpoint = v
		cfg.Observability.Tracing = true
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("config: server port %d out of range", cfg.Server.Port)
	}
	switch cfg.Oracle.Backend {
	case "openai", "stub":
	default:
		return fmt.Errorf("config: unknown oracle backend %q", cfg.Oracle.Backend)
	}
	switch cfg.Blob.Backend {
	case "fs", "memory":
	case "gcs":
		if cfg.Blob.Bucket == "" {
			return fmt.Errorf("config: gcs blob backend needs a bucket")
		}
	default:
		return fmt.Errorf("config: unknown blob backend %q", cfg.Blob.Backend)
	}
	if cfg.Graph.StrengthThreshold <= 0 || cfg.Graph.StrengthThreshold > 1 {
		return fmt.Errorf("config: graph strength threshold %v outside (0,1]", cfg.Graph.StrengthThreshold)
	}
	return nil
}
