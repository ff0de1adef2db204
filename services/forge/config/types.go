// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the forge configuration from ~/.praxis/praxis.yaml,
// creating a default file on first run. A handful of environment variables
// override the file for container deployments; see Load.
package config

import (
	"os"
	"path/filepath"
)

// Config is the full forge configuration tree.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Oracle        OracleConfig        `yaml:"oracle"`
	Blob          BlobConfig          `yaml:"blob"`
	Graph         GraphConfig         `yaml:"graph"`
	Generate      GenerateConfig      `yaml:"generate"`
	Discovery     DiscoveryConfig     `yaml:"discovery"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Host string `yaml:"host"` // e.g. 0.0.0.0
	Port int    `yaml:"port"` // e.g. 8090
}

type StorageConfig struct {
	// Path is the BadgerDB directory. Empty means ~/.praxis/data.
	Path string `yaml:"path"`

	// InMemory runs without a disk footprint; everything is lost on
	// shutdown. Useful for demos and tests only.
	InMemory bool `yaml:"in_memory"`
}

type OracleConfig struct {
	// Backend is "openai" or "stub".
	Backend string `yaml:"backend"`
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`

	// APIKeyFile points at a file holding the API key. The OPENAI_API_KEY
	// environment variable wins when both are set.
	APIKeyFile string `yaml:"api_key_file,omitempty"`

	TimeoutSeconds int `yaml:"timeout_seconds"`
	MaxAttempts    int `yaml:"max_attempts"`
}

type BlobConfig struct {
	// Backend is "fs", "memory" or "gcs".
	Backend string `yaml:"backend"`

	// Root is the fs backend's directory. Empty means ~/.praxis/blobs.
	Root string `yaml:"root,omitempty"`

	// Bucket and Prefix configure the gcs backend.
	Bucket          string `yaml:"bucket,omitempty"`
	Prefix          string `yaml:"prefix,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

type GraphConfig struct {
	StrengthThreshold float64 `yaml:"strength_threshold"` // e.g. 0.6
	MinEvidence       uint32  `yaml:"min_evidence"`       // e.g. 2
}

type GenerateConfig struct {
	CacheSize         int     `yaml:"cache_size"`
	StrengthThreshold float64 `yaml:"strength_threshold"`
}

type DiscoveryConfig struct {
	// DropDir is the watched candidate directory. Empty disables the
	// watcher.
	DropDir string `yaml:"drop_dir,omitempty"`

	SimilarityCeiling        float64 `yaml:"similarity_ceiling"`
	EvaluationTimeoutSeconds int     `yaml:"evaluation_timeout_seconds"`
	Workers                  int64   `yaml:"workers"`
}

type ObservabilityConfig struct {
	// Tracing enables the OTLP trace exporter.
	Tracing bool `yaml:"tracing"`

	// OTLPEndpoint is the collector's gRPC address, e.g. localhost:4317.
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
}

// DefaultDir returns the praxis home directory, ~/.praxis.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".praxis"
	}
	return filepath.Join(home, ".praxis")
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Storage: StorageConfig{
			Path: filepath.Join(DefaultDir(), "data"),
		},
		Oracle: OracleConfig{
			Backend:        "stub",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
			MaxAttempts:    3,
		},
		Blob: BlobConfig{
			Backend: "fs",
			Root:    filepath.Join(DefaultDir(), "blobs"),
		},
		Graph: GraphConfig{
			StrengthThreshold: 0.6,
			MinEvidence:       2,
		},
		Generate: GenerateConfig{
			CacheSize:         256,
			StrengthThreshold: 0.6,
		},
		Discovery: DiscoveryConfig{
			DropDir:                  filepath.Join(DefaultDir(), "drop"),
			SimilarityCeiling:        0.85,
			EvaluationTimeoutSeconds: 60,
			Workers:                  4,
		},
		Observability: ObservabilityConfig{
			Tracing:      false,
			OTLPEndpoint: "localhost:4317",
		},
	}
}
