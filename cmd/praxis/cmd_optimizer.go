// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

type optimizerResult struct {
	OptimizerID            string   `json:"optimizer_id"`
	Kind                   string   `json:"kind"`
	EmbeddedMethodologyIDs []string `json:"embedded_methodology_ids"`
	EmbeddedPrincipleIDs   []string `json:"embedded_principle_ids"`
	Payload                []byte   `json:"payload"`
	Validation             struct {
		OK       bool   `json:"ok"`
		Reason   string `json:"reason"`
		Degraded bool   `json:"degraded"`
	} `json:"validation"`
	CacheHit bool `json:"cache_hit"`
}

func runGenerate(cmd *cobra.Command, args []string) {
	if targetConsumer == "" {
		log.Fatal("--consumer is required")
	}
	if len(requirementTags) == 0 {
		log.Fatal("--tags is required (at least one domain tag)")
	}

	req := map[string]any{
		"kind":             optimizerKind,
		"target_consumer":  targetConsumer,
		"requirement_tags": requirementTags,
		"max_payload_size": maxPayloadSize,
	}

	var result optimizerResult
	if err := postJSON("/v1/optimizers", req, &result); err != nil {
		log.Fatalf("Generation failed: %v", err)
	}

	fmt.Printf("Optimizer:     %s (%s)\n", result.OptimizerID, result.Kind)
	fmt.Printf("Methodologies: %d embedded\n", len(result.EmbeddedMethodologyIDs))
	for _, id := range result.EmbeddedMethodologyIDs {
		fmt.Printf("  - %s\n", id)
	}
	if len(result.EmbeddedPrincipleIDs) > 0 {
		fmt.Printf("Principles:    %v\n", result.EmbeddedPrincipleIDs)
	}
	fmt.Printf("Payload:       %d bytes", len(result.Payload))
	if result.CacheHit {
		fmt.Print(" (cache hit)")
	}
	fmt.Println()
	if result.Validation.Degraded {
		fmt.Println("WARNING: payload was degraded to fit the size budget")
		if result.Validation.Reason != "" {
			fmt.Printf("  %s\n", result.Validation.Reason)
		}
	}
}
