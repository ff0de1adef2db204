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
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func runConvertStorage(cmd *cobra.Command, args []string) {
	// --unit converts back to generic; otherwise a file is ingested and
	// converted to an intelligent unit.
	if convertUnitID != "" {
		req := map[string]any{
			"unit_id":   convertUnitID,
			"direction": "to_generic",
		}
		var resp struct {
			Ref string `json:"ref"`
		}
		if err := postJSON("/v1/storage/convert", req, &resp); err != nil {
			log.Fatalf("Conversion failed: %v", err)
		}
		fmt.Printf("Generic ref: %s\n", resp.Ref)
		return
	}

	if len(args) != 1 {
		log.Fatal("convert needs a file argument, or --unit to convert back")
	}

	ref, err := ingestFile(args[0])
	if err != nil {
		log.Fatalf("Ingest failed: %v", err)
	}

	req := map[string]any{
		"generic_ref": ref,
		"direction":   "to_intelligent",
	}
	var resp struct {
		Ref               string `json:"ref"`
		UnitID            string `json:"unit_id"`
		SemanticSummary   string `json:"semantic_summary"`
		RelationshipIndex []struct {
			ConceptTag string `json:"concept_tag"`
		} `json:"relationship_index"`
	}
	if err := postJSON("/v1/storage/convert", req, &resp); err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}

	fmt.Printf("Unit:    %s (ref %s)\n", resp.UnitID, resp.Ref)
	if resp.SemanticSummary != "" {
		fmt.Printf("Summary: %s\n", resp.SemanticSummary)
	}
	tags := make(map[string]struct{})
	for _, e := range resp.RelationshipIndex {
		tags[e.ConceptTag] = struct{}{}
	}
	fmt.Printf("Index:   %d entries, %d distinct concepts\n", len(resp.RelationshipIndex), len(tags))
}

type taskStatus struct {
	TaskID        string   `json:"task_id"`
	Stage         string   `json:"stage"`
	Done          bool     `json:"done"`
	ArtifactIDs   []string `json:"artifact_ids"`
	FailureReason string   `json:"failure_reason"`
}

func runTaskStatus(cmd *cobra.Command, args []string) {
	if watchTask {
		watchTaskStatus(args[0])
		return
	}

	var status taskStatus
	if err := getJSON("/v1/tasks/"+args[0], &status); err != nil {
		log.Fatalf("Lookup failed: %v", err)
	}
	printTaskStatus(status)
}

// watchTaskStatus streams status updates over the task websocket until
// the task finishes or the connection drops.
func watchTaskStatus(taskID string) {
	wsURL := strings.Replace(baseURL(), "http", "ws", 1) + "/v1/tasks/" + taskID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("Websocket dial failed: %v", err)
	}
	defer conn.Close()

	for {
		var status taskStatus
		if err := conn.ReadJSON(&status); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return
			}
			log.Fatalf("Stream ended: %v", err)
		}
		printTaskStatus(status)
		if status.Done {
			return
		}
	}
}

func printTaskStatus(status taskStatus) {
	state := "running"
	if status.Done {
		state = "done"
	}
	if status.FailureReason != "" {
		state = "failed: " + status.FailureReason
	}
	fmt.Printf("[%s] stage=%s artifacts=%d (%s)\n", status.TaskID, status.Stage, len(status.ArtifactIDs), state)
}
