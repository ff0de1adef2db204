// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

type candidateStatus struct {
	CandidateID                 string  `json:"candidate_id"`
	State                       string  `json:"state"`
	UniquenessScore             float64 `json:"uniqueness_score"`
	IntegrationFeasibilityScore float64 `json:"integration_feasibility_score"`
	RejectReason                string  `json:"reject_reason"`
	MethodologyID               string  `json:"methodology_id"`
}

func runSubmitCandidate(cmd *cobra.Command, args []string) {
	if len(domainTags) == 0 {
		log.Fatal("--tags is required (at least one domain tag)")
	}

	var raw []byte
	var err error
	if len(args) == 1 {
		raw, err = os.ReadFile(args[0])
		if err != nil {
			log.Fatalf("Could not read %s: %v", args[0], err)
		}
	} else {
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("Could not read stdin: %v", err)
		}
	}

	req := map[string]any{
		"raw_source":  string(raw),
		"domain_tags": domainTags,
	}
	var resp struct {
		CandidateID string `json:"candidate_id"`
	}
	if err := postJSON("/v1/candidates", req, &resp); err != nil {
		log.Fatalf("Submission failed: %v", err)
	}
	fmt.Printf("Candidate submitted: %s\n", resp.CandidateID)
	fmt.Println("Evaluation runs in the background; check with: praxis candidate status", resp.CandidateID)
}

func runCandidateStatus(cmd *cobra.Command, args []string) {
	var status candidateStatus
	if err := getJSON("/v1/candidates/"+args[0], &status); err != nil {
		log.Fatalf("Lookup failed: %v", err)
	}

	fmt.Printf("Candidate:   %s\n", status.CandidateID)
	fmt.Printf("State:       %s\n", status.State)
	fmt.Printf("Uniqueness:  %.2f\n", status.UniquenessScore)
	fmt.Printf("Feasibility: %.2f\n", status.IntegrationFeasibilityScore)
	if status.RejectReason != "" {
		fmt.Printf("Rejected:    %s\n", status.RejectReason)
	}
	if status.MethodologyID != "" {
		fmt.Printf("Methodology: %s\n", status.MethodologyID)
	}
}

func runDecideCandidate(cmd *cobra.Command, args []string) {
	if decideVerdict != "approved" && decideVerdict != "rejected" {
		log.Fatal("--verdict must be approved or rejected")
	}
	if decidedBy == "" {
		log.Fatal("--by is required (who is deciding)")
	}

	req := map[string]any{
		"verdict":    decideVerdict,
		"decided_by": decidedBy,
		"reason":     decideReason,
	}
	var status candidateStatus
	if err := postJSON("/v1/candidates/"+args[0]+"/decision", req, &status); err != nil {
		log.Fatalf("Decision failed: %v", err)
	}

	fmt.Printf("Candidate %s is now %s\n", status.CandidateID, status.State)
	if status.MethodologyID != "" {
		fmt.Printf("Minted methodology: %s\n", status.MethodologyID)
	}
}
