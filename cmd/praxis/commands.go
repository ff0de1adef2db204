// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	serverURL       string
	optimizerKind   string
	targetConsumer  string
	requirementTags []string
	maxPayloadSize  uint
	domainTags      []string
	domainFilter    string
	listCursor      string
	decideVerdict   string
	decidedBy       string
	decideReason    string
	convertUnitID   string
	watchTask       bool

	rootCmd = &cobra.Command{
		Use:   "praxis",
		Short: "A cli for the Praxis forge methodology store",
		Long: `Praxis talks to a running forge server: generate optimizer
packages, submit and review discovery candidates, browse methodologies,
and convert content between generic and intelligent storage.`,
	}

	// --- Optimizers ---
	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate an optimizer package for a consumer",
		Run:   runGenerate, // Defined in cmd_optimizer.go
	}

	// --- Discovery ---
	candidateCmd = &cobra.Command{
		Use:   "candidate",
		Short: "Manage discovery candidates",
	}
	submitCmd = &cobra.Command{
		Use:   "submit [file]",
		Short: "Submit raw source material as a discovery candidate (stdin when no file)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runSubmitCandidate, // Defined in cmd_candidates.go
	}
	candidateStatusCmd = &cobra.Command{
		Use:   "status [candidate_id]",
		Short: "Show a candidate's evaluation state and scores",
		Args:  cobra.ExactArgs(1),
		Run:   runCandidateStatus, // Defined in cmd_candidates.go
	}
	decideCmd = &cobra.Command{
		Use:   "decide [candidate_id]",
		Short: "Record the approval gate's verdict for an evaluated candidate",
		Args:  cobra.ExactArgs(1),
		Run:   runDecideCandidate, // Defined in cmd_candidates.go
	}

	// --- Methodologies ---
	methodologyCmd = &cobra.Command{
		Use:   "methodology",
		Short: "Browse the methodology store",
	}
	methodologyGetCmd = &cobra.Command{
		Use:   "get [methodology_id]",
		Short: "Fetch one methodology record",
		Args:  cobra.ExactArgs(1),
		Run:   runMethodologyGet, // Defined in cmd_methodologies.go
	}
	methodologyListCmd = &cobra.Command{
		Use:   "list",
		Short: "List methodologies for a domain",
		Run:   runMethodologyList, // Defined in cmd_methodologies.go
	}
	methodologyDeprecateCmd = &cobra.Command{
		Use:   "deprecate [methodology_id]",
		Short: "Retire a methodology so generation stops embedding it",
		Args:  cobra.ExactArgs(1),
		Run:   runMethodologyDeprecate, // Defined in cmd_methodologies.go
	}
	principlesCmd = &cobra.Command{
		Use:   "principles [source] [target]",
		Short: "Query universal principles, or what transfers between two domains",
		Args:  cobra.RangeArgs(0, 2),
		Run:   runPrinciples, // Defined in cmd_methodologies.go
	}

	// --- Storage ---
	convertStorageCmd = &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert content to intelligent storage (or back with --unit)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runConvertStorage, // Defined in cmd_storage.go
	}

	// --- Tasks ---
	taskCmd = &cobra.Command{
		Use:   "task [task_id]",
		Short: "Show a long-running task's checkpoint progress",
		Args:  cobra.ExactArgs(1),
		Run:   runTaskStatus, // Defined in cmd_storage.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"Forge server URL (default http://localhost:8090, or PRAXIS_SERVER_URL)")

	generateCmd.Flags().StringVar(&optimizerKind, "kind", "execution",
		"Optimizer kind: coordination, execution, configuration, policy, processing")
	generateCmd.Flags().StringVar(&targetConsumer, "consumer", "", "Target consumer identity")
	generateCmd.Flags().StringSliceVar(&requirementTags, "tags", nil, "Requirement domain tags")
	generateCmd.Flags().UintVar(&maxPayloadSize, "budget", 4096, "Maximum payload size in bytes")

	submitCmd.Flags().StringSliceVar(&domainTags, "tags", nil, "Domain tags for the candidate")

	decideCmd.Flags().StringVar(&decideVerdict, "verdict", "", "approved or rejected")
	decideCmd.Flags().StringVar(&decidedBy, "by", "", "Identity of the decider")
	decideCmd.Flags().StringVar(&decideReason, "reason", "", "Optional decision reason")

	methodologyListCmd.Flags().StringVar(&domainFilter, "domain", "", "Domain tag to list")
	methodologyListCmd.Flags().StringVar(&listCursor, "cursor", "", "Resume cursor from a previous page")

	convertStorageCmd.Flags().StringVar(&convertUnitID, "unit", "",
		"Convert an intelligent unit back to its generic ref instead of ingesting a file")

	taskCmd.Flags().BoolVar(&watchTask, "watch", false, "Stream status updates over the websocket")

	candidateCmd.AddCommand(submitCmd, candidateStatusCmd, decideCmd)
	methodologyCmd.AddCommand(methodologyGetCmd, methodologyListCmd, methodologyDeprecateCmd)
	rootCmd.AddCommand(generateCmd, candidateCmd, methodologyCmd, principlesCmd, convertStorageCmd, taskCmd)
}
