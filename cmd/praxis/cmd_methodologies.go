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
	"net/url"

	"github.com/spf13/cobra"
)

func runMethodologyGet(cmd *cobra.Command, args []string) {
	var m map[string]any
	if err := getJSON("/v1/methodologies/"+args[0], &m); err != nil {
		log.Fatalf("Lookup failed: %v", err)
	}
	printJSON(m)
}

func runMethodologyList(cmd *cobra.Command, args []string) {
	if domainFilter == "" {
		log.Fatal("--domain is required")
	}

	path := "/v1/methodologies?domain=" + url.QueryEscape(domainFilter)
	if listCursor != "" {
		path += "&cursor=" + url.QueryEscape(listCursor)
	}

	var page struct {
		Methodologies []struct {
			ID      string   `json:"id"`
			Name    string   `json:"name"`
			Version string   `json:"version"`
			Status  string   `json:"status"`
			Tags    []string `json:"domain_tags"`
		} `json:"methodologies"`
		Cursor string `json:"cursor"`
	}
	if err := getJSON(path, &page); err != nil {
		log.Fatalf("List failed: %v", err)
	}

	for _, m := range page.Methodologies {
		fmt.Printf("%-38s %-10s v%-8s %s %v\n", m.ID, m.Status, m.Version, m.Name, m.Tags)
	}
	if page.Cursor != "" {
		fmt.Printf("\nMore results: praxis methodology list --domain %s --cursor %s\n", domainFilter, page.Cursor)
	}
}

func runMethodologyDeprecate(cmd *cobra.Command, args []string) {
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := postJSON("/v1/methodologies/"+args[0]+"/deprecate", nil, &resp); err != nil {
		log.Fatalf("Deprecation failed: %v", err)
	}
	fmt.Printf("Methodology %s is now %s\n", resp.ID, resp.Status)
}

func runPrinciples(cmd *cobra.Command, args []string) {
	if len(args) == 1 {
		log.Fatal("principles takes either no arguments or both a source and a target domain")
	}

	path := "/v1/principles"
	if len(args) == 2 {
		path += "?source=" + url.QueryEscape(args[0]) + "&target=" + url.QueryEscape(args[1])
	}

	var resp struct {
		Principles []struct {
			ID           string   `json:"id"`
			OriginDomain string   `json:"origin_domain"`
			Applicable   []string `json:"applicable_domains"`
			Strength     float64  `json:"strength"`
		} `json:"principles"`
	}
	if err := getJSON(path, &resp); err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	if len(resp.Principles) == 0 {
		fmt.Println("No principles derived yet.")
		return
	}
	for _, p := range resp.Principles {
		fmt.Printf("%-40s strength %.2f  origin %s  applies to %v\n", p.ID, p.Strength, p.OriginDomain, p.Applicable)
	}
}
