// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const defaultServerURL = "http://localhost:8090"

func baseURL() string {
	if serverURL != "" {
		return serverURL
	}
	if env := os.Getenv("PRAXIS_SERVER_URL"); env != "" {
		return env
	}
	return defaultServerURL
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 2 * time.Minute}
}

// getJSON fetches path and decodes the response into out.
func getJSON(path string, out any) error {
	resp, err := httpClient().Get(baseURL() + path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// postJSON posts body to path and decodes the response into out. A nil
// body sends an empty POST; a nil out discards the response.
func postJSON(path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	resp, err := httpClient().Post(baseURL()+path, "application/json", &buf)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Category string `json:"category"`
			Reason   string `json:"reason"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Reason != "" {
			return fmt.Errorf("server error (%s): %s", apiErr.Category, apiErr.Reason)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ingestFile uploads a file's bytes to generic storage and returns the ref.
func ingestFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	resp, err := httpClient().Post(baseURL()+"/v1/storage/blobs", "application/octet-stream", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	var out struct {
		Ref string `json:"ref"`
	}
	if err := decodeResponse(resp, &out); err != nil {
		return "", err
	}
	return out.Ref, nil
}

// printJSON pretty-prints a response object to stdout.
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
