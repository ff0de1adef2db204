// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided identifiers that end up
// in storage keys, file paths, or oracle prompts. Using these validators
// prevents key injection (a tag containing a separator byte colliding with
// another record's key) and path traversal.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// tagPattern matches valid domain tags.
// Allows: lowercase letters, digits, hyphens, underscores. Must start
// alphanumeric. Max length: 64 characters.
var tagPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,63}$`)

// consumerPattern matches valid consumer identities. Same alphabet as
// tags plus dots for hierarchical names (team.service.instance).
var consumerPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-]{0,127}$`)

// refPattern matches generic storage refs as issued by the blob stores
// (hex content hashes, optionally prefixed with a backend scheme).
var refPattern = regexp.MustCompile(`^(?:[a-z]+:)?[a-zA-Z0-9][a-zA-Z0-9/_\-]{0,255}$`)

// ValidateDomainTag validates a domain tag before it is used in a
// storage key or passed to the oracle.
//
// Valid tags:
//   - 1-64 characters
//   - Lowercase letters a-z, digits 0-9
//   - Hyphens and underscores after the first character
//
// Returns an error if the tag is invalid.
//
// Example:
//
//	if err := validation.ValidateDomainTag(tag); err != nil {
//	    return nil, fmt.Errorf("invalid domain tag: %w", err)
//	}
//	// Safe to use as a key segment
func ValidateDomainTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("domain tag cannot be empty")
	}
	if !tagPattern.MatchString(tag) {
		return fmt.Errorf("invalid domain tag %q (must be 1-64 lowercase alphanumeric chars, hyphens, or underscores)", tag)
	}
	return nil
}

// ValidateDomainTags validates multiple domain tags.
// Returns an error listing all invalid tags if any fail validation.
func ValidateDomainTags(tags []string) error {
	var invalid []string
	for _, t := range tags {
		if err := ValidateDomainTag(t); err != nil {
			invalid = append(invalid, t)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid domain tags: %v", invalid)
	}
	return nil
}

// SanitizeDomainTag normalizes and validates a domain tag.
// Returns the lowercase trimmed tag if valid, or an error if invalid.
func SanitizeDomainTag(tag string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	if err := ValidateDomainTag(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidateConsumer validates a target consumer identity.
func ValidateConsumer(consumer string) error {
	if consumer == "" {
		return fmt.Errorf("consumer identity cannot be empty")
	}
	if !consumerPattern.MatchString(consumer) {
		return fmt.Errorf("invalid consumer identity %q (must be 1-128 alphanumeric chars, dots, hyphens, or underscores)", consumer)
	}
	return nil
}

// ValidateRef validates a generic storage ref before it is resolved
// against a blob backend. Rejects anything that could traverse out of
// the store root.
func ValidateRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("ref cannot be empty")
	}
	if strings.Contains(ref, "..") {
		return fmt.Errorf("invalid ref %q: traversal sequence", ref)
	}
	if !refPattern.MatchString(ref) {
		return fmt.Errorf("invalid ref format: %q", ref)
	}
	return nil
}
