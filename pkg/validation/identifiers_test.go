package validation

import (
	"testing"
)

func TestValidateDomainTag(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		wantErr bool
	}{
		// Valid tags
		{"simple", "biology", false},
		{"single char", "x", false},
		{"with digit", "web3", false},
		{"hyphenated", "code-quality", false},
		{"underscored", "process_improvement", false},
		{"max length", "a123456789012345678901234567890123456789012345678901234567890123", false},

		// Invalid tags - injection attempts
		{"empty", "", true},
		{"key separator", "dom:code", true},
		{"newline injection", "code\nquality", true},
		{"uppercase", "Biology", true},
		{"too long", "a1234567890123456789012345678901234567890123456789012345678901234", true},
		{"special chars", "code@quality", true},
		{"spaces", "code quality", true},
		{"starts with hyphen", "-code", true},
		{"path traversal", "../etc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDomainTag(tt.tag)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDomainTag(%q) error = %v, wantErr %v", tt.tag, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDomainTags(t *testing.T) {
	tests := []struct {
		name    string
		tags    []string
		wantErr bool
	}{
		{"all valid", []string{"biology", "code-quality"}, false},
		{"one invalid", []string{"biology", "bad tag"}, true},
		{"all invalid", []string{"Bad", "also:bad"}, true},
		{"empty slice", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDomainTags(tt.tags)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDomainTags(%v) error = %v, wantErr %v", tt.tags, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeDomainTag(t *testing.T) {
	got, err := SanitizeDomainTag("  Code-Quality ")
	if err != nil {
		t.Fatalf("SanitizeDomainTag() error = %v", err)
	}
	if got != "code-quality" {
		t.Errorf("SanitizeDomainTag() = %q, want %q", got, "code-quality")
	}

	if _, err := SanitizeDomainTag("not valid!"); err == nil {
		t.Error("SanitizeDomainTag() expected error for invalid input")
	}
}

func TestValidateConsumer(t *testing.T) {
	tests := []struct {
		name     string
		consumer string
		wantErr  bool
	}{
		{"simple", "consumer-A", false},
		{"hierarchical", "team.service.instance-7", false},
		{"empty", "", true},
		{"spaces", "consumer A", true},
		{"key separator", "opt:consumer", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConsumer(tt.consumer)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConsumer(%q) error = %v, wantErr %v", tt.consumer, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRef(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		wantErr bool
	}{
		{"hex hash", "9f86d081884c7d659a2feaa0c55ad015", false},
		{"with scheme", "gcs:blobs/9f86d081884c7d65", false},
		{"empty", "", true},
		{"traversal", "../../etc/passwd", true},
		{"absolute escape", "blobs/../../secrets", true},
		{"space", "blobs/ 9f", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRef(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
		})
	}
}
