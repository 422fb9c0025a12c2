package main

import (
	"strings"
	"testing"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectError bool
		errorMsg    string
		check       func(t *testing.T, opts options)
	}{
		{
			name: "full invocation",
			args: []string{"-o", "/tmp/out", "-ch", "C123", "-json", "-fr", "1700000000", "-to", "1700086400"},
			check: func(t *testing.T, opts options) {
				if opts.OutputDir != "/tmp/out" {
					t.Errorf("OutputDir = %q, want /tmp/out", opts.OutputDir)
				}
				if opts.ChannelID != "C123" {
					t.Errorf("ChannelID = %q, want C123", opts.ChannelID)
				}
				if !opts.JSON {
					t.Error("JSON should be true")
				}
				if opts.Oldest != "1700000000" || opts.Latest != "1700086400" {
					t.Errorf("Range = %q..%q, want 1700000000..1700086400", opts.Oldest, opts.Latest)
				}
			},
		},
		{
			name: "defaults to text format and full history",
			args: []string{"-o", "/tmp/out", "-ch", "C123"},
			check: func(t *testing.T, opts options) {
				if opts.JSON {
					t.Error("JSON should default to false")
				}
				if opts.Oldest != "" || opts.Latest != "" {
					t.Error("Range markers should default to empty")
				}
			},
		},
		{
			name:        "missing channel",
			args:        []string{"-o", "/tmp/out"},
			expectError: true,
			errorMsg:    "channel ID",
		},
		{
			name:        "missing output dir",
			args:        []string{"-ch", "C123"},
			expectError: true,
			errorMsg:    "output directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseArgs(tt.args)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Error = %q, want substring %q", err.Error(), tt.errorMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			tt.check(t, opts)
		})
	}
}
