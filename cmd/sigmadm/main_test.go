package main

import (
	"testing"
)

func TestDiffCmdFlags(t *testing.T) {
	cmd := newDiffCmd()
	f := cmd.Flags()

	// Test default values
	base, _ := f.GetString("base")
	if base != "origin/main" {
		t.Errorf("default base = %q, want origin/main", base)
	}
	outputFmt, _ := f.GetString("output")
	if outputFmt != "markdown" {
		t.Errorf("default output = %q, want markdown", outputFmt)
	}

	// Test that flags exist
	for _, flag := range []string{"base", "repo-path", "output"} {
		if f.Lookup(flag) == nil {
			t.Errorf("missing flag: %s", flag)
		}
	}
}

func TestPullCmdFlags(t *testing.T) {
	cmd := newPullCmd()
	f := cmd.Flags()

	out, _ := f.GetString("out")
	if out != "data-models" {
		t.Errorf("default out = %q, want data-models", out)
	}

	for _, flag := range []string{"name", "out", "config", "list"} {
		if f.Lookup(flag) == nil {
			t.Errorf("missing flag: %s", flag)
		}
	}
}

func TestSyncCmdFlags(t *testing.T) {
	cmd := newSyncCmd()
	f := cmd.Flags()

	configPath, _ := f.GetString("config")
	if configPath != "config.yml" {
		t.Errorf("default config = %q, want config.yml", configPath)
	}

	for _, flag := range []string{"all", "folder", "config"} {
		if f.Lookup(flag) == nil {
			t.Errorf("missing flag: %s", flag)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"a", "b", "c"}, "a"},
		{[]string{"", "b", "c"}, "b"},
		{[]string{"", "", "c"}, "c"},
		{[]string{"", "", ""}, ""},
	}

	for _, tt := range tests {
		got := firstNonEmpty(tt.args...)
		if got != tt.want {
			t.Errorf("firstNonEmpty(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sales Pipeline", "Sales_Pipeline"},
		{"revenue-2024.v2", "revenue-2024.v2"},
		{"a/b\\c:d", "a_b_c_d"},
		{"...", "data_model"},
		{"", "data_model"},
	}

	for _, tt := range tests {
		if got := sanitizeFileName(tt.in); got != tt.want {
			t.Errorf("sanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
