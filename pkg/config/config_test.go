package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DataModels == nil {
		t.Error("DataModels map not initialized")
	}
	if len(cfg.DataModels) != 0 {
		t.Errorf("expected empty mapping, got %v", cfg.DataModels)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("data_models: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	cfg := DefaultConfig()
	cfg.DefaultFolderID = "folder-1"
	cfg.DataModels["dm-1"] = ModelMapping{File: "sales.json", Name: "Sales"}
	cfg.Archive = ArchiveConfig{Backend: "local", LocalPath: "/tmp/archive"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.DefaultFolderID != "folder-1" {
		t.Errorf("DefaultFolderID = %q", loaded.DefaultFolderID)
	}
	if m := loaded.DataModels["dm-1"]; m.File != "sales.json" || m.Name != "Sales" {
		t.Errorf("mapping = %+v", m)
	}
	if loaded.Archive.Backend != "local" {
		t.Errorf("archive backend = %q", loaded.Archive.Backend)
	}
}

func TestModelIDForFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataModels["dm-1"] = ModelMapping{File: "sales.json"}

	tests := []struct {
		file string
		want string
	}{
		{"sales.json", "dm-1"},
		{"data-models/sales.json", "dm-1"},
		{"unknown.json", ""},
	}
	for _, tt := range tests {
		if got := cfg.ModelIDForFile(tt.file); got != tt.want {
			t.Errorf("ModelIDForFile(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestRecordSyncAndPull(t *testing.T) {
	cfg := DefaultConfig()
	at := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	cfg.RecordSync("dm-1", "data-models/sales.json", "Sales", at)
	m := cfg.DataModels["dm-1"]
	if m.File != "sales.json" {
		t.Errorf("File = %q, want base name", m.File)
	}
	if m.LastSynced != "2024-03-15T10:30:00Z" {
		t.Errorf("LastSynced = %q", m.LastSynced)
	}
	if m.LastPulled != "" {
		t.Errorf("LastPulled = %q, want empty", m.LastPulled)
	}

	cfg.RecordPull("dm-1", "sales.json", "Sales v2", at.Add(time.Hour))
	m = cfg.DataModels["dm-1"]
	if m.LastPulled != "2024-03-15T11:30:00Z" {
		t.Errorf("LastPulled = %q", m.LastPulled)
	}
	if m.LastSynced != "2024-03-15T10:30:00Z" {
		t.Error("RecordPull must not clear LastSynced")
	}
	if m.Name != "Sales v2" {
		t.Errorf("Name = %q", m.Name)
	}
}
