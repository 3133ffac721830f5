package sigma

import (
	"testing"

	"github.com/twells89/sigma-data-model-tool/pkg/model"
)

func TestNormalizeSchemaVersion(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int
		wantErr bool
	}{
		{"absent defaults to 1", nil, 1, false},
		{"json number", float64(2), 2, false},
		{"int", 3, 3, false},
		{"v-prefixed string", "v1", 1, false},
		{"bare numeric string", "4", 4, false},
		{"garbage string", "vNext", 0, true},
		{"wrong type", true, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeSchemaVersion(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPrepareForCreateStripsServerFields(t *testing.T) {
	doc := &model.Document{
		Name: "Sales",
		Extra: map[string]any{
			"dataModelId":           "dm-1",
			"ownerId":               "u-1",
			"createdAt":             "2024-01-01",
			"documentVersion":       float64(9),
			"latestDocumentVersion": float64(9),
			"url":                   "https://app.sigmacomputing.com/x",
			"schemaVersion":         "v1",
			"folderId":              "f-1",
		},
	}

	clean, err := PrepareForCreate(doc, "")
	if err != nil {
		t.Fatalf("PrepareForCreate: %v", err)
	}

	for _, field := range serverOwnedFields {
		if _, ok := clean.Extra[field]; ok {
			t.Errorf("server-owned field %q survived", field)
		}
	}
	if clean.Extra["schemaVersion"] != 1 {
		t.Errorf("schemaVersion = %v, want 1", clean.Extra["schemaVersion"])
	}
	if clean.Extra["folderId"] != "f-1" {
		t.Errorf("folderId = %v", clean.Extra["folderId"])
	}

	// The input document must not be mutated.
	if doc.Extra["dataModelId"] != "dm-1" {
		t.Error("PrepareForCreate mutated its input")
	}
}

func TestPrepareForCreateFolderFallback(t *testing.T) {
	doc := &model.Document{Name: "M", Extra: map[string]any{"schemaVersion": float64(1)}}

	if _, err := PrepareForCreate(doc, ""); err == nil {
		t.Error("expected error when no folderId is available")
	}

	clean, err := PrepareForCreate(doc, "fallback-folder")
	if err != nil {
		t.Fatalf("PrepareForCreate: %v", err)
	}
	if clean.Extra["folderId"] != "fallback-folder" {
		t.Errorf("folderId = %v", clean.Extra["folderId"])
	}
}

func TestEmbeddedModelID(t *testing.T) {
	if got := EmbeddedModelID(nil); got != "" {
		t.Errorf("nil doc id = %q", got)
	}
	if got := EmbeddedModelID(&model.Document{}); got != "" {
		t.Errorf("empty doc id = %q", got)
	}
	doc := &model.Document{Extra: map[string]any{"dataModelId": "dm-1"}}
	if got := EmbeddedModelID(doc); got != "dm-1" {
		t.Errorf("id = %q, want dm-1", got)
	}
}

func TestDocumentVersion(t *testing.T) {
	if got := DocumentVersion(nil); got != 0 {
		t.Errorf("nil doc version = %d", got)
	}
	doc := &model.Document{Extra: map[string]any{"documentVersion": float64(12)}}
	if got := DocumentVersion(doc); got != 12 {
		t.Errorf("version = %d, want 12", got)
	}
}
