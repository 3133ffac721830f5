package sigma

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twells89/sigma-data-model-tool/pkg/model"
)

// serverOwnedFields are spec fields the API assigns; sending them on
// create is rejected or silently overwritten.
var serverOwnedFields = []string{
	"dataModelId",
	"ownerId",
	"createdBy",
	"updatedBy",
	"createdAt",
	"updatedAt",
	"documentVersion",
	"latestDocumentVersion",
	"url",
}

// EmbeddedModelID returns the dataModelId carried inside a spec, if any.
func EmbeddedModelID(doc *model.Document) string {
	if doc == nil {
		return ""
	}
	if id, ok := doc.Extra["dataModelId"].(string); ok {
		return id
	}
	return ""
}

// DocumentVersion returns the server revision number of a spec, or 0.
func DocumentVersion(doc *model.Document) int {
	if doc == nil {
		return 0
	}
	switch v := doc.Extra["documentVersion"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// PrepareForCreate returns a copy of the spec suitable for the create
// endpoint: server-owned fields stripped, schemaVersion normalized to an
// integer, and folderId filled from the fallback when the spec has none.
func PrepareForCreate(doc *model.Document, fallbackFolderID string) (*model.Document, error) {
	clean := *doc
	clean.Extra = make(map[string]any, len(doc.Extra))
	for k, v := range doc.Extra {
		clean.Extra[k] = v
	}
	for _, field := range serverOwnedFields {
		delete(clean.Extra, field)
	}

	version, err := normalizeSchemaVersion(clean.Extra["schemaVersion"])
	if err != nil {
		return nil, err
	}
	clean.Extra["schemaVersion"] = version

	if _, ok := clean.Extra["folderId"]; !ok {
		if fallbackFolderID == "" {
			return nil, fmt.Errorf("folderId is required for new data models: " +
				"set default_folder_id in config.yml or SIGMA_FOLDER_ID")
		}
		clean.Extra["folderId"] = fallbackFolderID
	}

	return &clean, nil
}

// normalizeSchemaVersion coerces "v1", "1", or a JSON number to an int,
// defaulting to 1 when the spec carries none.
func normalizeSchemaVersion(v any) (int, error) {
	switch val := v.(type) {
	case nil:
		return 1, nil
	case float64:
		return int(val), nil
	case int:
		return val, nil
	case string:
		n, err := strconv.Atoi(strings.TrimPrefix(val, "v"))
		if err != nil {
			return 0, fmt.Errorf("invalid schemaVersion %q: %w", val, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("invalid schemaVersion type %T", v)
	}
}
