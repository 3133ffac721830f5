package model

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// longStringLen is the threshold above which changed string fields are
// reported by length rather than by content.
const longStringLen = 50

// ShallowDiff is the fallback differ: a coarse top-level field comparison
// for document pairs where Compare found nothing structural yet the
// revisions are known to differ (schema metadata, versioning fields, and
// other fields the structural pass does not model). Callers should invoke
// it only in that case.
func ShallowDiff(old, new *Document) []ChangeEntry {
	if new == nil {
		return nil
	}
	if old == nil {
		return []ChangeEntry{{
			Kind:    KindNewDocument,
			Entity:  "model",
			Summary: fmt.Sprintf("Document created (~%d bytes)", serializedSize(new)),
		}}
	}

	oldFields := old.Fields()
	newFields := new.Fields()

	union := make(map[string]bool, len(oldFields)+len(newFields))
	for k := range oldFields {
		union[k] = true
	}
	for k := range newFields {
		union[k] = true
	}
	names := make([]string, 0, len(union))
	for k := range union {
		names = append(names, k)
	}
	sort.Strings(names)

	var changes []ChangeEntry
	for _, name := range names {
		oldVal, inOld := oldFields[name]
		newVal, inNew := newFields[name]

		switch {
		case !inOld:
			changes = append(changes, ChangeEntry{
				Kind:    KindAdded,
				Entity:  "field",
				Summary: fmt.Sprintf("Added field: `%s`", name),
			})
		case !inNew:
			changes = append(changes, ChangeEntry{
				Kind:    KindRemoved,
				Entity:  "field",
				Summary: fmt.Sprintf("Removed field: `%s`", name),
			})
		case !reflect.DeepEqual(oldVal, newVal):
			changes = append(changes, ChangeEntry{
				Kind:    KindModified,
				Entity:  "field",
				Summary: describeFieldChange(name, oldVal, newVal),
			})
		}
	}
	return changes
}

// describeFieldChange summarizes a changed field value. Composite values
// and long strings are compared by size so the report stays bounded.
func describeFieldChange(name string, oldVal, newVal any) string {
	if isComposite(oldVal) {
		return fmt.Sprintf("Changed `%s` (~%d → ~%d bytes)",
			name, serializedSize(oldVal), serializedSize(newVal))
	}
	if s, ok := oldVal.(string); ok && len(s) > longStringLen {
		newLen := 0
		if ns, ok := newVal.(string); ok {
			newLen = len(ns)
		}
		return fmt.Sprintf("Changed `%s` (%d → %d chars)", name, len(s), newLen)
	}
	return fmt.Sprintf("Changed `%s`: `%v` → `%v`", name, oldVal, newVal)
}

// isComposite reports whether a value is a collection or mapping type.
func isComposite(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

// serializedSize approximates the JSON-encoded size of a value.
func serializedSize(v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(data)
}
