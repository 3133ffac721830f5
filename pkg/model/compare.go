package model

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ChangeKind classifies one reported difference.
type ChangeKind string

const (
	KindNewDocument ChangeKind = "new_document"
	KindAdded       ChangeKind = "added"
	KindRemoved     ChangeKind = "removed"
	KindRenamed     ChangeKind = "renamed"
	KindModified    ChangeKind = "modified"
)

// ChangeEntry is one reported unit of difference between two document
// revisions: a classification plus its human-readable rendering.
type ChangeEntry struct {
	Kind    ChangeKind `json:"kind"`
	Entity  string     `json:"entity"` // model, page, element, column, field
	Summary string     `json:"summary"`
}

func (e ChangeEntry) String() string { return e.Summary }

// descriptionPreviewLen bounds the description excerpt included when a
// description first appears.
const descriptionPreviewLen = 100

// maxColumnLabels bounds the added/removed/modified column lists rendered
// per element; anything beyond is summarized as a count.
const maxColumnLabels = 5

// Compare reports the structural differences between an old and a new
// revision of a document. old == nil means there is no prior revision, in
// which case the full contents of new are enumerated instead of diffed.
//
// Pages and elements are matched by ID, columns by ID with name as the
// fallback identity. Sequence order is never compared. Output ordering is
// deterministic: every identity-key set is visited in sorted order.
func Compare(old, new *Document) []ChangeEntry {
	if new == nil {
		return nil
	}
	if old == nil {
		return describeNewDocument(new)
	}

	var changes []ChangeEntry
	changes = append(changes, compareScalar("model", "Name", old.Name, new.Name, false)...)
	changes = append(changes, compareScalar("model", "Description", old.Description, new.Description, true)...)
	changes = append(changes, comparePages(old.Pages, new.Pages)...)
	return changes
}

// describeNewDocument enumerates every element of a document that has no
// prior revision, in page-then-element encounter order.
func describeNewDocument(doc *Document) []ChangeEntry {
	summary := "New data model"
	if doc.Name != "" {
		summary = fmt.Sprintf("New data model: `%s`", doc.Name)
	}
	changes := []ChangeEntry{{Kind: KindNewDocument, Entity: "model", Summary: summary}}

	for _, page := range doc.Pages {
		for _, elem := range page.Elements {
			changes = append(changes, ChangeEntry{
				Kind:   KindAdded,
				Entity: "element",
				Summary: fmt.Sprintf("%s: `%s` (%d columns)",
					elemKind(elem), elemName(elem.Name), len(elem.Columns)),
			})
		}
	}
	return changes
}

// compareScalar diffs one top-level scalar field. When preview is set, the
// new value is excerpted on first appearance rather than echoed in full.
func compareScalar(entity, label, oldVal, newVal string, preview bool) []ChangeEntry {
	switch {
	case oldVal == newVal:
		return nil
	case oldVal == "":
		val := newVal
		if preview {
			val = previewString(val, descriptionPreviewLen)
		}
		return []ChangeEntry{{
			Kind:    KindAdded,
			Entity:  entity,
			Summary: fmt.Sprintf("%s added: `%s`", label, val),
		}}
	case newVal == "":
		return []ChangeEntry{{
			Kind:    KindRemoved,
			Entity:  entity,
			Summary: fmt.Sprintf("%s removed (was `%s`)", label, previewString(oldVal, descriptionPreviewLen)),
		}}
	default:
		if preview {
			return []ChangeEntry{{
				Kind:    KindModified,
				Entity:  entity,
				Summary: fmt.Sprintf("%s changed", label),
			}}
		}
		return []ChangeEntry{{
			Kind:    KindModified,
			Entity:  entity,
			Summary: fmt.Sprintf("%s: `%s` → `%s`", label, oldVal, newVal),
		}}
	}
}

func comparePages(oldPages, newPages []Page) []ChangeEntry {
	oldByID := make(map[string]Page, len(oldPages))
	for _, p := range oldPages {
		oldByID[p.ID] = p
	}
	newByID := make(map[string]Page, len(newPages))
	for _, p := range newPages {
		newByID[p.ID] = p
	}

	var changes []ChangeEntry
	for _, id := range sortedKeysNotIn(newByID, oldByID) {
		changes = append(changes, ChangeEntry{
			Kind:    KindAdded,
			Entity:  "page",
			Summary: fmt.Sprintf("New page: `%s`", elemName(newByID[id].Name)),
		})
	}
	for _, id := range sortedKeysNotIn(oldByID, newByID) {
		changes = append(changes, ChangeEntry{
			Kind:    KindRemoved,
			Entity:  "page",
			Summary: fmt.Sprintf("Removed page: `%s`", elemName(oldByID[id].Name)),
		})
	}
	for _, id := range sortedKeysIn(oldByID, newByID) {
		oldPage, newPage := oldByID[id], newByID[id]
		if oldPage.Name != newPage.Name {
			changes = append(changes, ChangeEntry{
				Kind:    KindRenamed,
				Entity:  "page",
				Summary: fmt.Sprintf("Renamed page: `%s` → `%s`", elemName(oldPage.Name), elemName(newPage.Name)),
			})
		}
		changes = append(changes, compareElements(oldPage.Elements, newPage.Elements)...)
	}
	return changes
}

func compareElements(oldElems, newElems []Element) []ChangeEntry {
	oldByID := make(map[string]Element, len(oldElems))
	for _, e := range oldElems {
		oldByID[e.ID] = e
	}
	newByID := make(map[string]Element, len(newElems))
	for _, e := range newElems {
		newByID[e.ID] = e
	}

	var changes []ChangeEntry
	for _, id := range sortedKeysNotIn(newByID, oldByID) {
		e := newByID[id]
		changes = append(changes, ChangeEntry{
			Kind:    KindAdded,
			Entity:  "element",
			Summary: fmt.Sprintf("New %s: `%s`", elemKind(e), elemName(e.Name)),
		})
	}
	for _, id := range sortedKeysNotIn(oldByID, newByID) {
		e := oldByID[id]
		changes = append(changes, ChangeEntry{
			Kind:    KindRemoved,
			Entity:  "element",
			Summary: fmt.Sprintf("Removed %s: `%s`", elemKind(e), elemName(e.Name)),
		})
	}
	for _, id := range sortedKeysIn(oldByID, newByID) {
		oldElem, newElem := oldByID[id], newByID[id]
		if oldElem.Name != newElem.Name {
			changes = append(changes, ChangeEntry{
				Kind:    KindRenamed,
				Entity:  "element",
				Summary: fmt.Sprintf("Renamed %s: `%s` → `%s`", elemKind(newElem), elemName(oldElem.Name), elemName(newElem.Name)),
			})
		}
		changes = append(changes, compareColumns(elemName(newElem.Name), oldElem.Columns, newElem.Columns)...)
	}
	return changes
}

// compareColumns matches the columns of one element across revisions.
// The identity key is the column ID when present, otherwise the name;
// columns with neither collapse onto the empty key and only one survives
// matching. A rename is reported only for an ID match whose display name
// changed; a name-keyed match cannot rename since the key is the name.
// The same column may be reported as both renamed and modified.
func compareColumns(elemLabel string, oldCols, newCols []Column) []ChangeEntry {
	oldByKey := make(map[string]Column, len(oldCols))
	for _, c := range oldCols {
		oldByKey[columnKey(c)] = c
	}
	newByKey := make(map[string]Column, len(newCols))
	for _, c := range newCols {
		newByKey[columnKey(c)] = c
	}

	added := columnLabels(sortedKeysNotIn(newByKey, oldByKey), newByKey)
	removed := columnLabels(sortedKeysNotIn(oldByKey, newByKey), oldByKey)

	var changes []ChangeEntry
	var modified []string
	for _, key := range sortedKeysIn(oldByKey, newByKey) {
		oldCol, newCol := oldByKey[key], newByKey[key]
		if oldCol.ID != "" && oldCol.ID == newCol.ID && oldCol.Name != newCol.Name {
			changes = append(changes, ChangeEntry{
				Kind:    KindRenamed,
				Entity:  "column",
				Summary: fmt.Sprintf("`%s`: Renamed column: `%s` → `%s`", elemLabel, oldCol.Name, newCol.Name),
			})
		}
		if columnChanged(oldCol, newCol) {
			modified = append(modified, columnLabel(newCol))
		}
	}

	if len(added) > 0 {
		changes = append(changes, ChangeEntry{
			Kind:    KindAdded,
			Entity:  "column",
			Summary: fmt.Sprintf("`%s`: Added columns: %s", elemLabel, formatColumnList(added)),
		})
	}
	if len(removed) > 0 {
		changes = append(changes, ChangeEntry{
			Kind:    KindRemoved,
			Entity:  "column",
			Summary: fmt.Sprintf("`%s`: Removed columns: %s", elemLabel, formatColumnList(removed)),
		})
	}
	if len(modified) > 0 {
		changes = append(changes, ChangeEntry{
			Kind:    KindModified,
			Entity:  "column",
			Summary: fmt.Sprintf("`%s`: Modified columns: %s", elemLabel, formatColumnList(modified)),
		})
	}
	return changes
}

// columnChanged reports whether a matched column's record differs beyond
// its display name. The name is excluded because an ID-keyed name change
// is the rename path's concern, and a name-keyed match has equal names by
// construction.
func columnChanged(a, b Column) bool {
	a.Name, b.Name = "", ""
	return !reflect.DeepEqual(a, b)
}

// columnKey derives the matching identity for a column.
func columnKey(c Column) string {
	if c.ID != "" {
		return c.ID
	}
	return c.Name
}

// columnLabel is the display label for a column in rendered lists.
func columnLabel(c Column) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// columnLabels maps identity keys back to display labels, keeping the
// sorted-key ordering.
func columnLabels(keys []string, byKey map[string]Column) []string {
	labels := make([]string, len(keys))
	for i, key := range keys {
		labels[i] = columnLabel(byKey[key])
	}
	return labels
}

// formatColumnList renders at most maxColumnLabels backticked labels,
// summarizing the remainder as a count.
func formatColumnList(labels []string) string {
	shown := labels
	elided := 0
	if len(shown) > maxColumnLabels {
		elided = len(shown) - maxColumnLabels
		shown = shown[:maxColumnLabels]
	}

	quoted := make([]string, len(shown))
	for i, l := range shown {
		quoted[i] = "`" + l + "`"
	}
	out := strings.Join(quoted, ", ")
	if elided > 0 {
		out += fmt.Sprintf(" and %d more", elided)
	}
	return out
}

func elemName(name string) string {
	if name == "" {
		return "Unnamed"
	}
	return name
}

func elemKind(e Element) string {
	if e.Kind == "" {
		return "element"
	}
	return e.Kind
}

func previewString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// sortedKeysNotIn returns the keys of a absent from b, sorted.
func sortedKeysNotIn[V any](a, b map[string]V) []string {
	var keys []string
	for k := range a {
		if _, ok := b[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// sortedKeysIn returns the keys present in both a and b, sorted.
func sortedKeysIn[V any](a, b map[string]V) []string {
	var keys []string
	for k := range a {
		if _, ok := b[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
