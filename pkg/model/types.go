// Package model defines the Sigma data model document shape and the
// comparison engine that reports differences between two revisions.
// These types are the shared vocabulary across all modules.
package model

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
)

// Document is one data model spec as exported by Sigma: a hierarchy of
// pages, elements, and columns. Documents are immutable once parsed.
//
// Vendor fields the struct does not model (schemaVersion, folderId,
// dataModelId, audit fields, ...) are preserved in Extra so that equality
// checks and the fallback differ see the full record.
type Document struct {
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Pages       []Page         `json:"pages,omitempty"`
	Extra       map[string]any `json:"-"`
}

// Page is a named grouping of elements, matched across revisions by ID.
// Like Document and Column it keeps unmodeled vendor fields in Extra so a
// parsed spec writes back without loss.
type Page struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	Elements []Element      `json:"elements,omitempty"`
	Extra    map[string]any `json:"-"`
}

// Element is a table, view, or similar container of columns.
type Element struct {
	ID      string         `json:"id"`
	Name    string         `json:"name,omitempty"`
	Kind    string         `json:"kind,omitempty"`
	Columns []Column       `json:"columns,omitempty"`
	Extra   map[string]any `json:"-"`
}

// Column is a single field of an element. ID may be absent, in which case
// Name serves as the matching identity. Extra holds any vendor-specific
// fields (type, format, folder, ...) opaquely.
type Column struct {
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name,omitempty"`
	Formula string         `json:"formula,omitempty"`
	Extra   map[string]any `json:"-"`
}

// Known keys per level: anything else lands in the level's Extra map.
var (
	documentKnownKeys = map[string]bool{"name": true, "description": true, "pages": true}
	pageKnownKeys     = map[string]bool{"id": true, "name": true, "elements": true}
	elementKnownKeys  = map[string]bool{"id": true, "name": true, "kind": true, "columns": true}
	columnKnownKeys   = map[string]bool{"id": true, "name": true, "formula": true}
)

// captureExtra collects the keys of data not listed in known.
func captureExtra(data []byte, known map[string]bool) (map[string]any, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var extra map[string]any
	for key, val := range raw {
		if known[key] {
			continue
		}
		var v any
		if err := json.Unmarshal(val, &v); err != nil {
			return nil, err
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[key] = v
	}
	return extra, nil
}

// UnmarshalJSON parses the modeled fields and captures every other
// top-level key into Extra.
func (d *Document) UnmarshalJSON(data []byte) error {
	type alias Document
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*d = Document(a)

	extra, err := captureExtra(data, documentKnownKeys)
	if err != nil {
		return err
	}
	d.Extra = extra
	return nil
}

// MarshalJSON emits the modeled fields merged with Extra, so a parsed
// document round-trips without losing vendor fields.
func (d Document) MarshalJSON() ([]byte, error) {
	type alias Document
	return marshalWithExtra(alias(d), d.Extra)
}

func (p *Page) UnmarshalJSON(data []byte) error {
	type alias Page
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Page(a)

	extra, err := captureExtra(data, pageKnownKeys)
	if err != nil {
		return err
	}
	p.Extra = extra
	return nil
}

func (p Page) MarshalJSON() ([]byte, error) {
	type alias Page
	return marshalWithExtra(alias(p), p.Extra)
}

func (e *Element) UnmarshalJSON(data []byte) error {
	type alias Element
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = Element(a)

	extra, err := captureExtra(data, elementKnownKeys)
	if err != nil {
		return err
	}
	e.Extra = extra
	return nil
}

func (e Element) MarshalJSON() ([]byte, error) {
	type alias Element
	return marshalWithExtra(alias(e), e.Extra)
}

func (c *Column) UnmarshalJSON(data []byte) error {
	type alias Column
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = Column(a)

	extra, err := captureExtra(data, columnKnownKeys)
	if err != nil {
		return err
	}
	c.Extra = extra
	return nil
}

func (c Column) MarshalJSON() ([]byte, error) {
	type alias Column
	return marshalWithExtra(alias(c), c.Extra)
}

// marshalWithExtra marshals v, then splices the extra keys into the
// resulting object. Extra keys never shadow modeled fields.
func marshalWithExtra(v any, extra map[string]any) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	if merged == nil {
		merged = make(map[string]json.RawMessage)
	}
	for key, val := range extra {
		if _, exists := merged[key]; exists {
			continue
		}
		enc, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		merged[key] = enc
	}

	// Deterministic key order for stable on-disk serialization.
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(merged[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Fields returns the full top-level field map of the document: modeled
// fields (when set) plus every Extra field. Used by the fallback differ.
func (d *Document) Fields() map[string]any {
	fields := make(map[string]any, len(d.Extra)+3)
	for k, v := range d.Extra {
		fields[k] = v
	}
	if d.Name != "" {
		fields["name"] = d.Name
	}
	if d.Description != "" {
		fields["description"] = d.Description
	}
	if d.Pages != nil {
		fields["pages"] = d.Pages
	}
	return fields
}

// Equal reports whether two documents are deeply equal, including
// unmodeled vendor fields. A nil document equals only another nil.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return reflect.DeepEqual(*d, *other)
}
