package model

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDocumentUnmarshalCapturesExtra(t *testing.T) {
	data := []byte(`{
		"name": "Sales",
		"schemaVersion": "v1",
		"folderId": "f-123",
		"pages": [{"id": "p1", "name": "Main"}]
	}`)

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}

	if doc.Name != "Sales" {
		t.Errorf("Name = %q, want Sales", doc.Name)
	}
	if len(doc.Pages) != 1 || doc.Pages[0].ID != "p1" {
		t.Errorf("Pages = %+v", doc.Pages)
	}
	if doc.Extra["schemaVersion"] != "v1" {
		t.Errorf("Extra[schemaVersion] = %v, want v1", doc.Extra["schemaVersion"])
	}
	if doc.Extra["folderId"] != "f-123" {
		t.Errorf("Extra[folderId] = %v, want f-123", doc.Extra["folderId"])
	}
	if _, ok := doc.Extra["name"]; ok {
		t.Error("modeled field name leaked into Extra")
	}
}

func TestDocumentMarshalRoundTrip(t *testing.T) {
	data := []byte(`{"dataModelId":"dm1","name":"Sales","pages":[{"id":"p1","elements":[{"id":"e1","columns":[{"id":"c1","name":"amount","type":"number"}]}]}]}`)

	doc, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	reparsed, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Equal(reparsed) {
		t.Errorf("round trip changed document:\n in: %s\nout: %s", data, out)
	}
	if reparsed.Pages[0].Elements[0].Columns[0].Extra["type"] != "number" {
		t.Error("column vendor field lost in round trip")
	}
}

func TestVendorFieldsSurviveAtEveryLevel(t *testing.T) {
	// Every level of the hierarchy carries fields the structs do not
	// model; pull/sync write specs back to disk, so none may be lost.
	data := []byte(`{
		"name": "Sales",
		"schemaVersion": 1,
		"pages": [{
			"id": "p1",
			"layout": {"grid": true},
			"elements": [{
				"id": "e1",
				"visualization": "bar",
				"columns": [{"id": "c1", "name": "amount", "format": "usd"}]
			}]
		}]
	}`)

	doc, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Pages[0].Extra["layout"] == nil {
		t.Error("page-level vendor field not captured")
	}
	if doc.Pages[0].Elements[0].Extra["visualization"] != "bar" {
		t.Error("element-level vendor field not captured")
	}

	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"schemaVersion", "layout", "visualization", "format"} {
		if !strings.Contains(string(out), `"`+key+`"`) {
			t.Errorf("round trip dropped %q: %s", key, out)
		}
	}

	reparsed, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Equal(reparsed) {
		t.Errorf("round trip changed document:\n in: %s\nout: %s", data, out)
	}
}

func TestDocumentMarshalDeterministic(t *testing.T) {
	doc := &Document{
		Name:  "M",
		Extra: map[string]any{"zeta": 1, "alpha": 2, "folderId": "f"},
	}

	first, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		out, err := json.Marshal(doc)
		if err != nil {
			t.Fatal(err)
		}
		if string(out) != string(first) {
			t.Fatalf("run %d: output %s differs from %s", i, out, first)
		}
	}
}

func TestDocumentFields(t *testing.T) {
	doc := &Document{
		Name:  "M",
		Pages: []Page{{ID: "p1"}},
		Extra: map[string]any{"schemaVersion": float64(1)},
	}

	fields := doc.Fields()
	if fields["name"] != "M" {
		t.Errorf("fields[name] = %v", fields["name"])
	}
	if fields["schemaVersion"] != float64(1) {
		t.Errorf("fields[schemaVersion] = %v", fields["schemaVersion"])
	}
	if _, ok := fields["description"]; ok {
		t.Error("unset description should be absent")
	}
	if !reflect.DeepEqual(fields["pages"], doc.Pages) {
		t.Errorf("fields[pages] = %v", fields["pages"])
	}
}

func TestDocumentEqual(t *testing.T) {
	a := &Document{Name: "M", Extra: map[string]any{"v": float64(1)}}
	b := &Document{Name: "M", Extra: map[string]any{"v": float64(1)}}
	c := &Document{Name: "M", Extra: map[string]any{"v": float64(2)}}

	if !a.Equal(b) {
		t.Error("equal documents reported unequal")
	}
	if a.Equal(c) {
		t.Error("documents with different vendor fields reported equal")
	}
	var nilDoc *Document
	if a.Equal(nil) {
		t.Error("non-nil equals nil")
	}
	if !nilDoc.Equal(nil) {
		t.Error("nil should equal nil")
	}
}
