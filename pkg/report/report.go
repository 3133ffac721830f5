// Package report assembles change reports for batches of data model files.
// It owns the rule that ties the structural comparator and the fallback
// field differ together.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/twells89/sigma-data-model-tool/pkg/model"
)

// FileStatus classifies the outcome of comparing one file.
type FileStatus string

const (
	// StatusChanged means the comparison produced at least one entry.
	StatusChanged FileStatus = "CHANGED"
	// StatusUnchanged means both passes found nothing and the revisions
	// are equal.
	StatusUnchanged FileStatus = "UNCHANGED"
	// StatusUnparseable means a revision could not be deserialized
	// upstream; no comparison was attempted.
	StatusUnparseable FileStatus = "UNPARSEABLE"
)

// FileReport is the comparison result for a single data model file.
type FileReport struct {
	File     string              `json:"file"`
	Status   FileStatus          `json:"status"`
	Entries  []model.ChangeEntry `json:"entries,omitempty"`
	Fallback bool                `json:"fallback"` // entries came from the shallow differ
}

// Report aggregates the file reports for one comparison run.
type Report struct {
	ID          string       `json:"id"`
	BaseRef     string       `json:"base_ref,omitempty"`
	HeadRef     string       `json:"head_ref,omitempty"`
	Files       []FileReport `json:"files"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// New creates an empty report for the given ref pair.
func New(baseRef, headRef string) *Report {
	return &Report{
		ID:          uuid.New().String(),
		BaseRef:     baseRef,
		HeadRef:     headRef,
		GeneratedAt: time.Now().UTC(),
	}
}

// HasChanges reports whether any file produced entries.
func (r *Report) HasChanges() bool {
	for _, f := range r.Files {
		if f.Status == StatusChanged {
			return true
		}
	}
	return false
}

// BuildFile compares one old/new document pair. When the structural pass
// yields nothing but the revisions differ, the shallow field differ runs
// so the report is never silently empty for documents known to differ.
// Each call is independent; callers may run file pairs in parallel.
func BuildFile(file string, old, new *model.Document) FileReport {
	entries := model.Compare(old, new)
	fallback := false

	// Equal is deep equality over the parsed JSON, so it is sensitive to
	// the order of pages/elements/columns. A pure reorder therefore lands
	// in the shallow differ, which reports the containing field by size
	// rather than inventing structural entries the comparator (which never
	// compares sequence order) did not produce.
	if len(entries) == 0 && !old.Equal(new) {
		entries = model.ShallowDiff(old, new)
		fallback = true
	}

	status := StatusChanged
	if len(entries) == 0 {
		status = StatusUnchanged
		fallback = false
	}

	return FileReport{
		File:     file,
		Status:   status,
		Entries:  entries,
		Fallback: fallback,
	}
}

// BuildFromBytes applies the raw-revision policy shared by the CLI and
// the platform service: a missing new revision is a deletion, an
// undeserializable new revision is reported as such, and an old revision
// that is missing or undeserializable is treated as absent so the new
// document is enumerated rather than diffed.
func BuildFromBytes(file string, oldData, newData []byte) FileReport {
	if len(newData) == 0 {
		return Deleted(file)
	}

	newDoc, err := model.Parse(newData)
	if err != nil {
		return Unparseable(file)
	}

	var oldDoc *model.Document
	if len(oldData) > 0 {
		if d, err := model.Parse(oldData); err == nil {
			oldDoc = d
		}
	}

	return BuildFile(file, oldDoc, newDoc)
}

// Unparseable records a file whose new revision failed to deserialize.
func Unparseable(file string) FileReport {
	return FileReport{File: file, Status: StatusUnparseable}
}

// Deleted records a data model file removed in the new revision.
func Deleted(file string) FileReport {
	return FileReport{
		File:   file,
		Status: StatusChanged,
		Entries: []model.ChangeEntry{{
			Kind:    model.KindRemoved,
			Entity:  "model",
			Summary: "Data model deleted",
		}},
	}
}
