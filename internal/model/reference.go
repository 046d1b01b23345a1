package model

import (
	"sort"
	"time"
)

// ValidationStatus tracks whether the reference was assembled into a final
// document.
type ValidationStatus string

const (
	// ValidationNoPlaceholders marks a document that ingested with zero
	// detected fields; there is nothing to validate.
	ValidationNoPlaceholders ValidationStatus = "no_placeholders"
	ValidationPending        ValidationStatus = "pending"
	ValidationComplete       ValidationStatus = "complete"
)

// Reference is the per-document aggregate: the ingested text, its detected
// fields, the dual-indexed facts overlay, and assembly state. It is persisted
// as a single JSON document and mutated under whole-aggregate
// read-modify-write.
type Reference struct {
	ID                 int64             `json:"reference_id"`
	Title              string            `json:"title,omitempty"`
	DocumentSummary    string            `json:"document_summary"`
	DocumentText       string            `json:"document_text"`
	MarkedText         string            `json:"marked_text"`
	ValidationStatus   ValidationStatus  `json:"validation_status"`
	FactsOverlay       map[string]string `json:"facts_overlay"`
	FactsOverlayByName map[string]string `json:"facts_overlay_by_name"`
	Fields             []Field           `json:"fields"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// NewReference builds a pending aggregate around detected fields. A document
// with no detected fields starts as no_placeholders instead. The store
// assigns the numeric id at creation.
func NewReference(title, summary, text, marked string, fields []Field) *Reference {
	status := ValidationPending
	if len(fields) == 0 {
		status = ValidationNoPlaceholders
	}
	now := time.Now().UTC()
	return &Reference{
		Title:              title,
		DocumentSummary:    summary,
		DocumentText:       text,
		MarkedText:         marked,
		ValidationStatus:   status,
		FactsOverlay:       make(map[string]string),
		FactsOverlayByName: make(map[string]string),
		Fields:             fields,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// FieldByID returns the field with the given id, or nil if not found.
func (r *Reference) FieldByID(id string) *Field {
	for i := range r.Fields {
		if r.Fields[i].ID == id {
			return &r.Fields[i]
		}
	}
	return nil
}

// Touch bumps the aggregate's update timestamp.
func (r *Reference) Touch() {
	r.UpdatedAt = time.Now().UTC()
}

// Progress is a snapshot of per-status field counts.
type Progress struct {
	Total      int `json:"total"`
	Filled     int `json:"filled"`
	AutoFilled int `json:"auto_filled"`
	Pending    int `json:"pending"`
	Skipped    int `json:"skipped"`
}

// Progress counts fields by lifecycle state.
func (r *Reference) Progress() Progress {
	p := Progress{Total: len(r.Fields)}
	for i := range r.Fields {
		switch r.Fields[i].Status {
		case StatusFilled:
			p.Filled++
		case StatusAutoFilled:
			p.AutoFilled++
		case StatusSkipped:
			p.Skipped++
		default:
			p.Pending++
		}
	}
	return p
}

// NextPendingID returns the id of the first pending field in document order,
// or "" when nothing is pending.
func (r *Reference) NextPendingID() string {
	for i := range r.Fields {
		if r.Fields[i].Status == StatusPending {
			return r.Fields[i].ID
		}
	}
	return ""
}

// PendingIDs returns all pending field ids in document order.
func (r *Reference) PendingIDs() []string {
	var ids []string
	for i := range r.Fields {
		if r.Fields[i].Status == StatusPending {
			ids = append(ids, r.Fields[i].ID)
		}
	}
	return ids
}

// PendingOrdered returns pending field ids sorted by priority tier, then by
// document order within a tier. This is the ask order surfaced to callers.
func (r *Reference) PendingOrdered() []string {
	type entry struct {
		id       string
		priority int
		index    int
	}
	var pending []entry
	for i := range r.Fields {
		if r.Fields[i].Status == StatusPending {
			pending = append(pending, entry{r.Fields[i].ID, r.Fields[i].Priority, i})
		}
	}
	sort.SliceStable(pending, func(a, b int) bool {
		if pending[a].priority != pending[b].priority {
			return pending[a].priority < pending[b].priority
		}
		return pending[a].index < pending[b].index
	})
	ids := make([]string, len(pending))
	for i, e := range pending {
		ids[i] = e.id
	}
	return ids
}

// HasAutoFilled reports whether any field was machine-filled, which demotes
// an assembled document to the draft trust tier.
func (r *Reference) HasAutoFilled() bool {
	for i := range r.Fields {
		if r.Fields[i].Status == StatusAutoFilled {
			return true
		}
	}
	return false
}
