// Package models defines client-side data models used by the diary engine.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an Entry.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSaved    Status = "saved"
	StatusExported Status = "exported"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSaved, StatusExported:
		return true
	}
	return false
}

// CanTransition reports whether the state machine allows s -> next.
// Deletion is handled separately and is allowed from draft and saved only.
func (s Status) CanTransition(next Status) bool {
	switch {
	case s == StatusDraft && next == StatusSaved:
		return true
	case s == StatusSaved && next == StatusExported:
		return true
	}
	return false
}

// Deletable reports whether an entry in state s may be deleted.
func (s Status) Deletable() bool {
	return s == StatusDraft || s == StatusSaved
}

// Entry is a diary entry as stored locally and exchanged with the backend.
// Content and Text always carry the same value; Text is the legacy field
// name older backends still read.
type Entry struct {
	// ID is client-assigned (draft_<ms>_<rand> or diary_<ms>_<rand>) and
	// replaced by the server id after a successful create.
	ID string `json:"id"`

	// Timestamp is seconds since epoch; the ordering key.
	Timestamp float64 `json:"ts"`

	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Text    string `json:"text,omitempty"`

	Mood       Mood       `json:"mood,omitempty"`
	Weather    Weather    `json:"weather,omitempty"`
	ChildState ChildState `json:"childState,omitempty"`
	ChildID    string     `json:"childId,omitempty"`

	// ImageRef is either an embedded data URI or a remote URL.
	ImageRef string `json:"image_url,omitempty"`
	Scene    string `json:"scene,omitempty"`

	// Suggestion is passed through unmodified.
	Suggestion json.RawMessage `json:"suggestion,omitempty"`

	CreatedAt string `json:"created_at,omitempty"`
	Status    Status `json:"status"`

	// PendingSync marks an optimistic placeholder whose remote create has
	// not succeeded yet. Never sent to the server.
	PendingSync bool `json:"pendingSync,omitempty"`
}

// Normalize restores the content/text alias invariant. Content wins when both
// are set; a backend that only returns text fills content.
func (e *Entry) Normalize() {
	if e.Content == "" && e.Text != "" {
		e.Content = e.Text
	}
	e.Text = e.Content
}

// Clone returns a deep copy.
func (e Entry) Clone() Entry {
	if e.Suggestion != nil {
		e.Suggestion = bytes.Clone(e.Suggestion)
	}
	return e
}

// Time converts Timestamp to a time.Time.
func (e Entry) Time() time.Time {
	sec := int64(e.Timestamp)
	nsec := int64((e.Timestamp - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// Timestamp converts t to fractional seconds since epoch with millisecond precision.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}

// NewDraftID returns a fresh draft id of the form draft_<ms>_<rand>.
func NewDraftID(now time.Time) string {
	return fmt.Sprintf("draft_%d_%s", now.UnixMilli(), randSuffix())
}

// NewEntryID returns a fresh placeholder id of the form diary_<ms>_<rand>.
func NewEntryID(now time.Time) string {
	return fmt.Sprintf("diary_%d_%s", now.UnixMilli(), randSuffix())
}

func randSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
