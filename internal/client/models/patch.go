package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EntryPatch is a field-by-field update. Nil fields are left untouched; a
// non-nil pointer to the zero value clears the field.
type EntryPatch struct {
	Title      *string
	Content    *string
	Mood       *Mood
	Weather    *Weather
	ChildState *ChildState
	ChildID    *string
	ImageRef   *string
	Scene      *string
	Suggestion json.RawMessage
	Timestamp  *float64
}

// Validate checks enumerated fields against their vocabularies.
func (p EntryPatch) Validate() error {
	if p.Mood != nil && !p.Mood.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMood, *p.Mood)
	}
	if p.Weather != nil && !p.Weather.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidWeather, *p.Weather)
	}
	if p.ChildState != nil && !p.ChildState.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidChildState, *p.ChildState)
	}
	if p.Suggestion != nil && !json.Valid(p.Suggestion) {
		return fmt.Errorf("suggestion is not valid JSON")
	}
	return nil
}

// Apply validates the patch and merges it into e. e is unchanged on error.
// Status and ID are never touched by a patch.
func (p EntryPatch) Apply(e *Entry) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Content != nil {
		e.Content = *p.Content
		e.Text = *p.Content
	}
	if p.Mood != nil {
		e.Mood = *p.Mood
	}
	if p.Weather != nil {
		e.Weather = *p.Weather
	}
	if p.ChildState != nil {
		e.ChildState = *p.ChildState
	}
	if p.ChildID != nil {
		e.ChildID = *p.ChildID
	}
	if p.ImageRef != nil {
		e.ImageRef = *p.ImageRef
	}
	if p.Scene != nil {
		e.Scene = *p.Scene
	}
	if p.Suggestion != nil {
		e.Suggestion = bytes.Clone(p.Suggestion)
	}
	if p.Timestamp != nil {
		e.Timestamp = *p.Timestamp
	}
	return nil
}

// PatchFromEntry turns every non-empty user field of e into a patch.
func PatchFromEntry(e Entry) EntryPatch {
	var p EntryPatch
	if e.Title != "" {
		p.Title = &e.Title
	}
	if e.Content != "" {
		p.Content = &e.Content
	}
	if e.Mood != "" {
		p.Mood = &e.Mood
	}
	if e.Weather != "" {
		p.Weather = &e.Weather
	}
	if e.ChildState != "" {
		p.ChildState = &e.ChildState
	}
	if e.ChildID != "" {
		p.ChildID = &e.ChildID
	}
	if e.ImageRef != "" {
		p.ImageRef = &e.ImageRef
	}
	if e.Scene != "" {
		p.Scene = &e.Scene
	}
	if e.Suggestion != nil {
		p.Suggestion = bytes.Clone(e.Suggestion)
	}
	if e.Timestamp != 0 {
		p.Timestamp = &e.Timestamp
	}
	return p
}

// Ptr returns a pointer to v; handy for building patches.
func Ptr[T any](v T) *T { return &v }
