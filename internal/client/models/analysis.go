package models

import "encoding/json"

// SuggestionItem is a single recommended item, e.g. "water bottle x2".
type SuggestionItem struct {
	Name string   `json:"name"`
	Qty  *float64 `json:"qty,omitempty"`
	Unit string   `json:"unit,omitempty"`
}

type Suggestion struct {
	ID        string             `json:"id"`
	Category  SuggestionCategory `json:"category"`
	Items     []SuggestionItem   `json:"items"`
	Reasoning string             `json:"reasoning"`
	Source    string             `json:"source,omitempty"`
}

// AnalysisResult is the fixed response shape of the photo-analysis service.
type AnalysisResult struct {
	ChildState  ChildState   `json:"childState,omitempty"`
	Mood        Mood         `json:"mood,omitempty"`
	Weather     Weather      `json:"weather,omitempty"`
	Tags        []string     `json:"tags"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Normalize replaces nil slices so the result always encodes tags and
// suggestions as arrays.
func (a *AnalysisResult) Normalize() {
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if a.Suggestions == nil {
		a.Suggestions = []Suggestion{}
	}
	for i := range a.Suggestions {
		if a.Suggestions[i].Items == nil {
			a.Suggestions[i].Items = []SuggestionItem{}
		}
	}
}

type AnalyzeRequest struct {
	ImageBase64 string  `json:"imageBase64"`
	Timestamp   float64 `json:"timestamp,omitempty"`
	RegionHint  string  `json:"regionHint,omitempty"`
}

// CreateRequest is the payload the backend accepts for a new entry.
type CreateRequest struct {
	Title      string          `json:"title,omitempty"`
	Content    string          `json:"content,omitempty"`
	Mood       Mood            `json:"mood,omitempty"`
	Weather    Weather         `json:"weather,omitempty"`
	ImageRef   string          `json:"image_url,omitempty"`
	Scene      string          `json:"scene,omitempty"`
	Suggestion json.RawMessage `json:"suggestion,omitempty"`
}

// CreateRequestFrom builds a create payload from an entry's user fields.
func CreateRequestFrom(e Entry) CreateRequest {
	return CreateRequest{
		Title:      e.Title,
		Content:    e.Content,
		Mood:       e.Mood,
		Weather:    e.Weather,
		ImageRef:   e.ImageRef,
		Scene:      e.Scene,
		Suggestion: e.Clone().Suggestion,
	}
}
