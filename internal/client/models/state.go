package models

import "time"

// DraftState is the persisted shape of the draft controller.
type DraftState struct {
	CurrentDraft    *Entry     `json:"currentDraft,omitempty"`
	AutoSaveEnabled bool       `json:"autoSaveEnabled"`
	LastSaved       *time.Time `json:"lastSaved,omitempty"`
}

func DefaultDraftState() DraftState {
	return DraftState{AutoSaveEnabled: true}
}

type Location struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name,omitempty"`
}

type Preferences struct {
	AutoSave        bool      `json:"autoSave"`
	DefaultLocation *Location `json:"defaultLocation,omitempty"`
	Theme           Theme     `json:"theme"`
}

// UserState holds session and preference data.
type UserState struct {
	CurrentChildID string      `json:"currentChildId,omitempty"`
	Preferences    Preferences `json:"preferences"`
}

func DefaultUserState() UserState {
	return UserState{Preferences: Preferences{AutoSave: true, Theme: ThemeAuto}}
}
