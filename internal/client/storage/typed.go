package storage

import (
	"context"

	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
)

// AppSettings is free-form application configuration.
type AppSettings map[string]any

// Entries returns the persisted entry list, or an empty list when the key is
// missing or malformed.
func Entries(ctx context.Context, s Store) []models.Entry {
	var entries []models.Entry
	if !s.Get(ctx, KeyEntries, &entries) {
		return []models.Entry{}
	}
	for i := range entries {
		entries[i].Normalize()
	}
	return entries
}

func SetEntries(ctx context.Context, s Store, entries []models.Entry) bool {
	if entries == nil {
		entries = []models.Entry{}
	}
	return s.Set(ctx, KeyEntries, entries)
}

func DraftState(ctx context.Context, s Store) models.DraftState {
	st := models.DefaultDraftState()
	if !s.Get(ctx, KeyDraftState, &st) {
		return models.DefaultDraftState()
	}
	if st.CurrentDraft != nil {
		st.CurrentDraft.Normalize()
	}
	return st
}

func SetDraftState(ctx context.Context, s Store, st models.DraftState) bool {
	return s.Set(ctx, KeyDraftState, st)
}

func UserState(ctx context.Context, s Store) models.UserState {
	st := models.DefaultUserState()
	if !s.Get(ctx, KeyUserState, &st) {
		return models.DefaultUserState()
	}
	if !st.Preferences.Theme.Valid() || st.Preferences.Theme == "" {
		st.Preferences.Theme = models.ThemeAuto
	}
	return st
}

func SetUserState(ctx context.Context, s Store, st models.UserState) bool {
	return s.Set(ctx, KeyUserState, st)
}

func Settings(ctx context.Context, s Store) AppSettings {
	settings := AppSettings{}
	if !s.Get(ctx, KeyAppSettings, &settings) || settings == nil {
		return AppSettings{}
	}
	return settings
}

func SetSettings(ctx context.Context, s Store, settings AppSettings) bool {
	if settings == nil {
		settings = AppSettings{}
	}
	return s.Set(ctx, KeyAppSettings, settings)
}

// PendingDeletes returns ids deleted locally whose remote delete has not been
// confirmed.
func PendingDeletes(ctx context.Context, s Store) []string {
	var ids []string
	if !s.Get(ctx, KeyPendingDeletes, &ids) {
		return []string{}
	}
	return ids
}

func SetPendingDeletes(ctx context.Context, s Store, ids []string) bool {
	if len(ids) == 0 {
		return s.Remove(ctx, KeyPendingDeletes)
	}
	return s.Set(ctx, KeyPendingDeletes, ids)
}

// ClearAll removes every application key. It reports false if any removal
// failed; the others are still attempted.
func ClearAll(ctx context.Context, s Store) bool {
	ok := true
	for _, k := range Keys {
		if !s.Remove(ctx, k) {
			ok = false
		}
	}
	return ok
}
