package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
)

var (
	ErrInvalidExport = errors.New("invalid export document")
	ErrImportFailed  = errors.New("import could not be written")
)

// ExportDocument is the portable backup of all application data.
type ExportDocument struct {
	DiaryEntries   []models.Entry    `json:"diaryEntries"`
	UserState      models.UserState  `json:"userState"`
	DraftState     models.DraftState `json:"draftState"`
	AppSettings    AppSettings       `json:"appSettings"`
	PendingDeletes []string          `json:"pendingDeletes,omitempty"`
	ExportTime     time.Time         `json:"exportTime"`
}

// Export serializes every key into an indented JSON document.
func Export(ctx context.Context, s Store, now time.Time) ([]byte, error) {
	doc := ExportDocument{
		DiaryEntries:   Entries(ctx, s),
		UserState:      UserState(ctx, s),
		DraftState:     DraftState(ctx, s),
		AppSettings:    Settings(ctx, s),
		PendingDeletes: PendingDeletes(ctx, s),
		ExportTime:     now.UTC(),
	}
	if len(doc.PendingDeletes) == 0 {
		doc.PendingDeletes = nil
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Import validates data and replaces every present section in one write.
// Sections absent from the document are left untouched.
func Import(ctx context.Context, s Store, data []byte) error {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExport, err)
	}

	values := make(map[Key]json.RawMessage, 5)
	decode := func(field string, key Key, dst any) error {
		raw, ok := sections[field]
		if !ok || string(raw) == "null" {
			return nil
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidExport, field, err)
		}
		enc, err := json.Marshal(dst)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidExport, field, err)
		}
		values[key] = enc
		return nil
	}

	var (
		entries  []models.Entry
		user     models.UserState
		draft    models.DraftState
		settings AppSettings
		pending  []string
	)
	if err := decode("diaryEntries", KeyEntries, &entries); err != nil {
		return err
	}
	for _, e := range entries {
		if e.ID == "" || !e.Status.Valid() {
			return fmt.Errorf("%w: entry %q has no id or an unknown status", ErrInvalidExport, e.ID)
		}
	}
	if err := decode("userState", KeyUserState, &user); err != nil {
		return err
	}
	if err := decode("draftState", KeyDraftState, &draft); err != nil {
		return err
	}
	if err := decode("appSettings", KeyAppSettings, &settings); err != nil {
		return err
	}
	if err := decode("pendingDeletes", KeyPendingDeletes, &pending); err != nil {
		return err
	}

	if len(values) == 0 {
		return fmt.Errorf("%w: no known sections", ErrInvalidExport)
	}
	if !s.Restore(ctx, values) {
		return ErrImportFailed
	}
	return nil
}

// Info reports storage usage against the quota.
func Info(ctx context.Context, s Store) Usage {
	return s.Usage(ctx)
}
