package services

import "errors"

var (
	ErrNotFound           = errors.New("entry not found")
	ErrNotDraft           = errors.New("entry is not a draft")
	ErrNoDraft            = errors.New("no current draft")
	ErrNotSynced          = errors.New("entry saved locally but not synced")
	ErrDeletedDuringSync  = errors.New("entry was deleted while its sync was in flight")
	ErrSyncInProgress     = errors.New("sync already in progress for entry")
	ErrStorage            = errors.New("local storage write failed")
	ErrInvalidImportData  = errors.New("invalid draft import data")
	ErrEmptyAnalysisImage = errors.New("image is empty")
)
