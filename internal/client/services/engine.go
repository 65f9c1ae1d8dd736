package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/kidsdiary/internal/client/client"
	"github.com/dmitrijs2005/kidsdiary/internal/client/images"
	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
	"github.com/dmitrijs2005/kidsdiary/internal/client/storage"
	"github.com/dmitrijs2005/kidsdiary/internal/logging"
)

// Engine wires the entry repository, the draft controller and preferences
// over one store and gateway. Nothing happens until Initialize is called.
type Engine struct {
	Entries     EntryService
	Drafts      DraftService
	Preferences PreferenceService

	store storage.Store
	log   logging.Logger
	now   func() time.Time
	once  sync.Once
}

type EngineOptions struct {
	Client        client.Client
	Store         storage.Store
	Uploader      images.Uploader
	AutoSaveDelay time.Duration
	Scheduler     Scheduler
	Logger        logging.Logger
}

func NewEngine(opts EngineOptions) *Engine {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	prefs := NewPreferenceService(opts.Store, opts.Logger)
	return &Engine{
		Entries:     NewEntryService(opts.Client, opts.Store, opts.Uploader, opts.Logger),
		Preferences: prefs,
		Drafts: NewDraftService(opts.Store, DraftOptions{
			Delay:     opts.AutoSaveDelay,
			Scheduler: opts.Scheduler,
			Policy:    prefs,
			Logger:    opts.Logger,
		}),
		store: opts.Store,
		log:   opts.Logger.With("component", "engine"),
		now:   time.Now,
	}
}

// Initialize restores preferences, the current draft and the local entry
// list. Only the first call has an effect.
func (e *Engine) Initialize(ctx context.Context) {
	e.once.Do(func() {
		e.Preferences.Initialize(ctx)
		e.Drafts.Initialize(ctx)
		e.Entries.LoadLocal(ctx)
		e.log.Info(ctx, "engine initialized", "entries", e.Entries.Count())
	})
}

// Publish moves the current draft into the collection and pushes it to the
// gateway. The draft controller is cleared only when the push succeeds;
// otherwise both the controller and the collection keep the same draft.
func (e *Engine) Publish(ctx context.Context) (models.Entry, error) {
	draft, ok := e.Drafts.Current()
	if !ok {
		return models.Entry{}, ErrNoDraft
	}

	if _, err := e.Entries.SaveDraft(ctx, draft); err != nil && !errors.Is(err, ErrStorage) {
		return models.Entry{}, fmt.Errorf("save draft: %w", err)
	}

	published, err := e.Entries.PublishDraft(ctx, draft.ID)
	if err != nil {
		return published, err
	}

	if err := e.Drafts.Clear(ctx); err != nil {
		e.log.Warn(ctx, "draft published but controller state not persisted", "error", err)
	}
	return published, nil
}

// Export returns a JSON backup of all local data.
func (e *Engine) Export(ctx context.Context) ([]byte, error) {
	if err := e.Drafts.Save(ctx); err != nil && !errors.Is(err, ErrNoDraft) {
		e.log.Warn(ctx, "current draft not committed before export", "error", err)
	}
	return storage.Export(ctx, e.store, e.now())
}

// Import replaces local data with a backup and reloads every component.
func (e *Engine) Import(ctx context.Context, data []byte) error {
	if err := storage.Import(ctx, e.store, data); err != nil {
		return err
	}
	e.Entries.Reset()
	e.Entries.LoadLocal(ctx)
	e.Drafts.Reload(ctx)
	e.Preferences.Reload(ctx)
	return nil
}

// ClearAll wipes the store and in-memory state.
func (e *Engine) ClearAll(ctx context.Context) error {
	e.Drafts.Close()
	if !storage.ClearAll(ctx, e.store) {
		return ErrStorage
	}
	e.Entries.Reset()
	e.Entries.LoadLocal(ctx)
	e.Drafts.Reload(ctx)
	e.Preferences.Reload(ctx)
	return nil
}

func (e *Engine) StorageInfo(ctx context.Context) storage.Usage {
	return storage.Info(ctx, e.store)
}

func (e *Engine) Close() {
	e.Drafts.Close()
}
