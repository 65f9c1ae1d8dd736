package services

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
	"github.com/dmitrijs2005/kidsdiary/internal/client/storage"
	"github.com/dmitrijs2005/kidsdiary/internal/logging"
)

// PreferenceService holds user preferences, the session's active child and
// free-form app settings. Setters update memory first; a failed write
// returns ErrStorage but the new value stays in effect.
type PreferenceService interface {
	Initialize(ctx context.Context)
	State() models.UserState
	AutoSaveEnabled() bool
	SetAutoSave(ctx context.Context, enabled bool) error
	SetTheme(ctx context.Context, theme models.Theme) error
	SetCurrentChild(ctx context.Context, childID string) error
	SetDefaultLocation(ctx context.Context, loc *models.Location) error

	Setting(key string) (any, bool)
	Settings() storage.AppSettings
	SetSetting(ctx context.Context, key string, value any) error
	// Reload rereads everything from the store.
	Reload(ctx context.Context)
}

type preferenceService struct {
	store storage.Store
	log   logging.Logger

	mu          sync.RWMutex
	state       models.UserState
	settings    storage.AppSettings
	initialized bool
}

func NewPreferenceService(store storage.Store, log logging.Logger) PreferenceService {
	if log == nil {
		log = logging.NewNop()
	}
	return &preferenceService{
		store:    store,
		log:      log.With("component", "preferences"),
		state:    models.DefaultUserState(),
		settings: storage.AppSettings{},
	}
}

func (p *preferenceService) Initialize(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return
	}
	p.reloadLocked(ctx)
}

func (p *preferenceService) Reload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reloadLocked(ctx)
}

func (p *preferenceService) reloadLocked(ctx context.Context) {
	p.state = storage.UserState(ctx, p.store)
	p.settings = storage.Settings(ctx, p.store)
	p.initialized = true
}

func (p *preferenceService) State() models.UserState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st := p.state
	if st.Preferences.DefaultLocation != nil {
		loc := *st.Preferences.DefaultLocation
		st.Preferences.DefaultLocation = &loc
	}
	return st
}

func (p *preferenceService) AutoSaveEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Preferences.AutoSave
}

func (p *preferenceService) SetAutoSave(ctx context.Context, enabled bool) error {
	return p.updateState(ctx, func(st *models.UserState) { st.Preferences.AutoSave = enabled })
}

func (p *preferenceService) SetTheme(ctx context.Context, theme models.Theme) error {
	if theme == "" || !theme.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidTheme, theme)
	}
	return p.updateState(ctx, func(st *models.UserState) { st.Preferences.Theme = theme })
}

func (p *preferenceService) SetCurrentChild(ctx context.Context, childID string) error {
	return p.updateState(ctx, func(st *models.UserState) { st.CurrentChildID = childID })
}

func (p *preferenceService) SetDefaultLocation(ctx context.Context, loc *models.Location) error {
	if loc != nil {
		c := *loc
		loc = &c
	}
	return p.updateState(ctx, func(st *models.UserState) { st.Preferences.DefaultLocation = loc })
}

func (p *preferenceService) updateState(ctx context.Context, fn func(*models.UserState)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.state)
	if !storage.SetUserState(ctx, p.store, p.state) {
		return ErrStorage
	}
	return nil
}

func (p *preferenceService) Setting(key string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.settings[key]
	return v, ok
}

func (p *preferenceService) Settings() storage.AppSettings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.settings)
}

func (p *preferenceService) SetSetting(ctx context.Context, key string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if value == nil {
		delete(p.settings, key)
	} else {
		p.settings[key] = value
	}
	if !storage.SetSettings(ctx, p.store, p.settings) {
		return ErrStorage
	}
	return nil
}
