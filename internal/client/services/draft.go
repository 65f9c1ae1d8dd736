package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/kidsdiary/internal/client/metrics"
	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
	"github.com/dmitrijs2005/kidsdiary/internal/client/storage"
	"github.com/dmitrijs2005/kidsdiary/internal/logging"
)

// DefaultAutoSaveDelay is the autosave debounce window.
const DefaultAutoSaveDelay = 2 * time.Second

const (
	triggerAuto   = "auto"
	triggerManual = "manual"
)

// DraftService owns the single current draft and its autosave timer.
//
// Every setter merges into the current draft, creating an empty one first if
// needed, and (when autosave is effective) restarts the debounce timer, so a
// burst of edits results in one commit DefaultAutoSaveDelay after the last
// edit. Save commits immediately; Clear and Close cancel the timer. A commit
// that fails to reach the store keeps the draft in memory.
type DraftService interface {
	Initialize(ctx context.Context)
	Current() (models.Entry, bool)
	LastSaved() *time.Time

	NewDraft(ctx context.Context, initial models.EntryPatch) (models.Entry, error)
	LoadDraft(ctx context.Context, e models.Entry) error
	Update(ctx context.Context, patch models.EntryPatch) (models.Entry, error)
	SetTitle(ctx context.Context, title string) error
	SetContent(ctx context.Context, content string) error
	SetImage(ctx context.Context, imageRef string) error
	SetMood(ctx context.Context, mood models.Mood) error
	SetWeather(ctx context.Context, weather models.Weather) error
	SetScene(ctx context.Context, scene string) error
	SetChildState(ctx context.Context, state models.ChildState) error

	Save(ctx context.Context) error
	Clear(ctx context.Context) error

	AutoSaveEnabled() bool
	SetAutoSaveEnabled(ctx context.Context, enabled bool) error
	HasUnsavedChanges() bool
	ShouldPromptSave() bool
	Summary() DraftSummary

	ExportData() ([]byte, error)
	ImportData(ctx context.Context, data []byte) error
	// Reload replaces in-memory state with the stored draft state.
	Reload(ctx context.Context)
	Reset(ctx context.Context) error
	Close()
}

// AutoSavePolicy reports the user-level autosave preference.
type AutoSavePolicy interface {
	AutoSaveEnabled() bool
}

// DraftSummary is a compact description of the current draft for the UI.
type DraftSummary struct {
	HasContent   bool       `json:"hasContent"`
	WordCount    int        `json:"wordCount"`
	HasImage     bool       `json:"hasImage"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

type draftExport struct {
	DraftState *models.DraftState `json:"draftState"`
	ExportTime time.Time          `json:"exportTime"`
}

type DraftOptions struct {
	Delay     time.Duration
	Scheduler Scheduler
	Policy    AutoSavePolicy
	Logger    logging.Logger
}

type draftService struct {
	store  storage.Store
	sched  Scheduler
	policy AutoSavePolicy
	delay  time.Duration
	log    logging.Logger
	now    func() time.Time

	mu          sync.Mutex
	draft       *models.Entry
	autoSave    bool
	lastSaved   *time.Time
	timer       Timer
	gen         uint64
	initialized bool
}

func NewDraftService(store storage.Store, opts DraftOptions) DraftService {
	if opts.Delay <= 0 {
		opts.Delay = DefaultAutoSaveDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &draftService{
		store:    store,
		sched:    opts.Scheduler,
		policy:   opts.Policy,
		delay:    opts.Delay,
		log:      opts.Logger.With("component", "draft"),
		now:      time.Now,
		autoSave: true,
	}
}

func (d *draftService) Initialize(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return
	}
	d.restoreLocked(ctx)
}

func (d *draftService) Reload(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimerLocked()
	d.restoreLocked(ctx)
}

func (d *draftService) restoreLocked(ctx context.Context) {
	st := storage.DraftState(ctx, d.store)
	d.draft = st.CurrentDraft
	d.autoSave = st.AutoSaveEnabled
	d.lastSaved = st.LastSaved
	d.initialized = true
}

func (d *draftService) Current() (models.Entry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.draft == nil {
		return models.Entry{}, false
	}
	return d.draft.Clone(), true
}

func (d *draftService) LastSaved() *time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyTime(d.lastSaved)
}

func (d *draftService) NewDraft(ctx context.Context, initial models.EntryPatch) (models.Entry, error) {
	e := d.emptyDraft()
	if err := initial.Apply(&e); err != nil {
		return models.Entry{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimerLocked()
	d.draft = &e
	d.lastSaved = nil
	d.scheduleLocked()
	d.log.Debug(ctx, "new draft", "id", e.ID)
	return e.Clone(), nil
}

// LoadDraft makes e the current draft as it is stored, so it counts as saved.
func (d *draftService) LoadDraft(ctx context.Context, e models.Entry) error {
	if e.ID == "" {
		return fmt.Errorf("%w: draft has no id", ErrNotFound)
	}
	e = e.Clone()
	e.Normalize()
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimerLocked()
	d.draft = &e
	d.lastSaved = &now
	d.log.Debug(ctx, "draft loaded", "id", e.ID)
	return nil
}

func (d *draftService) emptyDraft() models.Entry {
	now := d.now()
	return models.Entry{
		ID:        models.NewDraftID(now),
		Timestamp: models.Timestamp(now),
		CreatedAt: now.UTC().Format(time.RFC3339),
		Status:    models.StatusDraft,
	}
}

func (d *draftService) Update(ctx context.Context, patch models.EntryPatch) (models.Entry, error) {
	if err := patch.Validate(); err != nil {
		return models.Entry{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	var e models.Entry
	if d.draft != nil {
		e = d.draft.Clone()
	} else {
		e = d.emptyDraft()
	}
	if err := patch.Apply(&e); err != nil {
		return models.Entry{}, err
	}
	d.draft = &e
	d.scheduleLocked()
	return e.Clone(), nil
}

func (d *draftService) set(ctx context.Context, patch models.EntryPatch) error {
	_, err := d.Update(ctx, patch)
	return err
}

func (d *draftService) SetTitle(ctx context.Context, title string) error {
	return d.set(ctx, models.EntryPatch{Title: &title})
}

func (d *draftService) SetContent(ctx context.Context, content string) error {
	return d.set(ctx, models.EntryPatch{Content: &content})
}

func (d *draftService) SetImage(ctx context.Context, imageRef string) error {
	return d.set(ctx, models.EntryPatch{ImageRef: &imageRef})
}

func (d *draftService) SetMood(ctx context.Context, mood models.Mood) error {
	return d.set(ctx, models.EntryPatch{Mood: &mood})
}

func (d *draftService) SetWeather(ctx context.Context, weather models.Weather) error {
	return d.set(ctx, models.EntryPatch{Weather: &weather})
}

func (d *draftService) SetScene(ctx context.Context, scene string) error {
	return d.set(ctx, models.EntryPatch{Scene: &scene})
}

func (d *draftService) SetChildState(ctx context.Context, state models.ChildState) error {
	return d.set(ctx, models.EntryPatch{ChildState: &state})
}

func (d *draftService) Save(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimerLocked()
	if d.draft == nil {
		return ErrNoDraft
	}
	return d.commitLocked(ctx, triggerManual)
}

// Clear discards the draft. Calling it again is a no-op apart from the
// (idempotent) store write.
func (d *draftService) Clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimerLocked()
	d.draft = nil
	d.lastSaved = nil
	if !storage.SetDraftState(ctx, d.store, d.stateLocked()) {
		d.log.Warn(ctx, "failed to persist cleared draft")
		return ErrStorage
	}
	return nil
}

func (d *draftService) AutoSaveEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.effectiveLocked()
}

func (d *draftService) effectiveLocked() bool {
	if !d.autoSave {
		return false
	}
	return d.policy == nil || d.policy.AutoSaveEnabled()
}

func (d *draftService) SetAutoSaveEnabled(ctx context.Context, enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.autoSave = enabled
	if !enabled {
		d.stopTimerLocked()
	}
	if !storage.SetDraftState(ctx, d.store, d.stateLocked()) {
		d.log.Warn(ctx, "failed to persist autosave flag")
		return ErrStorage
	}
	return nil
}

func (d *draftService) HasUnsavedChanges() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unsavedLocked()
}

func (d *draftService) unsavedLocked() bool {
	if d.draft == nil {
		return false
	}
	if d.lastSaved == nil {
		return true
	}
	return d.draft.Content != "" || d.draft.Title != "" || d.draft.ImageRef != ""
}

func (d *draftService) ShouldPromptSave() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unsavedLocked() && !d.effectiveLocked()
}

func (d *draftService) Summary() DraftSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.draft == nil {
		return DraftSummary{}
	}
	return DraftSummary{
		HasContent:   d.draft.Content != "" || d.draft.Title != "",
		WordCount:    utf8.RuneCountInString(d.draft.Content),
		HasImage:     d.draft.ImageRef != "",
		LastModified: copyTime(d.lastSaved),
	}
}

func (d *draftService) ExportData() ([]byte, error) {
	d.mu.Lock()
	st := d.stateLocked()
	d.mu.Unlock()
	return json.MarshalIndent(draftExport{DraftState: &st, ExportTime: d.now().UTC()}, "", "  ")
}

// ImportData replaces the draft state with the draftState section of data.
func (d *draftService) ImportData(ctx context.Context, data []byte) error {
	var doc draftExport
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImportData, err)
	}
	if doc.DraftState == nil {
		return fmt.Errorf("%w: missing draftState", ErrInvalidImportData)
	}
	st := *doc.DraftState
	if st.CurrentDraft != nil {
		if err := models.PatchFromEntry(*st.CurrentDraft).Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidImportData, err)
		}
		st.CurrentDraft.Status = models.StatusDraft
		st.CurrentDraft.Normalize()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimerLocked()
	d.draft = st.CurrentDraft
	d.autoSave = st.AutoSaveEnabled
	d.lastSaved = st.LastSaved
	if !storage.SetDraftState(ctx, d.store, d.stateLocked()) {
		return ErrStorage
	}
	return nil
}

func (d *draftService) Reset(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimerLocked()
	d.draft = nil
	d.lastSaved = nil
	d.autoSave = true
	if !storage.SetDraftState(ctx, d.store, d.stateLocked()) {
		return ErrStorage
	}
	return nil
}

func (d *draftService) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimerLocked()
}

// scheduleLocked restarts the debounce timer when autosave is effective.
func (d *draftService) scheduleLocked() {
	d.stopTimerLocked()
	if d.draft == nil || !d.effectiveLocked() {
		return
	}
	gen := d.gen
	d.timer = d.sched.AfterFunc(d.delay, func() { d.fire(gen) })
}

// stopTimerLocked cancels any pending timer. Bumping gen also invalidates a
// callback that already fired and is waiting for the lock.
func (d *draftService) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *draftService) fire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen || d.draft == nil {
		return
	}
	d.timer = nil
	d.gen++
	// The user preference may have been switched off after scheduling.
	if !d.effectiveLocked() {
		d.log.Debug(context.Background(), "autosave disabled, skipping scheduled commit", "id", d.draft.ID)
		return
	}
	_ = d.commitLocked(context.Background(), triggerAuto)
}

func (d *draftService) commitLocked(ctx context.Context, trigger string) error {
	now := d.now()
	st := d.stateLocked()
	st.LastSaved = &now

	if !storage.SetDraftState(ctx, d.store, st) {
		metrics.AutosaveCommitsTotal.WithLabelValues(trigger, metrics.OutcomeError).Inc()
		d.log.Warn(ctx, "draft commit failed, keeping draft in memory", "trigger", trigger)
		return ErrStorage
	}
	metrics.AutosaveCommitsTotal.WithLabelValues(trigger, metrics.OutcomeOK).Inc()
	d.lastSaved = &now
	d.log.Debug(ctx, "draft committed", "trigger", trigger, "id", d.draft.ID)
	return nil
}

func (d *draftService) stateLocked() models.DraftState {
	st := models.DraftState{AutoSaveEnabled: d.autoSave, LastSaved: copyTime(d.lastSaved)}
	if d.draft != nil {
		c := d.draft.Clone()
		st.CurrentDraft = &c
	}
	return st
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
