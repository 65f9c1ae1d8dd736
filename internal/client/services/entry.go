package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/kidsdiary/internal/client/client"
	"github.com/dmitrijs2005/kidsdiary/internal/client/images"
	"github.com/dmitrijs2005/kidsdiary/internal/client/metrics"
	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
	"github.com/dmitrijs2005/kidsdiary/internal/client/storage"
	"github.com/dmitrijs2005/kidsdiary/internal/logging"
)

const (
	defaultDraftTitle = "草稿"
	recentLimit       = 10
)

// EntryService owns the in-memory entry collection and keeps it reconciled
// with the local store and the remote gateway. Local writes always happen
// first; remote calls are best-effort.
type EntryService interface {
	// LoadLocal reads the persisted collection into memory (first call only).
	LoadLocal(ctx context.Context)
	// Load refreshes from the gateway and merges. Concurrent calls share one
	// remote list. On failure the local collection is kept and the error is
	// also recorded in LastError.
	Load(ctx context.Context) error

	List() []models.Entry
	Get(id string) (models.Entry, bool)
	Count() int
	ByStatus(status models.Status) []models.Entry
	Recent(n int) []models.Entry
	Drafts() []models.Entry
	Saved() []models.Entry
	Exported() []models.Entry

	// Create inserts a placeholder draft and pushes it to the gateway. On
	// remote failure the placeholder is returned with an ErrNotSynced error.
	Create(ctx context.Context, data models.EntryPatch) (models.Entry, error)
	// Update merges patch into a local entry. It never calls the gateway.
	Update(ctx context.Context, id string, patch models.EntryPatch) (models.Entry, error)
	// Delete removes the entry locally and then best-effort remotely.
	Delete(ctx context.Context, id string) error
	SaveDraft(ctx context.Context, draft models.Entry) (models.Entry, error)
	PublishDraft(ctx context.Context, id string) (models.Entry, error)
	MarkExported(ctx context.Context, id string) (models.Entry, error)
	RetryPending(ctx context.Context) (RetryReport, error)
	AnalyzePhotoAndCreate(ctx context.Context, mediaType string, image []byte, regionHint string) (models.Entry, error)

	LastError() string
	ClearError()
	// Reset drops in-memory state. The store is not touched.
	Reset()
}

// RetryReport summarises one RetryPending pass.
type RetryReport struct {
	Published    int
	Failed       int
	Deleted      int
	DeleteFailed int // remote deletes still owed
}

type entryService struct {
	client   client.Client
	store    storage.Store
	uploader images.Uploader
	log      logging.Logger
	now      func() time.Time

	mu       sync.Mutex
	entries  []models.Entry
	loaded   bool
	inFlight map[string]struct{}
	lastErr  string

	// While a remote list is outstanding these record ids confirmed or
	// deleted by concurrent operations, which a stale list must not undo.
	listing       bool
	createdDuring map[string]struct{}
	deletedDuring map[string]struct{}

	loads singleflight.Group
}

// NewEntryService builds the repository. uploader may be nil.
func NewEntryService(c client.Client, store storage.Store, uploader images.Uploader, log logging.Logger) EntryService {
	if log == nil {
		log = logging.NewNop()
	}
	return &entryService{
		client:   c,
		store:    store,
		uploader: uploader,
		log:      log.With("component", "entries"),
		now:      time.Now,
		entries:  []models.Entry{},
		inFlight: make(map[string]struct{}),
	}
}

func (s *entryService) LoadLocal(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocalLocked(ctx)
}

func (s *entryService) loadLocalLocked(ctx context.Context) {
	if s.loaded {
		return
	}
	s.entries = dedupe(storage.Entries(ctx, s.store))
	sortEntries(s.entries)
	s.loaded = true
}

func (s *entryService) Load(ctx context.Context) error {
	_, err, _ := s.loads.Do("load", func() (any, error) {
		return nil, s.load(ctx)
	})
	return err
}

func (s *entryService) load(ctx context.Context) error {
	s.mu.Lock()
	s.loadLocalLocked(ctx)
	s.listing = true
	s.createdDuring = make(map[string]struct{})
	s.deletedDuring = make(map[string]struct{})
	s.mu.Unlock()

	remote, err := s.client.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	created, deleted := s.createdDuring, s.deletedDuring
	s.listing = false
	s.createdDuring, s.deletedDuring = nil, nil

	if err != nil {
		s.setErrorLocked("failed to load entries", err)
		return fmt.Errorf("load entries: %w", err)
	}

	tombstones := make(map[string]struct{})
	for _, id := range storage.PendingDeletes(ctx, s.store) {
		tombstones[id] = struct{}{}
	}
	for id := range deleted {
		tombstones[id] = struct{}{}
	}

	s.entries = merge(s.entries, remote, tombstones, created)
	s.persistLocked(ctx)
	s.log.Info(ctx, "entries loaded", "remote", len(remote), "total", len(s.entries))
	return nil
}

// merge takes the remote list as the truth for everything but drafts.
// Local drafts are kept and win id conflicts, tombstoned ids are dropped,
// local entries confirmed after the list was requested are kept, and the
// local exported annotation is carried onto the remote copy.
func merge(local, remote []models.Entry, tombstones, keep map[string]struct{}) []models.Entry {
	exported := make(map[string]struct{})
	out := make([]models.Entry, 0, len(local)+len(remote))
	for _, e := range local {
		switch {
		case e.Status == models.StatusDraft:
			out = append(out, e)
		case e.Status == models.StatusExported:
			exported[e.ID] = struct{}{}
		}
		if _, ok := keep[e.ID]; ok && e.Status != models.StatusDraft {
			out = append(out, e)
		}
	}

	for _, e := range remote {
		if _, gone := tombstones[e.ID]; gone {
			continue
		}
		e.Normalize()
		e.PendingSync = false
		if e.Status == "" || e.Status == models.StatusDraft || !e.Status.Valid() {
			e.Status = models.StatusSaved
		}
		if _, ok := exported[e.ID]; ok && e.Status == models.StatusSaved {
			e.Status = models.StatusExported
		}
		out = append(out, e)
	}

	out = dedupe(out)
	sortEntries(out)
	return out
}

// dedupe keeps the first entry for every id.
func dedupe(entries []models.Entry) []models.Entry {
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// sortEntries orders most recent first; equal timestamps keep their order.
func sortEntries(entries []models.Entry) {
	slices.SortStableFunc(entries, func(a, b models.Entry) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		}
		return 0
	})
}

func (s *entryService) List() []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.entries)
}

func (s *entryService) Get(id string) (models.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.entries[i].Clone(), true
	}
	return models.Entry{}, false
}

func (s *entryService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *entryService) ByStatus(status models.Status) []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Entry{}
	for _, e := range s.entries {
		if e.Status == status {
			out = append(out, e.Clone())
		}
	}
	return out
}

func (s *entryService) Recent(n int) []models.Entry {
	if n <= 0 {
		n = recentLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.entries[:min(n, len(s.entries))])
}

func (s *entryService) Drafts() []models.Entry   { return s.ByStatus(models.StatusDraft) }
func (s *entryService) Saved() []models.Entry    { return s.ByStatus(models.StatusSaved) }
func (s *entryService) Exported() []models.Entry { return s.ByStatus(models.StatusExported) }

func (s *entryService) Create(ctx context.Context, data models.EntryPatch) (models.Entry, error) {
	now := s.now()
	placeholder := models.Entry{
		ID:          models.NewEntryID(now),
		Timestamp:   models.Timestamp(now),
		CreatedAt:   now.UTC().Format(time.RFC3339),
		Status:      models.StatusDraft,
		PendingSync: true,
	}
	if err := data.Apply(&placeholder); err != nil {
		return models.Entry{}, err
	}

	s.mu.Lock()
	s.loadLocalLocked(ctx)
	s.entries = append([]models.Entry{placeholder}, s.entries...)
	sortEntries(s.entries)
	s.inFlight[placeholder.ID] = struct{}{}
	s.persistLocked(ctx)
	s.mu.Unlock()

	return s.push(ctx, placeholder)
}

// push sends local to the gateway and reconciles the result by id. The
// caller must have registered local.ID in inFlight.
func (s *entryService) push(ctx context.Context, local models.Entry) (models.Entry, error) {
	req := models.CreateRequestFrom(local)
	if s.uploader != nil && images.IsDataURI(req.ImageRef) {
		url, err := images.ReplaceDataURI(ctx, s.uploader, req.ImageRef)
		if err != nil {
			s.log.Warn(ctx, "image upload failed, sending embedded image", "id", local.ID, "error", err)
		}
		req.ImageRef = url
	}

	created, err := s.client.Create(ctx, req)

	s.mu.Lock()
	delete(s.inFlight, local.ID)
	idx := s.indexLocked(local.ID)

	if err != nil {
		s.setErrorLocked("failed to sync entry", err)
		current := local
		if idx >= 0 {
			current = s.entries[idx].Clone()
		}
		s.mu.Unlock()
		return current, fmt.Errorf("%w: %w", ErrNotSynced, err)
	}

	if idx < 0 {
		// Deleted locally while the create was in flight; the local delete
		// wins, so the new remote copy is removed as well.
		s.addTombstoneLocked(ctx, created.ID)
		s.mu.Unlock()
		s.log.Info(ctx, "entry deleted during sync, removing remote copy", "id", local.ID, "remote_id", created.ID)
		s.deleteRemote(ctx, created.ID)
		return models.Entry{}, ErrDeletedDuringSync
	}

	created.Normalize()
	created.Status = models.StatusSaved
	created.PendingSync = false
	if created.Timestamp == 0 {
		created.Timestamp = local.Timestamp
	}
	s.entries[idx] = created
	// A list that raced with this create may already hold the server copy.
	for i := len(s.entries) - 1; i >= 0; i-- {
		if i != idx && s.entries[i].ID == created.ID {
			s.entries = slices.Delete(s.entries, i, i+1)
		}
	}
	sortEntries(s.entries)
	if s.listing {
		s.createdDuring[created.ID] = struct{}{}
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.log.Info(ctx, "entry synced", "id", local.ID, "remote_id", created.ID)
	return created.Clone(), nil
}

func (s *entryService) Update(ctx context.Context, id string, patch models.EntryPatch) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocalLocked(ctx)

	idx := s.indexLocked(id)
	if idx < 0 {
		return models.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	// The slot is replaced by the server copy once the create returns.
	if _, busy := s.inFlight[id]; busy {
		return models.Entry{}, fmt.Errorf("%w: %s", ErrSyncInProgress, id)
	}
	e := s.entries[idx].Clone()
	if err := patch.Apply(&e); err != nil {
		return models.Entry{}, err
	}
	s.entries[idx] = e
	sortEntries(s.entries)
	s.persistLocked(ctx)
	return e.Clone(), nil
}

func (s *entryService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	s.loadLocalLocked(ctx)

	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e := s.entries[idx]
	if !e.Status.Deletable() {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot delete %s entry", models.ErrInvalidTransition, e.Status)
	}

	s.entries = slices.Delete(s.entries, idx, idx+1)
	s.persistLocked(ctx)

	// Drafts only exist locally. A draft with a create in flight is
	// reconciled by push.
	if e.Status == models.StatusDraft {
		s.mu.Unlock()
		s.log.Info(ctx, "draft deleted", "id", id)
		return nil
	}

	s.addTombstoneLocked(ctx, id)
	if s.listing {
		s.deletedDuring[id] = struct{}{}
	}
	s.mu.Unlock()

	s.log.Info(ctx, "entry deleted", "id", id)
	s.deleteRemote(ctx, id)
	return nil
}

// deleteRemote attempts the remote half of a delete. The tombstone is kept
// when the gateway fails so RetryPending and Load can honour it.
func (s *entryService) deleteRemote(ctx context.Context, id string) bool {
	err := s.client.Delete(ctx, id)
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		s.mu.Lock()
		s.setErrorLocked("failed to delete entry remotely", err)
		s.mu.Unlock()
		return false
	}

	s.mu.Lock()
	s.removeTombstoneLocked(ctx, id)
	s.mu.Unlock()
	return true
}

func (s *entryService) SaveDraft(ctx context.Context, draft models.Entry) (models.Entry, error) {
	now := s.now()
	if draft.ID == "" {
		draft.ID = models.NewDraftID(now)
	}
	if draft.Timestamp == 0 {
		draft.Timestamp = models.Timestamp(now)
	}
	if draft.Title == "" {
		draft.Title = defaultDraftTitle
	}
	if draft.CreatedAt == "" {
		draft.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	if err := models.PatchFromEntry(draft).Validate(); err != nil {
		return models.Entry{}, err
	}
	draft.Status = models.StatusDraft
	draft.Normalize()
	draft = draft.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocalLocked(ctx)

	if idx := s.indexLocked(draft.ID); idx >= 0 {
		if s.entries[idx].Status != models.StatusDraft {
			return models.Entry{}, fmt.Errorf("%w: %s", ErrNotDraft, draft.ID)
		}
		if _, busy := s.inFlight[draft.ID]; busy {
			return models.Entry{}, fmt.Errorf("%w: %s", ErrSyncInProgress, draft.ID)
		}
		draft.PendingSync = s.entries[idx].PendingSync
		s.entries[idx] = draft
	} else {
		s.entries = append([]models.Entry{draft}, s.entries...)
	}
	sortEntries(s.entries)
	if !s.persistLocked(ctx) {
		return draft.Clone(), ErrStorage
	}
	return draft.Clone(), nil
}

func (s *entryService) PublishDraft(ctx context.Context, id string) (models.Entry, error) {
	s.mu.Lock()
	s.loadLocalLocked(ctx)
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	draft := s.entries[idx].Clone()
	if draft.Status != models.StatusDraft {
		s.mu.Unlock()
		return models.Entry{}, fmt.Errorf("%w: %s", ErrNotDraft, id)
	}
	if _, busy := s.inFlight[id]; busy {
		s.mu.Unlock()
		return draft, fmt.Errorf("%w: %s", ErrSyncInProgress, id)
	}
	s.inFlight[id] = struct{}{}
	s.mu.Unlock()

	return s.push(ctx, draft)
}

func (s *entryService) MarkExported(ctx context.Context, id string) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocalLocked(ctx)

	idx := s.indexLocked(id)
	if idx < 0 {
		return models.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e := &s.entries[idx]
	if !e.Status.CanTransition(models.StatusExported) {
		return models.Entry{}, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, e.Status, models.StatusExported)
	}
	e.Status = models.StatusExported
	s.persistLocked(ctx)
	return e.Clone(), nil
}

func (s *entryService) RetryPending(ctx context.Context) (RetryReport, error) {
	var report RetryReport

	s.mu.Lock()
	s.loadLocalLocked(ctx)
	var pending []models.Entry
	for _, e := range s.entries {
		if !e.PendingSync || e.Status != models.StatusDraft {
			continue
		}
		if _, busy := s.inFlight[e.ID]; busy {
			continue
		}
		s.inFlight[e.ID] = struct{}{}
		pending = append(pending, e.Clone())
	}
	tombstones := storage.PendingDeletes(ctx, s.store)
	s.mu.Unlock()

	var errs []error
	for _, e := range pending {
		_, err := s.push(ctx, e)
		switch {
		case err == nil:
			report.Published++
		case errors.Is(err, ErrDeletedDuringSync):
		default:
			report.Failed++
			errs = append(errs, err)
		}
	}

	for _, id := range tombstones {
		if s.deleteRemote(ctx, id) {
			report.Deleted++
		} else {
			report.DeleteFailed++
		}
	}
	if report.DeleteFailed > 0 {
		errs = append(errs, fmt.Errorf("%w: %d remote deletes still pending", ErrNotSynced, report.DeleteFailed))
	}

	if len(pending) > 0 || len(tombstones) > 0 {
		s.log.Info(ctx, "pending sync retried",
			"published", report.Published, "failed", report.Failed,
			"deleted", report.Deleted, "delete_failed", report.DeleteFailed)
	}
	return report, errors.Join(errs...)
}

func (s *entryService) AnalyzePhotoAndCreate(ctx context.Context, mediaType string, image []byte, regionHint string) (models.Entry, error) {
	if len(image) == 0 {
		return models.Entry{}, ErrEmptyAnalysisImage
	}
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	now := s.now()

	res, err := s.client.Analyze(ctx, models.AnalyzeRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		Timestamp:   models.Timestamp(now),
		RegionHint:  regionHint,
	})
	if err != nil {
		s.mu.Lock()
		s.setErrorLocked("failed to analyze photo", err)
		s.mu.Unlock()
		return models.Entry{}, fmt.Errorf("analyze photo: %w", err)
	}
	res.Normalize()
	content := GenerateContent(res)
	s.dropUnknownTags(ctx, &res)

	patch := models.EntryPatch{
		Title:      models.Ptr(AnalysisTitle(now)),
		Content:    models.Ptr(content),
		Mood:       models.Ptr(res.Mood),
		Weather:    models.Ptr(res.Weather),
		ChildState: models.Ptr(res.ChildState),
		ImageRef:   models.Ptr(images.EncodeDataURI(mediaType, image)),
		Scene:      models.Ptr(strings.Join(res.Tags, ", ")),
	}
	if len(res.Suggestions) > 0 {
		raw, err := json.Marshal(map[string]any{"suggestions": res.Suggestions})
		if err != nil {
			return models.Entry{}, err
		}
		patch.Suggestion = raw
	}
	return s.Create(ctx, patch)
}

// dropUnknownTags clears mood, weather and child state values the backend
// returned outside the known vocabularies. The generated text keeps them.
func (s *entryService) dropUnknownTags(ctx context.Context, res *models.AnalysisResult) {
	if !res.Mood.Valid() {
		s.log.Warn(ctx, "analysis returned unknown mood, dropping it", "mood", res.Mood)
		res.Mood = ""
	}
	if !res.Weather.Valid() {
		s.log.Warn(ctx, "analysis returned unknown weather, dropping it", "weather", res.Weather)
		res.Weather = ""
	}
	if !res.ChildState.Valid() {
		s.log.Warn(ctx, "analysis returned unknown child state, dropping it", "child_state", res.ChildState)
		res.ChildState = ""
	}
}

func (s *entryService) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *entryService) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *entryService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = []models.Entry{}
	s.loaded = false
	s.lastErr = ""
}

func (s *entryService) indexLocked(id string) int {
	return slices.IndexFunc(s.entries, func(e models.Entry) bool { return e.ID == id })
}

// persistLocked writes the collection. A failed write keeps memory as the
// source of truth and is surfaced through LastError.
func (s *entryService) persistLocked(ctx context.Context) bool {
	pending := 0
	for _, e := range s.entries {
		if e.PendingSync {
			pending++
		}
	}
	metrics.PendingSyncEntries.Set(float64(pending))

	if !storage.SetEntries(ctx, s.store, s.entries) {
		s.setErrorLocked("failed to save entries locally", ErrStorage)
		return false
	}
	return true
}

func (s *entryService) addTombstoneLocked(ctx context.Context, id string) {
	ids := storage.PendingDeletes(ctx, s.store)
	if slices.Contains(ids, id) {
		return
	}
	if !storage.SetPendingDeletes(ctx, s.store, append(ids, id)) {
		s.log.Warn(ctx, "failed to record pending delete", "id", id)
	}
}

func (s *entryService) removeTombstoneLocked(ctx context.Context, id string) {
	ids := storage.PendingDeletes(ctx, s.store)
	i := slices.Index(ids, id)
	if i < 0 {
		return
	}
	if !storage.SetPendingDeletes(ctx, s.store, slices.Delete(ids, i, i+1)) {
		s.log.Warn(ctx, "failed to clear pending delete", "id", id)
	}
}

func (s *entryService) setErrorLocked(msg string, err error) {
	s.lastErr = fmt.Sprintf("%s: %v", msg, err)
	s.log.Warn(context.Background(), msg, "error", err)
}

func cloneAll(entries []models.Entry) []models.Entry {
	out := make([]models.Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
