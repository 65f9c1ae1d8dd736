package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
	"github.com/dmitrijs2005/kidsdiary/internal/client/storage"
)

func newEntrySvc(t *testing.T, c *fakeClient, store storage.Store) *entryService {
	t.Helper()
	if store == nil {
		store = storage.NewMemoryStore(0, nil)
	}
	svc := NewEntryService(c, store, nil, nil).(*entryService)
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	var n int
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return svc
}

func assertUniqueIDs(t *testing.T, entries []models.Entry) {
	t.Helper()
	seen := map[string]bool{}
	for _, e := range entries {
		require.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
	}
}

func TestCreate_ReplacesPlaceholderInPlace(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0, nil)
	c := &fakeClient{}
	svc := newEntrySvc(t, c, store)

	older, err := svc.SaveDraft(ctx, models.Entry{ID: "draft_old", Timestamp: 1, Content: "old"})
	require.NoError(t, err)

	e, err := svc.Create(ctx, models.EntryPatch{Title: models.Ptr("A diary"), Content: models.Ptr("text")})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", e.ID)
	assert.Equal(t, models.StatusSaved, e.Status)
	assert.False(t, e.PendingSync)
	assert.Equal(t, "text", e.Text)

	assert.Equal(t, []string{"srv-1", older.ID}, ids(svc.List()))
	assert.Equal(t, []string{"srv-1", older.ID}, ids(storage.Entries(ctx, store)))
	assert.Empty(t, svc.LastError())
}

func TestCreate_OfflineKeepsPlaceholderAndRetryPromotes(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0, nil)
	c := &fakeClient{createErr: errOffline}
	svc := newEntrySvc(t, c, store)

	e, err := svc.Create(ctx, models.EntryPatch{Title: models.Ptr("A diary"), Content: models.Ptr("text")})
	require.ErrorIs(t, err, ErrNotSynced)
	assert.True(t, strings.HasPrefix(e.ID, "diary_"))
	assert.Equal(t, models.StatusDraft, e.Status)
	assert.True(t, e.PendingSync)

	list := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, "A diary", list[0].Title)
	assert.Equal(t, models.StatusDraft, list[0].Status)
	assert.NotEmpty(t, svc.LastError())

	c.set(func(f *fakeClient) { f.createErr = nil })
	report, err := svc.RetryPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Published)

	list = svc.List()
	require.Len(t, list, 1, "retry must not duplicate the entry")
	assert.Equal(t, "srv-1", list[0].ID)
	assert.Equal(t, models.StatusSaved, list[0].Status)
	assert.False(t, list[0].PendingSync)
	assert.Equal(t, ids(list), ids(storage.Entries(ctx, store)))

	report, err = svc.RetryPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Published)
	assert.Equal(t, 2, c.createCount())
}

func TestCreate_InvalidDataInsertsNothing(t *testing.T) {
	svc := newEntrySvc(t, &fakeClient{}, nil)
	mood := models.Mood("grumpy")

	_, err := svc.Create(context.Background(), models.EntryPatch{Mood: &mood})
	require.ErrorIs(t, err, models.ErrInvalidMood)
	assert.Zero(t, svc.Count())
}

func TestCreate_DeletedWhileInFlightIsNotResurrected(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0, nil)
	c := &fakeClient{}
	svc := newEntrySvc(t, c, store)

	c.beforeCreateReturn = func() {
		list := svc.List()
		require.Len(t, list, 1)
		require.NoError(t, svc.Delete(ctx, list[0].ID))
	}

	_, err := svc.Create(ctx, models.EntryPatch{Content: models.Ptr("gone")})
	require.ErrorIs(t, err, ErrDeletedDuringSync)

	assert.Zero(t, svc.Count())
	assert.Empty(t, storage.Entries(ctx, store))
	assert.Contains(t, c.deleted(), "srv-1", "orphaned remote copy is removed")
	assert.Empty(t, storage.PendingDeletes(ctx, store))
}

func TestDelete_RemoteFailureStillRemovesLocally(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0, nil)
	c := &fakeClient{}
	svc := newEntrySvc(t, c, store)

	e, err := svc.Create(ctx, models.EntryPatch{Content: models.Ptr("x")})
	require.NoError(t, err)

	c.set(func(f *fakeClient) { f.deleteErr = errOffline })
	require.NoError(t, svc.Delete(ctx, e.ID))

	_, ok := svc.Get(e.ID)
	assert.False(t, ok)
	assert.Empty(t, storage.Entries(ctx, store))
	assert.NotEmpty(t, svc.LastError())
	assert.Equal(t, []string{e.ID}, storage.PendingDeletes(ctx, store))

	// The remote still lists it; the tombstone keeps it from coming back.
	require.NoError(t, svc.Load(ctx))
	_, ok = svc.Get(e.ID)
	assert.False(t, ok)

	c.set(func(f *fakeClient) { f.deleteErr = nil })
	report, err := svc.RetryPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
	assert.Empty(t, storage.PendingDeletes(ctx, store))
}

func TestDelete_DraftSkipsRemote(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{}
	svc := newEntrySvc(t, c, nil)

	d, err := svc.SaveDraft(ctx, models.Entry{Content: "local only"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, d.ID))

	assert.Zero(t, svc.Count())
	assert.Empty(t, c.deleted())
}

func TestDelete_RejectsExportedAndMissing(t *testing.T) {
	ctx := context.Background()
	svc := newEntrySvc(t, &fakeClient{}, nil)

	e, err := svc.Create(ctx, models.EntryPatch{Content: models.Ptr("x")})
	require.NoError(t, err)
	_, err = svc.MarkExported(ctx, e.ID)
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, e.ID), models.ErrInvalidTransition)
	require.ErrorIs(t, svc.Delete(ctx, "nope"), ErrNotFound)
	assert.Equal(t, 1, svc.Count())
}

func TestLoad_MergeKeepsDraftsAndOrders(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0, nil)
	require.True(t, storage.SetEntries(ctx, store, []models.Entry{
		{ID: "d1", Timestamp: 50, Content: "draft", Status: models.StatusDraft},
		{ID: "x", Timestamp: 40, Content: "stale", Status: models.StatusSaved},
		{ID: "gone", Timestamp: 30, Content: "deleted on server", Status: models.StatusSaved},
		{ID: "e", Timestamp: 20, Content: "exported", Status: models.StatusExported},
	}))

	c := &fakeClient{remote: []models.Entry{
		{ID: "y", Timestamp: 60, Text: "new on server", Status: models.StatusSaved},
		{ID: "x", Timestamp: 40, Content: "fresh", Status: models.StatusSaved},
		{ID: "e", Timestamp: 20, Content: "exported", Status: models.StatusSaved},
		{ID: "z", Timestamp: 50, Content: "tie", Status: models.StatusDraft},
		{ID: "d1", Timestamp: 50, Content: "server copy of a draft id", Status: models.StatusSaved},
	}}
	svc := newEntrySvc(t, c, store)

	require.NoError(t, svc.Load(ctx))

	list := svc.List()
	assertUniqueIDs(t, list)
	assert.Equal(t, []string{"y", "d1", "z", "x", "e"}, ids(list))

	byID := map[string]models.Entry{}
	for _, e := range list {
		byID[e.ID] = e
	}
	assert.Equal(t, models.StatusDraft, byID["d1"].Status)
	assert.Equal(t, "draft", byID["d1"].Content, "local draft wins")
	assert.Equal(t, "fresh", byID["x"].Content, "remote wins for saved entries")
	assert.Equal(t, "new on server", byID["y"].Content)
	assert.Equal(t, models.StatusSaved, byID["z"].Status, "remote never yields drafts")
	assert.Equal(t, models.StatusExported, byID["e"].Status, "local export annotation survives")

	assert.Equal(t, ids(list), ids(storage.Entries(ctx, store)))
}

func TestLoad_DraftSurvivesMerge(t *testing.T) {
	ctx := context.Background()
	svc := newEntrySvc(t, &fakeClient{remote: []models.Entry{{ID: "r", Timestamp: 1, Status: models.StatusSaved}}}, nil)

	d, err := svc.SaveDraft(ctx, models.Entry{Content: "keep me"})
	require.NoError(t, err)
	require.NoError(t, svc.Load(ctx))
	require.NoError(t, svc.Load(ctx))

	drafts := svc.Drafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, d.ID, drafts[0].ID)
	assert.Equal(t, 2, svc.Count())
}

func TestLoad_FailureKeepsLocal(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0, nil)
	require.True(t, storage.SetEntries(ctx, store, []models.Entry{{ID: "a", Timestamp: 1, Status: models.StatusSaved}}))

	svc := newEntrySvc(t, &fakeClient{listErr: errOffline}, store)
	err := svc.Load(ctx)
	require.Error(t, err)

	assert.Equal(t, []string{"a"}, ids(svc.List()))
	assert.Contains(t, svc.LastError(), "failed to load entries")
	svc.ClearError()
	assert.Empty(t, svc.LastError())
}

func TestLoad_ConcurrentCallsShareOneList(t *testing.T) {
	gate := make(chan struct{})
	c := &fakeClient{listGate: gate}
	svc := newEntrySvc(t, c, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.Load(context.Background())
		}()
	}

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.lists == 1
	}, time.Second, time.Millisecond)
	// Give the second caller time to join the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, 1, c.lists)
}

func TestLoad_StaleListDoesNotDropConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	c := &fakeClient{listGate: gate}
	svc := newEntrySvc(t, c, nil)

	done := make(chan error)
	go func() { done <- svc.Load(ctx) }()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.lists == 1
	}, time.Second, time.Millisecond)

	// The list snapshot is taken before the create lands.
	c.set(func(f *fakeClient) { f.listGate = nil })
	snapshot := []models.Entry{}
	c.set(func(f *fakeClient) { snapshot = append(snapshot, f.remote...) })

	created, err := svc.Create(ctx, models.EntryPatch{Content: models.Ptr("racing")})
	require.NoError(t, err)

	c.set(func(f *fakeClient) { f.remote = snapshot })
	close(gate)
	require.NoError(t, <-done)

	_, ok := svc.Get(created.ID)
	assert.True(t, ok, "entry confirmed during the list must survive the merge")
	assertUniqueIDs(t, svc.List())
}

func TestLoad_StaleListDoesNotResurrectConcurrentDelete(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{remote: []models.Entry{
		{ID: "srv-1", Timestamp: 10, Content: "keep"},
		{ID: "srv-2", Timestamp: 20, Content: "gone"},
	}}
	svc := newEntrySvc(t, c, nil)
	require.NoError(t, svc.Load(ctx))
	require.Len(t, svc.List(), 2)

	gate := make(chan struct{})
	c.set(func(f *fakeClient) { f.listGate = gate })
	snapshot := []models.Entry{}
	c.set(func(f *fakeClient) { snapshot = append(snapshot, f.remote...) })

	done := make(chan error)
	go func() { done <- svc.Load(ctx) }()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.lists == 2
	}, time.Second, time.Millisecond)

	// The remote delete succeeds, so no tombstone is left behind.
	require.NoError(t, svc.Delete(ctx, "srv-2"))
	assert.Equal(t, []string{"srv-2"}, c.deleted())
	assert.Empty(t, storage.PendingDeletes(ctx, svc.store))

	c.set(func(f *fakeClient) { f.remote = snapshot; f.listGate = nil })
	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"srv-1"}, ids(svc.List()), "deleted entry must not come back from a stale list")
	assert.Equal(t, []string{"srv-1"}, ids(storage.Entries(ctx, svc.store)))
}

func TestUpdate_RejectedWhileCreateInFlight(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{}
	svc := newEntrySvc(t, c, nil)

	var updErr error
	c.beforeCreateReturn = func() {
		list := svc.List()
		require.Len(t, list, 1)
		_, updErr = svc.Update(ctx, list[0].ID, models.EntryPatch{Content: models.Ptr("edited while syncing")})
	}

	created, err := svc.Create(ctx, models.EntryPatch{Content: models.Ptr("original")})
	require.NoError(t, err)
	require.ErrorIs(t, updErr, ErrSyncInProgress)
	assert.Equal(t, "original", svc.List()[0].Content, "a rejected edit is never reported as saved")

	c.set(func(f *fakeClient) { f.beforeCreateReturn = nil })
	got, err := svc.Update(ctx, created.ID, models.EntryPatch{Content: models.Ptr("edited after sync")})
	require.NoError(t, err)
	assert.Equal(t, "edited after sync", got.Content)
	assert.Equal(t, "edited after sync", svc.List()[0].Content)
}

func TestPublishDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("failure preserves draft", func(t *testing.T) {
		c := &fakeClient{createErr: errOffline}
		svc := newEntrySvc(t, c, nil)
		d, err := svc.SaveDraft(ctx, models.Entry{Title: "T", Content: "body"})
		require.NoError(t, err)

		_, err = svc.PublishDraft(ctx, d.ID)
		require.ErrorIs(t, err, ErrNotSynced)

		list := svc.List()
		require.Len(t, list, 1)
		assert.Equal(t, d.ID, list[0].ID)
		assert.Equal(t, models.StatusDraft, list[0].Status)
		assert.Equal(t, "body", list[0].Content)
	})

	t.Run("success replaces draft", func(t *testing.T) {
		c := &fakeClient{}
		svc := newEntrySvc(t, c, nil)
		d, err := svc.SaveDraft(ctx, models.Entry{Title: "T", Content: "body", Mood: models.MoodCalm})
		require.NoError(t, err)

		e, err := svc.PublishDraft(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSaved, e.Status)
		assert.Equal(t, models.MoodCalm, c.creates[0].Mood)

		list := svc.List()
		require.Len(t, list, 1)
		assert.Equal(t, e.ID, list[0].ID)
		_, ok := svc.Get(d.ID)
		assert.False(t, ok)
	})

	t.Run("rejects non drafts", func(t *testing.T) {
		svc := newEntrySvc(t, &fakeClient{}, nil)
		e, err := svc.Create(ctx, models.EntryPatch{Content: models.Ptr("x")})
		require.NoError(t, err)

		_, err = svc.PublishDraft(ctx, e.ID)
		require.ErrorIs(t, err, ErrNotDraft)
		_, err = svc.PublishDraft(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdate_LocalOnly(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{}
	store := storage.NewMemoryStore(0, nil)
	svc := newEntrySvc(t, c, store)

	e, err := svc.Create(ctx, models.EntryPatch{Title: models.Ptr("T"), Content: models.Ptr("a")})
	require.NoError(t, err)

	got, err := svc.Update(ctx, e.ID, models.EntryPatch{Content: models.Ptr("b"), Weather: models.Ptr(models.WeatherRainy)})
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "b", got.Content)
	assert.Equal(t, "b", got.Text)
	assert.Equal(t, models.WeatherRainy, got.Weather)
	assert.Equal(t, models.StatusSaved, got.Status)

	stored := storage.Entries(ctx, store)
	require.Len(t, stored, 1)
	assert.Equal(t, "b", stored[0].Content)
	assert.Equal(t, 1, c.createCount(), "update never calls the gateway")

	_, err = svc.Update(ctx, "missing", models.EntryPatch{})
	require.ErrorIs(t, err, ErrNotFound)

	bad := models.Weather("hail")
	_, err = svc.Update(ctx, e.ID, models.EntryPatch{Weather: &bad})
	require.ErrorIs(t, err, models.ErrInvalidWeather)
}

func TestMarkExported(t *testing.T) {
	ctx := context.Background()
	svc := newEntrySvc(t, &fakeClient{}, nil)

	saved, err := svc.Create(ctx, models.EntryPatch{Content: models.Ptr("x")})
	require.NoError(t, err)
	e, err := svc.MarkExported(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExported, e.Status)

	_, err = svc.MarkExported(ctx, saved.ID)
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	d, err := svc.SaveDraft(ctx, models.Entry{})
	require.NoError(t, err)
	_, err = svc.MarkExported(ctx, d.ID)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestSaveDraft_DefaultsAndUpsert(t *testing.T) {
	ctx := context.Background()
	svc := newEntrySvc(t, &fakeClient{}, nil)

	d, err := svc.SaveDraft(ctx, models.Entry{Content: "c"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.ID, "draft_"))
	assert.Equal(t, "草稿", d.Title)
	assert.Equal(t, models.StatusDraft, d.Status)
	assert.Equal(t, "c", d.Text)
	assert.NotZero(t, d.Timestamp)

	d.Content = "edited"
	_, err = svc.SaveDraft(ctx, d)
	require.NoError(t, err)
	require.Equal(t, 1, svc.Count())
	got, _ := svc.Get(d.ID)
	assert.Equal(t, "edited", got.Content)

	e, err := svc.Create(ctx, models.EntryPatch{Content: models.Ptr("saved")})
	require.NoError(t, err)
	_, err = svc.SaveDraft(ctx, models.Entry{ID: e.ID})
	require.ErrorIs(t, err, ErrNotDraft)
}

func TestViews(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0, nil)
	var seed []models.Entry
	for i := 1; i <= 12; i++ {
		st := models.StatusSaved
		switch {
		case i%4 == 0:
			st = models.StatusDraft
		case i%5 == 0:
			st = models.StatusExported
		}
		seed = append(seed, models.Entry{ID: fmt.Sprintf("e%02d", i), Timestamp: float64(i), Status: st})
	}
	require.True(t, storage.SetEntries(ctx, store, seed))
	svc := newEntrySvc(t, &fakeClient{}, store)
	svc.LoadLocal(ctx)

	assert.Equal(t, 12, svc.Count())
	recent := svc.Recent(0)
	require.Len(t, recent, 10)
	assert.Equal(t, "e12", recent[0].ID)
	assert.Equal(t, "e03", recent[9].ID)
	assert.Len(t, svc.Recent(3), 3)

	assert.Equal(t, []string{"e12", "e08", "e04"}, ids(svc.Drafts()))
	assert.Equal(t, []string{"e10", "e05"}, ids(svc.Exported()))
	assert.Len(t, svc.Saved(), 7)
	assert.Equal(t, ids(svc.Saved()), ids(svc.ByStatus(models.StatusSaved)))

	svc.Reset()
	assert.Zero(t, svc.Count())
}

func TestAnalyzePhotoAndCreate(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{analysis: models.AnalysisResult{
		ChildState: models.ChildActive,
		Mood:       models.MoodHappy,
		Weather:    models.WeatherSunny,
		Tags:       []string{"公园", "滑梯"},
		Suggestions: []models.Suggestion{{
			ID: "s1", Category: models.CategoryHealth, Reasoning: "多喝水",
			Items: []models.SuggestionItem{{Name: "水", Qty: models.Ptr(2.0), Unit: "杯"}},
		}},
	}}
	up := &fakeUploader{}
	svc := NewEntryService(c, storage.NewMemoryStore(0, nil), up, nil).(*entryService)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local) }

	e, err := svc.AnalyzePhotoAndCreate(ctx, "image/jpeg", []byte("jpeg"), "Beijing")
	require.NoError(t, err)

	require.Equal(t, 1, c.createCount())
	req := c.creates[0]
	assert.Equal(t, "2025/6/1 的日记", req.Title)
	assert.Equal(t, "公园, 滑梯", req.Scene)
	assert.Equal(t, models.MoodHappy, req.Mood)
	assert.Equal(t, "https://minio.local/diary/1.jpg", req.ImageRef, "embedded image is uploaded first")
	assert.Contains(t, req.Content, "孩子看起来很活跃。")

	var sug struct {
		Suggestions []models.Suggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(req.Suggestion, &sug))
	require.Len(t, sug.Suggestions, 1)
	assert.Equal(t, models.CategoryHealth, sug.Suggestions[0].Category)

	assert.Equal(t, models.StatusSaved, e.Status)
}

func TestAnalyzePhotoAndCreate_DropsUnknownTags(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{analysis: models.AnalysisResult{
		ChildState: "困倦",
		Mood:       "紧张",
		Weather:    "雾霾",
		Tags:       []string{"客厅"},
	}}
	svc := newEntrySvc(t, c, nil)

	e, err := svc.AnalyzePhotoAndCreate(ctx, "image/jpeg", []byte("jpeg"), "")
	require.NoError(t, err)

	require.Equal(t, 1, c.createCount())
	req := c.creates[0]
	assert.Empty(t, req.Mood)
	assert.Empty(t, req.Weather)
	assert.Equal(t, "客厅", req.Scene)
	assert.Contains(t, req.Content, "天气雾霾", "generated text keeps what the analysis said")
	assert.Contains(t, req.Content, "孩子看起来很困倦。")
	assert.Equal(t, models.StatusSaved, e.Status)
	assert.Empty(t, e.ChildState)
}

func TestAnalyzePhotoAndCreate_UploadFailureKeepsDataURI(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{}
	up := &fakeUploader{err: errUploadDown}
	svc := NewEntryService(c, storage.NewMemoryStore(0, nil), up, nil)

	_, err := svc.AnalyzePhotoAndCreate(ctx, "", []byte("jpeg"), "")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,anBlZw==", c.creates[0].ImageRef)
	assert.Nil(t, c.creates[0].Suggestion, "no suggestions means no suggestion payload")
}

func TestAnalyzePhotoAndCreate_Errors(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{analyzeErr: errOffline}
	svc := NewEntryService(c, storage.NewMemoryStore(0, nil), nil, nil)

	_, err := svc.AnalyzePhotoAndCreate(ctx, "image/png", nil, "")
	require.ErrorIs(t, err, ErrEmptyAnalysisImage)

	_, err = svc.AnalyzePhotoAndCreate(ctx, "image/png", []byte("x"), "")
	require.Error(t, err)
	assert.Zero(t, svc.Count())
	assert.Contains(t, svc.LastError(), "failed to analyze photo")
}

func TestStorageFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore(nil)
	store.setFail(true)
	svc := newEntrySvc(t, &fakeClient{}, store)

	e, err := svc.Create(ctx, models.EntryPatch{Content: models.Ptr("x")})
	require.NoError(t, err)
	_, ok := svc.Get(e.ID)
	assert.True(t, ok)
	assert.Contains(t, svc.LastError(), "failed to save entries locally")

	_, err = svc.SaveDraft(ctx, models.Entry{})
	require.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, 2, svc.Count())
}

// Any interleaving of create, delete and load keeps ids unique.
func TestUniqueIDsUnderRandomOperations(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	c := &fakeClient{}
	store := storage.NewMemoryStore(0, nil)
	svc := newEntrySvc(t, c, store)

	for i := 0; i < 300; i++ {
		c.set(func(f *fakeClient) {
			f.createErr, f.deleteErr, f.listErr = nil, nil, nil
			if rng.Intn(3) == 0 {
				f.createErr = errOffline
			}
			if rng.Intn(3) == 0 {
				f.deleteErr = errOffline
			}
			if rng.Intn(4) == 0 {
				f.listErr = errOffline
			}
		})

		switch op := rng.Intn(6); op {
		case 0, 1:
			_, _ = svc.Create(ctx, models.EntryPatch{Content: models.Ptr(fmt.Sprint(i))})
		case 2:
			if list := svc.List(); len(list) > 0 {
				_ = svc.Delete(ctx, list[rng.Intn(len(list))].ID)
			}
		case 3:
			_ = svc.Load(ctx)
		case 4:
			_, _ = svc.RetryPending(ctx)
		case 5:
			_, _ = svc.SaveDraft(ctx, models.Entry{Content: "d"})
		}

		assertUniqueIDs(t, svc.List())
		assertUniqueIDs(t, storage.Entries(ctx, store))
	}
}
