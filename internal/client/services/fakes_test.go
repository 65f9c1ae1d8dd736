package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/kidsdiary/internal/client/client"
	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
	"github.com/dmitrijs2005/kidsdiary/internal/client/storage"
)

var errOffline = fmt.Errorf("%w: connection refused", client.ErrUnavailable)

/*************
 * Fake gateway
 *************/

type fakeClient struct {
	mu sync.Mutex

	remote   []models.Entry
	creates  []models.CreateRequest
	deletes  []string
	lists    int
	seq      int
	analysis models.AnalysisResult

	listErr    error
	createErr  error
	deleteErr  error
	analyzeErr error

	// beforeCreateReturn runs inside Create after the remote copy exists,
	// imitating work interleaved with an in-flight request.
	beforeCreateReturn func()
	// listGate, when set, blocks List until closed.
	listGate chan struct{}
}

func (f *fakeClient) Close() error               { return nil }
func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) List(ctx context.Context) ([]models.Entry, error) {
	f.mu.Lock()
	f.lists++
	gate := f.listGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Entry, len(f.remote))
	copy(out, f.remote)
	return out, nil
}

func (f *fakeClient) Create(ctx context.Context, req models.CreateRequest) (models.Entry, error) {
	f.mu.Lock()
	f.creates = append(f.creates, req)
	if f.createErr != nil {
		err := f.createErr
		f.mu.Unlock()
		return models.Entry{}, err
	}
	f.seq++
	e := models.Entry{
		ID:         fmt.Sprintf("srv-%d", f.seq),
		Timestamp:  float64(1000 + f.seq),
		Title:      req.Title,
		Content:    req.Content,
		Text:       req.Content,
		Mood:       req.Mood,
		Weather:    req.Weather,
		ImageRef:   req.ImageRef,
		Scene:      req.Scene,
		Suggestion: req.Suggestion,
		Status:     models.StatusSaved,
	}
	f.remote = append(f.remote, e)
	hook := f.beforeCreateReturn
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return e, nil
}

func (f *fakeClient) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, e := range f.remote {
		if e.ID == id {
			f.remote = append(f.remote[:i], f.remote[i+1:]...)
			return nil
		}
	}
	return client.ErrNotFound
}

func (f *fakeClient) Analyze(ctx context.Context, req models.AnalyzeRequest) (models.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.analyzeErr != nil {
		return models.AnalysisResult{}, f.analyzeErr
	}
	return f.analysis, nil
}

func (f *fakeClient) set(fn func(f *fakeClient)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeClient) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

func (f *fakeClient) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletes...)
}

/*************
 * Manual scheduler
 *************/

type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock and runs due timers in deadline order.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

func (s *fakeScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

/*************
 * Instrumented store
 *************/

// recordingStore wraps a MemoryStore, records writes per key and can be told
// to fail writes.
type recordingStore struct {
	*storage.MemoryStore

	mu       sync.Mutex
	clock    func() time.Duration
	writes   map[storage.Key][]time.Duration
	failSets bool
}

func newRecordingStore(clock func() time.Duration) *recordingStore {
	if clock == nil {
		clock = func() time.Duration { return 0 }
	}
	return &recordingStore{
		MemoryStore: storage.NewMemoryStore(0, nil),
		clock:       clock,
		writes:      make(map[storage.Key][]time.Duration),
	}
}

func (r *recordingStore) Set(ctx context.Context, key storage.Key, value any) bool {
	r.mu.Lock()
	fail := r.failSets
	r.mu.Unlock()
	if fail {
		return false
	}
	if !r.MemoryStore.Set(ctx, key, value) {
		return false
	}
	r.mu.Lock()
	r.writes[key] = append(r.writes[key], r.clock())
	r.mu.Unlock()
	return true
}

func (r *recordingStore) setFail(v bool) {
	r.mu.Lock()
	r.failSets = v
	r.mu.Unlock()
}

func (r *recordingStore) writesTo(key storage.Key) []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.writes[key]...)
}

func ids(entries []models.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

var errUploadDown = errors.New("object store down")

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (u *fakeUploader) Upload(_ context.Context, mediaType string, data []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.err != nil {
		return "", u.err
	}
	return "https://minio.local/diary/" + fmt.Sprint(u.calls) + ".jpg", nil
}
