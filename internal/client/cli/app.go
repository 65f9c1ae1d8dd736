package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/kidsdiary/internal/client/client"
	"github.com/dmitrijs2005/kidsdiary/internal/client/config"
	"github.com/dmitrijs2005/kidsdiary/internal/client/services"
	"github.com/dmitrijs2005/kidsdiary/internal/logging"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

type App struct {
	config *config.Config
	engine *services.Engine
	client client.Client
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer

	mu   sync.RWMutex
	mode Mode
}

// NewApp builds the shell over an engine that has not been initialized yet.
func NewApp(c *config.Config, engine *services.Engine, apiClient client.Client, log logging.Logger) *App {
	if log == nil {
		log = logging.NewNop()
	}
	return &App{
		config: c,
		engine: engine,
		client: apiClient,
		log:    log.With("component", "cli"),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Run restores local state, starts the connectivity watcher and blocks in
// the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.engine.Initialize(ctx)
	a.checkOnline(ctx)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.Root(ctx)
}

// Root prints the banner and runs the REPL on the app's reader.
func (a *App) Root(ctx context.Context) {
	if interactive() {
		fmt.Fprintln(a.out, "Kids diary (type 'help' for commands)")
	}
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) currentMode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

// setMode records mode and reports whether it changed.
func (a *App) setMode(ctx context.Context, mode Mode) bool {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(ctx, "connectivity changed", "mode", mode)
	}
	return changed
}

// checkOnline pings the gateway once. Coming back online pushes pending
// work and refreshes the collection.
func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.client.Ping(pctx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	if a.setMode(ctx, ModeOnline) {
		a.onOnline(ctx)
	}
}

func (a *App) onOnline(ctx context.Context) {
	report, err := a.engine.Entries.RetryPending(ctx)
	if err != nil {
		a.log.Warn(ctx, "retry after reconnect incomplete", "error", err)
	}
	if report.Published > 0 || report.Deleted > 0 {
		a.log.Info(ctx, "pending changes synced", "published", report.Published, "deleted", report.Deleted)
	}
	if err := a.engine.Entries.Load(ctx); err != nil {
		a.log.Warn(ctx, "refresh after reconnect failed", "error", err)
	}
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// getStatus renders the prompt decoration, e.g. "(online, 2 pending, draft*)".
func (a *App) getStatus() string {
	s := string(a.currentMode())
	if s == "" {
		s = "starting"
	}
	if n := pendingCount(a.engine.Entries.List()); n > 0 {
		s += fmt.Sprintf(", %d pending", n)
	}
	if a.engine.Drafts.HasUnsavedChanges() {
		s += ", draft*"
	} else if _, ok := a.engine.Drafts.Current(); ok {
		s += ", draft"
	}
	return "(" + s + ")"
}
