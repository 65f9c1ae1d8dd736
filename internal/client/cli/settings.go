package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
)

func (a *App) Theme(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(a.out, "Theme: %s\n", a.engine.Preferences.State().Preferences.Theme)
		return nil
	}
	theme, err := models.ParseTheme(args[0])
	if err != nil {
		return err
	}
	return a.engine.Preferences.SetTheme(ctx, theme)
}

// AutoSave shows or sets the autosave preference.
func (a *App) AutoSave(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(a.out, "Autosave: %s\n", onOff(a.engine.Drafts.AutoSaveEnabled()))
		return nil
	}
	var enabled bool
	switch args[0] {
	case "on":
		enabled = true
	case "off":
	default:
		return fmt.Errorf("%w: autosave [on|off]", errUsage)
	}
	if err := a.engine.Preferences.SetAutoSave(ctx, enabled); err != nil {
		return err
	}
	if enabled {
		return a.engine.Drafts.SetAutoSaveEnabled(ctx, true)
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (a *App) Status(ctx context.Context) error {
	entries := a.engine.Entries
	mode := a.currentMode()
	if mode == ModeUnknown {
		mode = "unknown"
	}
	fmt.Fprintf(a.out, "Mode:      %s\n", mode)
	fmt.Fprintf(a.out, "Entries:   %d (%d draft, %d saved, %d exported)\n",
		entries.Count(), len(entries.Drafts()), len(entries.Saved()), len(entries.Exported()))
	fmt.Fprintf(a.out, "Pending:   %d\n", pendingCount(entries.List()))

	u := a.engine.StorageInfo(ctx)
	fmt.Fprintf(a.out, "Storage:   %.1f / %.1f KiB\n", float64(u.Used)/1024, float64(u.Total)/1024)

	prefs := a.engine.Preferences.State()
	fmt.Fprintf(a.out, "Theme:     %s\n", prefs.Preferences.Theme)
	fmt.Fprintf(a.out, "Autosave:  %s\n", onOff(a.engine.Drafts.AutoSaveEnabled()))

	if cur, ok := a.engine.Drafts.Current(); ok {
		s := a.engine.Drafts.Summary()
		saved := "never"
		if s.LastModified != nil {
			saved = s.LastModified.Format(time.TimeOnly)
		}
		fmt.Fprintf(a.out, "Draft:     %s, %d characters, last saved %s\n", cur.ID, s.WordCount, saved)
	}
	if msg := entries.LastError(); msg != "" {
		fmt.Fprintf(a.out, "Last error: %s\n", msg)
	}
	return nil
}

// Dump writes a JSON backup of all local data.
func (a *App) Dump(ctx context.Context, args []string) error {
	path := "diary-backup-" + time.Now().Format("20060102-150405") + ".json"
	if len(args) > 0 {
		path = args[0]
	}
	data, err := a.engine.Export(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Backup written to %s\n", path)
	return nil
}

// Restore replaces local data with a backup file.
func (a *App) Restore(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: restore <file>", errUsage)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := a.engine.Import(ctx, data); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Restored %d entries.\n", a.engine.Entries.Count())
	return nil
}

// Wipe deletes all local data after confirmation.
func (a *App) Wipe(ctx context.Context) error {
	if !Confirm(a.reader, "Delete ALL local diary data?", a.out) {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}
	if err := a.engine.ClearAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Local data cleared.")
	return nil
}

// BeforeExit offers to save a draft that autosave will not commit.
func (a *App) BeforeExit(ctx context.Context) {
	if !a.engine.Drafts.ShouldPromptSave() {
		return
	}
	if Confirm(a.reader, "The current draft has unsaved changes. Save before exit?", a.out) {
		if err := a.engine.Drafts.Save(ctx); err != nil {
			fmt.Fprintf(a.out, "Error: %v\n", err)
		}
	}
}
