package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
	"github.com/dmitrijs2005/kidsdiary/internal/client/services"
)

var errUsage = errors.New("usage")

// argOrPrompt returns args joined, or asks for the value when args is empty.
func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	return GetSimpleText(a.reader, prompt, a.out)
}

// List prints the collection, optionally filtered by status.
func (a *App) List(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printEntries(a.out, a.engine.Entries.List())
		return nil
	}
	status := models.Status(args[0])
	if !status.Valid() {
		return fmt.Errorf("%w: list [draft|saved|exported]", errUsage)
	}
	printEntries(a.out, a.engine.Entries.ByStatus(status))
	return nil
}

func (a *App) Recent(ctx context.Context, args []string) error {
	n := 0
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return fmt.Errorf("%w: recent [n]", errUsage)
		}
		n = v
	}
	printEntries(a.out, a.engine.Entries.Recent(n))
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter entry id to show")
	if err != nil {
		return err
	}
	e, ok := a.engine.Entries.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", services.ErrNotFound, id)
	}
	printEntry(a.out, e)
	return nil
}

// Create asks for the entry fields and creates it directly, bypassing the
// draft controller.
func (a *App) Create(ctx context.Context) error {
	title, err := GetSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	content, err := GetMultiline(a.reader, "Content", a.out)
	if err != nil {
		return err
	}
	moodText, err := GetSimpleText(a.reader, "Mood (happy, calm, sad, excited, tired; empty to skip)", a.out)
	if err != nil {
		return err
	}
	mood, err := models.ParseMood(moodText)
	if err != nil {
		return err
	}

	patch := models.EntryPatch{Title: &title, Content: &content}
	if mood != "" {
		patch.Mood = &mood
	}
	e, err := a.engine.Entries.Create(ctx, patch)
	return a.reportCreated(e, err)
}

func (a *App) reportCreated(e models.Entry, err error) error {
	switch {
	case err == nil:
		fmt.Fprintf(a.out, "Created %s\n", e.ID)
		return nil
	case errors.Is(err, services.ErrNotSynced):
		fmt.Fprintf(a.out, "Saved locally as %s; it will be sent when the server is reachable.\n", e.ID)
		return nil
	case errors.Is(err, services.ErrDeletedDuringSync):
		fmt.Fprintln(a.out, "Entry was deleted before the server confirmed it.")
		return nil
	default:
		return err
	}
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter entry id to delete")
	if err != nil {
		return err
	}
	if err := a.engine.Entries.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", id)
	a.flushLastError()
	return nil
}

// MarkExported annotates a saved entry as exported.
func (a *App) MarkExported(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter entry id to mark as exported")
	if err != nil {
		return err
	}
	e, err := a.engine.Entries.MarkExported(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s\n", e.ID, e.Status)
	return nil
}

// Analyze sends a photo for analysis and creates an entry from the result.
func (a *App) Analyze(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: analyze <photo> [region]", errUsage)
	}
	mediaType, data, err := readImageFile(args[0])
	if err != nil {
		return err
	}
	region := strings.Join(args[1:], " ")

	fmt.Fprintln(a.out, "Analysing photo...")
	e, err := a.engine.Entries.AnalyzePhotoAndCreate(ctx, mediaType, data, region)
	if err != nil && !errors.Is(err, services.ErrNotSynced) && !errors.Is(err, services.ErrDeletedDuringSync) {
		return err
	}
	if err := a.reportCreated(e, err); err != nil {
		return err
	}
	if e.ID != "" {
		printEntry(a.out, e)
	}
	return nil
}

// Sync refreshes the collection from the server.
func (a *App) Sync(ctx context.Context) error {
	if err := a.engine.Entries.Load(ctx); err != nil {
		a.engine.Entries.ClearError()
		return err
	}
	fmt.Fprintf(a.out, "Synced, %d entries.\n", a.engine.Entries.Count())
	return nil
}

// Retry pushes pending creates and owed remote deletes.
func (a *App) Retry(ctx context.Context) error {
	report, err := a.engine.Entries.RetryPending(ctx)
	fmt.Fprintf(a.out, "Published %d, failed %d, remote deletes %d done / %d pending.\n",
		report.Published, report.Failed, report.Deleted, report.DeleteFailed)
	a.engine.Entries.ClearError()
	return err
}

// flushLastError shows and clears the repository's error slot.
func (a *App) flushLastError() {
	if msg := a.engine.Entries.LastError(); msg != "" {
		fmt.Fprintf(a.out, "Warning: %s\n", msg)
		a.engine.Entries.ClearError()
	}
}
