package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/kidsdiary/internal/client/images"
	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
	"github.com/dmitrijs2005/kidsdiary/internal/client/services"
)

// Drafts shows the draft being edited and the drafts stored in the collection.
func (a *App) Drafts(ctx context.Context) error {
	if cur, ok := a.engine.Drafts.Current(); ok {
		s := a.engine.Drafts.Summary()
		fmt.Fprintf(a.out, "Editing %s: %d characters, image: %t, unsaved: %t\n",
			cur.ID, s.WordCount, s.HasImage, a.engine.Drafts.HasUnsavedChanges())
	} else {
		fmt.Fprintln(a.out, "No draft being edited.")
	}
	printEntries(a.out, a.engine.Entries.Drafts())
	return nil
}

func (a *App) NewDraft(ctx context.Context) error {
	if a.engine.Drafts.ShouldPromptSave() &&
		Confirm(a.reader, "The current draft has unsaved changes. Save it first?", a.out) {
		if err := a.engine.Drafts.Save(ctx); err != nil {
			return err
		}
	}
	d, err := a.engine.Drafts.NewDraft(ctx, models.EntryPatch{})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Started draft %s\n", d.ID)
	return nil
}

// Edit makes a draft from the collection the one being edited.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter draft id to edit")
	if err != nil {
		return err
	}
	e, ok := a.engine.Entries.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", services.ErrNotFound, id)
	}
	if e.Status != models.StatusDraft {
		return fmt.Errorf("%w: %s is %s", services.ErrNotDraft, id, e.Status)
	}
	if err := a.engine.Drafts.LoadDraft(ctx, e); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Editing %s\n", id)
	return nil
}

// SetField updates one field of the current draft, starting a draft if
// there is none. Without a value the user is prompted.
func (a *App) SetField(ctx context.Context, field string, args []string) error {
	value := strings.Join(args, " ")
	if value == "" {
		var err error
		if field == "content" {
			value, err = GetMultiline(a.reader, "Content", a.out)
		} else {
			value, err = GetSimpleText(a.reader, "Enter "+field, a.out)
		}
		if err != nil {
			return err
		}
	}

	d := a.engine.Drafts
	var err error
	switch field {
	case "title":
		err = d.SetTitle(ctx, value)
	case "content":
		err = d.SetContent(ctx, value)
	case "scene":
		err = d.SetScene(ctx, value)
	case "mood":
		var m models.Mood
		if m, err = models.ParseMood(value); err == nil {
			err = d.SetMood(ctx, m)
		}
	case "weather":
		var w models.Weather
		if w, err = models.ParseWeather(value); err == nil {
			err = d.SetWeather(ctx, w)
		}
	case "child":
		var c models.ChildState
		if c, err = models.ParseChildState(value); err == nil {
			err = d.SetChildState(ctx, c)
		}
	case "image":
		var ref string
		if ref, err = imageRef(value); err == nil {
			err = d.SetImage(ctx, ref)
		}
	default:
		err = fmt.Errorf("%w: unknown field %q", errUsage, field)
	}
	if err != nil {
		return err
	}

	if d.AutoSaveEnabled() {
		fmt.Fprintf(a.out, "Draft %s updated.\n", field)
	} else {
		fmt.Fprintf(a.out, "Draft %s updated (autosave off, use 'save').\n", field)
	}
	return nil
}

// imageRef keeps URLs and data URIs as they are and embeds local files.
func imageRef(value string) (string, error) {
	switch {
	case value == "-":
		return "", nil
	case images.IsDataURI(value), strings.HasPrefix(value, "http://"), strings.HasPrefix(value, "https://"):
		return value, nil
	}
	mediaType, data, err := readImageFile(value)
	if err != nil {
		return "", err
	}
	return images.EncodeDataURI(mediaType, data), nil
}

func (a *App) SaveDraft(ctx context.Context) error {
	if err := a.engine.Drafts.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Draft saved.")
	return nil
}

func (a *App) ClearDraft(ctx context.Context) error {
	if err := a.engine.Drafts.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Draft discarded.")
	return nil
}

// Publish moves the current draft into the diary and sends it to the server.
func (a *App) Publish(ctx context.Context) error {
	e, err := a.engine.Publish(ctx)
	switch {
	case err == nil:
		fmt.Fprintf(a.out, "Published as %s\n", e.ID)
		return nil
	case errors.Is(err, services.ErrNotSynced):
		fmt.Fprintln(a.out, "Server unreachable; the draft is kept. Run 'publish' again later.")
		a.engine.Entries.ClearError()
		return nil
	default:
		return err
	}
}
