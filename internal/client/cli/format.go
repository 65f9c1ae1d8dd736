package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/kidsdiary/internal/client/images"
	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
)

const previewRunes = 30

// entryLine renders one row of a listing.
func entryLine(e models.Entry) string {
	title := e.Title
	if title == "" {
		title = preview(e.Content)
	}
	line := fmt.Sprintf("%-32s %s  %-8s %s", e.ID, e.Time().Format("2006-01-02 15:04"), e.Status, title)
	if e.PendingSync {
		line += "  (pending sync)"
	}
	return line
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	return string([]rune(s)[:previewRunes]) + "…"
}

func printEntries(w io.Writer, entries []models.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}
	for _, e := range entries {
		fmt.Fprintln(w, entryLine(e))
	}
}

func printEntry(w io.Writer, e models.Entry) {
	fmt.Fprintf(w, "ID:      %s\n", e.ID)
	fmt.Fprintf(w, "Status:  %s\n", e.Status)
	fmt.Fprintf(w, "Time:    %s\n", e.Time().Format("2006-01-02 15:04:05"))
	field(w, "Title", e.Title)
	field(w, "Mood", labelled(string(e.Mood), models.MoodLabels[e.Mood]))
	field(w, "Weather", labelled(string(e.Weather), models.WeatherLabels[e.Weather]))
	field(w, "Child", labelled(string(e.ChildState), models.ChildStateLabels[e.ChildState]))
	field(w, "Scene", e.Scene)
	field(w, "Image", imageSummary(e.ImageRef))
	if e.PendingSync {
		fmt.Fprintln(w, "Sync:    pending")
	}
	if len(e.Suggestion) > 0 {
		fmt.Fprintln(w, "Suggest: yes")
	}
	if e.Content != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, e.Content)
	}
}

func field(w io.Writer, name, value string) {
	if value != "" {
		fmt.Fprintf(w, "%-8s %s\n", name+":", value)
	}
}

func labelled(value, label string) string {
	if value == "" || label == "" {
		return value
	}
	return value + " (" + label + ")"
}

func imageSummary(ref string) string {
	if !images.IsDataURI(ref) {
		return ref
	}
	mediaType, data, err := images.ParseDataURI(ref)
	if err != nil {
		return "embedded (unreadable)"
	}
	return fmt.Sprintf("embedded %s, %d bytes", mediaType, len(data))
}

func pendingCount(entries []models.Entry) int {
	n := 0
	for _, e := range entries {
		if e.PendingSync {
			n++
		}
	}
	return n
}
