package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to. The real App
// type satisfies it; tests can provide a lightweight stub.
type execIface interface {
	List(ctx context.Context, args []string) error
	Recent(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Create(ctx context.Context) error
	Delete(ctx context.Context, args []string) error
	MarkExported(ctx context.Context, args []string) error
	Analyze(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	Retry(ctx context.Context) error

	Drafts(ctx context.Context) error
	NewDraft(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	SetField(ctx context.Context, field string, args []string) error
	SaveDraft(ctx context.Context) error
	ClearDraft(ctx context.Context) error
	Publish(ctx context.Context) error

	Theme(ctx context.Context, args []string) error
	AutoSave(ctx context.Context, args []string) error
	Status(ctx context.Context) error
	Dump(ctx context.Context, args []string) error
	Restore(ctx context.Context, args []string) error
	Wipe(ctx context.Context) error
	BeforeExit(ctx context.Context)
}

const helpText = `Entries:  (l)ist [draft|saved|exported], recent [n], show <id>, create,
          delete <id>, export <id>, analyze <photo> [region], sync, retry
Draft:    new, edit <id>, title|content|mood|weather|scene|child|image [value],
          save, clear, publish, drafts
Settings: theme [light|dark|auto], autosave [on|off], status
Data:     dump [file], restore <file>, wipe
          exit`

// runREPL starts the read–eval–print loop of the diary shell.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to a. Command errors are printed and the loop continues. The
// loop exits on EOF or when the user types "exit" or "quit"; in the latter
// case a gets a chance to save an unsaved draft first.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("diary %s> ", statusFn()))
		line, readErr := reader.ReadString('\n')
		if readErr != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "l", "list":
			err = a.List(ctx, args)
		case "recent":
			err = a.Recent(ctx, args)
		case "show":
			err = a.Show(ctx, args)
		case "create":
			err = a.Create(ctx)
		case "delete", "rm":
			err = a.Delete(ctx, args)
		case "export":
			err = a.MarkExported(ctx, args)
		case "analyze":
			err = a.Analyze(ctx, args)
		case "sync":
			err = a.Sync(ctx)
		case "retry":
			err = a.Retry(ctx)

		case "drafts":
			err = a.Drafts(ctx)
		case "new":
			err = a.NewDraft(ctx)
		case "edit":
			err = a.Edit(ctx, args)
		case "title", "content", "mood", "weather", "scene", "child", "image":
			err = a.SetField(ctx, cmd, args)
		case "save":
			err = a.SaveDraft(ctx)
		case "clear":
			err = a.ClearDraft(ctx)
		case "publish":
			err = a.Publish(ctx)

		case "theme":
			err = a.Theme(ctx, args)
		case "autosave":
			err = a.AutoSave(ctx, args)
		case "status":
			err = a.Status(ctx)
		case "dump":
			err = a.Dump(ctx, args)
		case "restore":
			err = a.Restore(ctx, args)
		case "wipe":
			err = a.Wipe(ctx)

		case "exit", "quit":
			a.BeforeExit(ctx)
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
		if readErr != nil {
			return
		}
	}
}
