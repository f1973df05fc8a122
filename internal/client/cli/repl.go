package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Log(ctx context.Context, text string) error
	List(ctx context.Context) error
	Favorites(ctx context.Context) error
	ToggleFavorite(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Sync(ctx context.Context) error
	Refresh(ctx context.Context) error
	Quota(ctx context.Context) error
	Upgrade(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the smallwins CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//   - help           — show available commands
//   - log [text]     — log a small win (empty text gets a placeholder)
//   - l | list       — list all moments, newest first
//   - favs           — list favorited moments
//   - fav [id]       — toggle the favorite flag on a moment
//   - rm [id]        — delete a moment (sync cannot bring it back)
//   - restore [id]   — undo a delete on the server and locally
//   - sync           — run the sync loop until it drains
//   - refresh        — pull the full moment list from the server
//   - quota          — show the current quota state
//   - upgrade        — go premium, lifting the quota limits
//   - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("wins %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		firstArg := ""
		if len(args) > 0 {
			firstArg = args[0]
		}

		switch cmd {
		case "help":
			printlnFn("Available commands: log [text], (l)ist, favs, fav [id], rm [id], restore [id], sync, refresh, quota, upgrade, exit")

		case "log":
			_ = a.Log(ctx, strings.Join(args, " "))

		case "l", "list":
			_ = a.List(ctx)

		case "favs":
			_ = a.Favorites(ctx)

		case "fav":
			_ = a.ToggleFavorite(ctx, firstArg)

		case "rm":
			_ = a.Delete(ctx, firstArg)

		case "restore":
			_ = a.Restore(ctx, firstArg)

		case "sync":
			_ = a.Sync(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "quota":
			_ = a.Quota(ctx)

		case "upgrade":
			_ = a.Upgrade(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
