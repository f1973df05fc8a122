// Package cli provides the interactive smallwins command-line client.
//
// It wires configuration, local storage, the REST API client, and an
// interactive REPL built around the offline-first moment store. Typical
// flow: open the local database, resolve the anonymous identity, start the
// background sync loop, and execute user commands.
//
// Key features:
//   - Log a small win (optionally backdated)
//   - List all moments or just favorites
//   - Favorite, delete and restore moments
//   - Trigger a sync pass or a full refresh from the server
//   - Show the current quota state
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
