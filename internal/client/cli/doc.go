// Package cli provides the interactive vocab command-line client.
//
// It wires configuration, the local database, the remote store, AI and
// speech services and an interactive REPL that keeps working offline. Typical
// flow: restore the session, load the cached words and sentences, start the
// connectivity monitor and execute user commands. Writes made offline are
// queued and replayed when the remote store becomes reachable again.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See Build, App and runREPL for details.
package cli
