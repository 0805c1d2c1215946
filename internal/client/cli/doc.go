// Package cli provides the interactive vault command-line client.
//
// It wires configuration, local storage, the remote API client and an
// interactive REPL that supports online/offline operation. Typical flow:
// sync accounts from the server, save them for offline use, enroll an
// offline profile, and keep reading codes when the server is gone.
//
// Key features:
//   - Sync / Save (encrypted offline storage)
//   - List accounts with freshly generated codes
//   - Offline login by password or possession credential
//   - Connectivity watcher that flips online/offline mode
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
