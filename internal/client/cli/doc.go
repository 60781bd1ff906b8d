// Package cli provides the interactive satkeeper command-line client.
//
// It wires configuration, the local credential store and audit database,
// the identity provider client and the authenticator into a REPL. A
// background watcher probes the identity provider and switches between
// online and offline mode.
//
// Commands:
//   - configure / clear: store or delete the local credential record
//   - register: create an account on the identity provider
//   - login / logout / refresh: manage the current session
//   - status / check <permission> / headers: inspect the current session
//   - audit [n]: show the most recent audit entries
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
