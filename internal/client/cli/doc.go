// Package cli provides the interactive thesisvault command-line client.
//
// It wires configuration, the record store, the identity provider and the
// credential gate, then runs a read-eval-print loop. Each command runs to
// completion before the next line is read, so an upload or download can
// never be started twice from the same prompt.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
