// Package cli provides the interactive authkeeper command-line client.
//
// It wires configuration, the local session database, the API client and the
// auth service into a REPL. Before login the prompt shows the guest view with
// login, signup and CAPTCHA commands; after login it shows the account name
// and offers whoami and logout.
//
// CAPTCHA images cannot be drawn in a terminal, so each one is written to the
// configured directory and its path printed for the user to open.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
