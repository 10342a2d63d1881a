// Package cli implements the chainkeeper command-line client on top of cobra.
//
// Online commands (signup, signin, whoami, signout, ping) talk to the server
// through services.AuthService and keep their state in the local database.
// Offline commands (salt, generate, parse, validate) run the hash-chain
// primitives locally and never open a connection.
package cli
