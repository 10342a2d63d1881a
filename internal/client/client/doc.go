// Package client contains the client-side building blocks for chainkeeper.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) for the
//     credential service: SignupData/Signup, AuthData/Signin, Whoami and Ping.
//  2. A gRPC implementation (see GRPCClient) that manages a connection,
//     attaches the access token through an interceptor, probes liveness via
//     the standard health service, and maps gRPC status codes to sentinel
//     errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database with embedded goose migrations.
//
// # Error Handling
//
// Server conditions surface as sentinel errors matched with errors.Is:
// ErrUnavailable, ErrUnauthorized, ErrAlreadyExists, ErrConflict and
// ErrBadRequest. An expired session is ErrUnauthorized joined with
// common.ErrTokenExpired.
package client
