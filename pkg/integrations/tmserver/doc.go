// Package tmserver provides a typed client for threat model (TM) servers.
//
// The package covers the three server surfaces the CLI touches:
//
//   - OAuth login and token refresh ([Authenticator])
//   - Threat model and repository reads, cached under "http:tmserver:"
//     keys with a refresh escape hatch
//   - Notes and diagrams, written with create-or-update semantics so
//     repeated analysis runs converge on one report note and one DFD
//     per threat model
//
// Notes and diagrams are never cached: find-by-name feeds read-modify-write
// decisions, and a stale listing would fork duplicates on the server.
package tmserver
