// Package integrations provides HTTP clients for the external services
// threatmap talks to.
//
// # Overview
//
// This package contains low-level API clients, one subpackage per service:
//
//   - [tmserver]: the threat model server REST API (threat models,
//     repositories, notes, diagrams) and its OAuth flow
//   - [github]: GitHub API for repository metadata and rate limit checks
//
// # Client Pattern
//
// All service clients follow a consistent pattern:
//
//	client := tmserver.NewClient(cfg.ServerURL, backend, sess)
//	tm, err := client.GetThreatModel(ctx, id)
//
// Clients handle:
//   - HTTP requests with retry and rate limiting
//   - Response caching (configurable backend and TTL)
//   - API-specific parsing and error mapping
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by all service
// clients, including response caching via [cache.Cache]. GET responses are
// cached under "http:{service}:" keys; writes always go to the server.
//
// # Adding a New Service
//
// To add support for a new external service:
//
//  1. Create a subpackage: pkg/integrations/<service>/
//  2. Define response structs matching the API schema
//  3. Implement a Client embedding [Client] with typed methods
//  4. Use [NewClient] for HTTP with caching
//
// [tmserver]: github.com/threatmap/threatmap/pkg/integrations/tmserver
// [github]: github.com/threatmap/threatmap/pkg/integrations/github
// [cache.Cache]: github.com/threatmap/threatmap/pkg/cache.Cache
package integrations
