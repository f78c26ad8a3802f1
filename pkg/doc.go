// Package pkg provides the core libraries for threatmap Terraform analysis.
//
// # Overview
//
// Threatmap connects a threat modeling server to infrastructure code: it
// clones the Terraform repositories attached to a threat model, analyzes them
// with an LLM, and publishes the findings back to the server as a markdown
// report and a data flow diagram. The pkg directory is organized into four
// main areas:
//
//  1. [pipeline] - Orchestration (analyze → extract → build)
//  2. [dfd] - Data flow diagram model, validation, and cell synthesis
//  3. [integrations] - External API clients (TM server, GitHub)
//  4. [cache] / [session] / [config] - Infrastructure (caching, auth state, settings)
//
// # Architecture
//
// The typical data flow through threatmap:
//
//	Threat Model (TM server)
//	         ↓
//	    [source/git] package (sparse-clone the Terraform repositories)
//	         ↓
//	    [pipeline] package (LLM analysis, once per repository)
//	         ↓
//	    [report] package (consolidated markdown report)
//	         ↓
//	    [pipeline] + [dfd] packages (structured extraction → diagram cells)
//	         ↓
//	    TM server note + DFD diagram
//
// # Quick Start
//
// Analyze a repository and build diagram cells:
//
//	import (
//	    "context"
//	    "github.com/threatmap/threatmap/pkg/cache"
//	    "github.com/threatmap/threatmap/pkg/llm"
//	    "github.com/threatmap/threatmap/pkg/pipeline"
//	    "github.com/threatmap/threatmap/pkg/source/git"
//	)
//
//	// 1. Clone the Terraform subset of a repository
//	cloner := git.NewSparseCloner(5 * time.Minute)
//	checkout, _ := cloner.Clone(ctx, "https://github.com/acme/infra-live", "infra-live")
//	defer checkout.Close()
//
//	// 2. Run the cached analysis stage
//	client := llm.NewOpenAIClient(apiKey, "gpt-4o", "")
//	runner := pipeline.NewRunner(client, cache.NewNullCache(), nil, nil)
//	opts := pipeline.Options{Model: "gpt-4o"}
//	analysis, _ := runner.AnalyzeRepo(ctx, checkout, opts)
//
//	// 3. Extract the structured model and build diagram cells
//	result, _ := runner.Execute(ctx, analysis, opts)
//
// # Main Packages
//
// ## Core Domain Logic
//
// [pipeline] - Cached LLM stages shared by every entry point: per-repository
// analysis, structured extraction over the consolidated report, and diagram
// cell building. A broken cache degrades to slower runs, never failed ones.
//
// [dfd] - Data flow diagram domain: the component/flow model with validation
// rules, JSON extraction from model output, and synthesis of positioned
// diagram cells (shapes, security boundaries, ports, edges).
//
// [report] - Consolidated markdown report combining per-repository analyses
// with an executive summary section and failure entries.
//
// [source/git] - Sparse git checkouts that materialize only Terraform and
// documentation files, with content hashing for cache keys.
//
// [llm] - Model client over the OpenAI chat API plus the analysis and
// extraction prompts.
//
// ## External Integrations
//
// [integrations] - Shared HTTP client with response caching, retry with
// backoff, and status-to-error mapping.
//
// [integrations/tmserver] - Threat modeling server API: threat models,
// repositories, notes, diagrams, and the OAuth browser login flow.
//
// [integrations/github] - GitHub repository metadata, URL parsing, and rate
// limit reporting.
//
// ## Infrastructure
//
// [cache] - Cache interface with file, Redis, and null backends, key
// derivation, and TTL policy.
//
// [session] - Persisted login sessions (file or Redis backed) with expiry
// and refresh handling.
//
// [config] - Layered configuration: defaults → config file → .env →
// environment variables, with validation and secret masking.
//
// [errors] - Coded errors with user-facing messages and input validation
// helpers.
//
// [observability] - Optional instrumentation hooks for pipeline stages,
// cache operations, and HTTP calls.
//
// ## Output
//
// [render] - Graphviz previews of diagram cells (DOT, SVG, PNG, PDF).
//
// [buildinfo] - Build metadata injected at link time.
//
// # Common Workflows
//
// Fetch a threat model and its repositories:
//
//	client := tmserver.NewClient(serverURL, token, backend, cache.TTLDefault)
//	tm, _ := client.GetThreatModel(ctx, tmID, false)
//	repos, _ := client.ListRepositories(ctx, tmID, false)
//
// Log in and reuse the session:
//
//	store, _ := session.NewCLIStore(serverURL, "")
//	auth := tmserver.NewAuthenticator(serverURL, "github", 8888)
//	sess, _ := auth.EnsureSession(ctx, store, false)
//
// Render a local diagram preview:
//
//	dot := render.ToDOT(result.Cells, render.Options{})
//	svg, _ := render.RenderSVG(dot)
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/dfd/...                # Specific package
//	go test -run Example                 # Examples only
//	go test -tags integration ./pkg/...  # Include integration tests
//
// [pipeline]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/pipeline
// [dfd]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/dfd
// [report]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/report
// [source/git]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/source/git
// [llm]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/llm
// [integrations]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/integrations
// [integrations/tmserver]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/integrations/tmserver
// [integrations/github]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/integrations/github
// [cache]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/cache
// [session]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/session
// [config]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/config
// [errors]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/errors
// [observability]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/observability
// [render]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/render
// [buildinfo]: https://pkg.go.dev/github.com/threatmap/threatmap/pkg/buildinfo
package pkg
