// Package dfd builds data flow diagrams from extracted infrastructure data.
//
// The package turns a flat list of typed components and directed flows
// (produced by the LLM extraction step) into a positioned, nested, styled
// cell list in the TM server's diagram format (AntV X6 v2).
//
// # Pipeline
//
// A build runs a fixed sequence of pure steps:
//
//  1. [ExtractJSON] locates a JSON document in raw model output (plain text,
//     fenced code block, or brace-delimited span).
//  2. [Parse] validates the document against the component/flow contract and
//     returns a typed [Model].
//  3. [Build] resolves containment, creates node cells (boundaries before
//     leaves), assigns coordinates with a recursive grid layout, resizes
//     boundaries around their children, and synthesizes flow edges.
//
// [Extract] combines steps 1 and 2 for callers holding raw model text.
//
// # Core Types
//
//   - [Component], [Flow], [Model]: validated input records
//   - [ComponentType]: closed enumeration of component kinds
//   - [Cell]: output unit, a node or edge in the diagram schema
//
// # Layout
//
// Roots are placed along fixed cursors (tenancy and container boundaries
// stack vertically, everything else flows horizontally). Children of a
// boundary are arranged in a near-square grid inside its padded interior,
// depth-first, and each boundary is then resized to the bounding box of its
// children plus padding.
//
// Layout is deterministic: placement follows input list order only, so
// identical input produces identical coordinates. Cell ids are random uuids
// minted per build and are the only thing that differs between two builds
// of the same model.
//
// # Errors
//
// Unparseable output, contract violations, and cyclic parent chains fail the
// build with structured errors (pkg/errors); a dangling flow endpoint found
// during edge synthesis only skips that edge. Build never returns a partial
// cell list.
//
// # Concurrency
//
// All state lives in per-call values; every function is safe for concurrent
// use as long as callers do not share a Model while mutating it.
package dfd
