// Package main hosts the fusionkit CLI entrypoint and command graph.
//
// The Cobra command tree drives the toolkit integration headless: it resolves
// image sequences, loads publishes into the current comp, runs scene and frame
// range operations, and exposes the engine's command registry. Comps are the
// file-backed documents from internal/host/compfile, and the current comp is
// shared between invocations through the state directory.
//
// Commands stay thin. Behavior lives in the internal packages and is surfaced
// here through flags and table or JSON output.
package main
