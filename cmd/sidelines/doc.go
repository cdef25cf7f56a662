// Package main hosts the Sidelines CLI entrypoint and command graph.
//
// The Cobra-based command tree turns a local trickshot clip into a
// commentated video: "submit" opens the progress channel, uploads the clip,
// renders step updates live and saves the result. The remaining commands list
// the language and step catalogs, scaffold and inspect configuration, run
// readiness checks against the service, and send a test notification.
//
// Keep this package thin. Attempt semantics live in internal/orchestrator and
// the packages it composes; commands here only resolve configuration, wire
// those packages together and render their state.
package main
