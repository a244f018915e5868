// Package main hosts the fitflow CLI entrypoint and command graph.
//
// The Cobra-based command tree covers one-shot conversions, conversion
// history reporting, configuration scaffolding, directory health checks, and
// notification testing. It centralizes configuration resolution so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
