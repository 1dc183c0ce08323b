// Package main hosts the anthingest CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the ingest run itself, a dry-run scan,
// ledger history, and configuration scaffolding. It centralizes configuration
// resolution and structured logging setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
