// Package main hosts the delisys CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into calls on the
// internal packages: scanning a source directory, previewing the rendered
// delivery plan, copying files, and browsing run history. It centralizes
// configuration resolution and logger setup so subcommands only deal with
// arguments and output.
//
// Keep this package thin: behaviour belongs in internal/delivery and its
// helpers, and commands here only surface it.
package main
