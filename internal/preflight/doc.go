// Package preflight checks filesystem readiness before a delivery starts.
//
// The deliver command runs RunAll and refuses to copy anything when a check
// fails, so a run never stops halfway because the output volume is read-only.
// The individual checks are also used on their own by "config validate".
package preflight
