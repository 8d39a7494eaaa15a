// Package delivery turns a scanned catalog into copies under an output tree.
//
// RenderPaths maps each catalogued file to a destination using its parsed
// filename metadata and the run-wide template values; CopyAll copies the
// resulting pairs one after another. Deliverer ties both to the scanner,
// logs each step under a run identifier, and hands the finished Summary to
// an optional Recorder.
//
// Errors follow a fixed split: empty paths, unreadable sources, and template
// mismatches abort a run before anything is copied, while malformed names,
// destination conflicts, and filesystem failures are reported per file and
// never stop the batch.
package delivery
