// Package naming parses delivery metadata out of rendered frame filenames.
package naming
