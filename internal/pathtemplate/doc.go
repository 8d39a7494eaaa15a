// Package pathtemplate renders destination paths from patterns containing
// {KEY} placeholders.
//
// Rendering is a pure function of the pattern and a value map; there is no
// shared template object. Missing values surface as ErrMissingKey so callers
// can treat a pattern/context mismatch as a configuration error instead of
// writing files to half-rendered paths.
package pathtemplate
