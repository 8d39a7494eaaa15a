package testsupport

import (
	"path/filepath"
	"testing"

	"delisys/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Source and output directories live under the same temp root.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceDir = filepath.Join(base, "source")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPattern overrides the destination template.
func WithPattern(pattern string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Template.Pattern = pattern
	}
}

// WithoutHistory disables run history on the test config.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Delivery.History = false
	}
}

// WithSourceFiles writes small files with the given names into the source
// directory.
func WithSourceFiles(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range names {
			WriteFile(b.t, filepath.Join(b.cfg.Paths.SourceDir, name), int64(len(name)))
		}
	}
}
