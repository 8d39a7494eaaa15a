package config

import (
	"errors"
	"fmt"
	"time"

	"delisys/internal/pathtemplate"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTemplate(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTemplate() error {
	if err := pathtemplate.Validate(c.Template.Pattern); err != nil {
		return fmt.Errorf("template.pattern: %w", err)
	}
	if c.Template.DateFormat == "" {
		return errors.New("template.date_format must be set")
	}
	// A layout without any time directive renders the same literal every run.
	ref := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	if ref.Format(c.Template.DateFormat) == c.Template.DateFormat {
		return fmt.Errorf("template.date_format %q contains no date or time elements (use a Go layout such as %q)", c.Template.DateFormat, defaultDateFormat)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
