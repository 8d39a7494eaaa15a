package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"delisys/internal/config"
	"delisys/internal/delivery"
	"delisys/internal/scanner"
)

// resolveDir expands a CLI path argument, falling back to the configured
// value when the argument is blank.
func resolveDir(arg, fallback string) (string, error) {
	value := strings.TrimSpace(arg)
	if value == "" {
		value = fallback
	}
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	expanded, err := config.ExpandPath(value)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", value, err)
	}
	return abs, nil
}

func sourceArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func resolveSource(cfg *config.Config, args []string) (string, error) {
	dir, err := resolveDir(sourceArg(args), cfg.Paths.SourceDir)
	if err != nil {
		return "", err
	}
	if dir == "" {
		return "", scanner.ErrEmptyPath
	}
	return dir, nil
}

func resolveOutput(cfg *config.Config, flag string) (string, error) {
	dir, err := resolveDir(flag, cfg.Paths.OutputDir)
	if err != nil {
		return "", err
	}
	if dir == "" {
		return "", delivery.ErrEmptyOutputDir
	}
	return dir, nil
}

func scanOptions(cfg *config.Config) scanner.Options {
	return scanner.Options{
		IncludeHidden: cfg.Scan.IncludeHidden,
		Extensions:    cfg.Scan.Extensions,
	}
}

// buildRequest assembles a delivery request from config, positional source
// argument and --output flag. Both directories are required.
func buildRequest(cfg *config.Config, args []string, output string) (delivery.Request, error) {
	source, err := resolveSource(cfg, args)
	if err != nil {
		return delivery.Request{}, err
	}
	out, err := resolveOutput(cfg, output)
	if err != nil {
		return delivery.Request{}, err
	}
	return delivery.Request{
		SourceDir:  source,
		OutputDir:  out,
		Pattern:    cfg.Template.Pattern,
		DateFormat: cfg.Template.DateFormat,
		Scan:       scanOptions(cfg),
		Verify:     cfg.Delivery.Verify,
	}, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// displayPath shows path relative to base when it lives underneath it.
func displayPath(base, path string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
