// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package turkpy

import (
	"log/slog"
	"strings"

	"github.com/mdhender/turkpy/hooks"
)

type Config struct {
	logger  *slog.Logger
	genOpts []GenerateOption
	hooks   *hooks.Registry
}

type Option func(c *Config) error

// WithLogger sends lexer and parser traces to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		c.logger = logger
		return nil
	}
}

// WithGenerateOptions passes options through to Generate.
func WithGenerateOptions(opts ...GenerateOption) Option {
	return func(c *Config) error {
		c.genOpts = append(c.genOpts, opts...)
		return nil
	}
}

// WithHooks fires the transpile lifecycle events on registry.
func WithHooks(registry *hooks.Registry) Option {
	return func(c *Config) error {
		c.hooks = registry
		return nil
	}
}

// Transpile converts source into Python text.
//
// Bad input fails with a *TranspileError. Calls share no state and
// may run concurrently.
func Transpile(source string, opts ...Option) (string, error) {
	var cfg Config
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return "", err
		}
	}

	cfg.hooks.Fire(hooks.Event{Name: hooks.TranspileBefore, Source: source})

	output, err := transpile(strings.TrimPrefix(source, "\uFEFF"), &cfg)
	if err != nil {
		if cfg.logger != nil {
			cfg.logger.Debug("transpile", "error", err)
		}
		cfg.hooks.Fire(hooks.Event{Name: hooks.TranspileFailed, Source: source, Err: err})
		return "", err
	}

	cfg.hooks.Fire(hooks.Event{Name: hooks.TranspileAfter, Source: source, Output: output})
	return output, nil
}

func transpile(source string, cfg *Config) (string, error) {
	toks, err := NewLexer("", []byte(source), cfg.logger).ScanAll()
	if err != nil {
		return "", newTranspileError(err)
	}
	prog, err := ParseWithLogger(toks, cfg.logger)
	if err != nil {
		return "", newTranspileError(err)
	}
	output, err := Generate(prog, cfg.genOpts...)
	if err != nil {
		return "", newTranspileError(err)
	}
	return output, nil
}
