// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package config loads turkpy.toml.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// FileName is the project configuration file searched for by Load.
const FileName = "turkpy.toml"

type Config struct {
	Compiler  CompilerConfig  `mapstructure:"compiler" toml:"compiler"`
	Python    PythonConfig    `mapstructure:"python" toml:"python"`
	Generator GeneratorConfig `mapstructure:"generator" toml:"generator"`
	Database  DatabaseConfig  `mapstructure:"database" toml:"database"`
	Dataset   DatasetConfig   `mapstructure:"dataset" toml:"dataset"`
	Watch     WatchConfig     `mapstructure:"watch" toml:"watch"`
}

// CompilerConfig locates the native compiler used for AST parity checks.
type CompilerConfig struct {
	Command        string `mapstructure:"command" toml:"command"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
}

// PythonConfig is the interpreter the verify stage runs generated code with.
type PythonConfig struct {
	Command        string `mapstructure:"command" toml:"command"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
}

type GeneratorConfig struct {
	Indent      int    `mapstructure:"indent" toml:"indent"`
	Constructor string `mapstructure:"constructor" toml:"constructor"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

type DatasetConfig struct {
	Instruction string `mapstructure:"instruction" toml:"instruction"`
	Output      string `mapstructure:"output" toml:"output"`
}

type WatchConfig struct {
	DebounceMS int      `mapstructure:"debounce_ms" toml:"debounce_ms"`
	Extensions []string `mapstructure:"extensions" toml:"extensions"`
}

func (c CompilerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c PythonConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// SetDefaults configures default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("compiler.command", "turkc")
	v.SetDefault("compiler.timeout_seconds", 10)

	v.SetDefault("python.command", "python3")
	v.SetDefault("python.timeout_seconds", 10)

	v.SetDefault("generator.indent", 4)
	v.SetDefault("generator.constructor", "kurucu")

	v.SetDefault("database.path", "turkpy.db")

	v.SetDefault("dataset.instruction", "Aşağıdaki istek için Türkçe anahtar kelimeli bir program yaz.")
	v.SetDefault("dataset.output", "dataset.jsonl")

	v.SetDefault("watch.debounce_ms", 200)
	v.SetDefault("watch.extensions", []string{".tr"})
}

// Default returns the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "config: defaults"))
	}
	return &cfg
}

// Load reads the configuration file at path, then applies TURKPY_* environment
// variables (TURKPY_PYTHON_COMMAND overrides python.command).
// An empty path searches the working directory and its parents for turkpy.toml;
// finding none is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TURKPY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = Find(wd)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the tools cannot run with.
func (c *Config) Validate() error {
	if c.Generator.Indent < 1 {
		return errors.WithHint(errors.Newf("generator.indent: want at least 1, got %d", c.Generator.Indent), "the default is 4")
	}
	if c.Compiler.TimeoutSeconds < 1 {
		return errors.Newf("compiler.timeout_seconds: want at least 1, got %d", c.Compiler.TimeoutSeconds)
	}
	if c.Python.TimeoutSeconds < 1 {
		return errors.Newf("python.timeout_seconds: want at least 1, got %d", c.Python.TimeoutSeconds)
	}
	if c.Watch.DebounceMS < 0 {
		return errors.Newf("watch.debounce_ms: want 0 or more, got %d", c.Watch.DebounceMS)
	}
	return nil
}

// Find walks up from dir looking for turkpy.toml and returns its path,
// or an empty string if there is none.
func Find(dir string) string {
	for {
		path := filepath.Join(dir, FileName)
		if sb, err := os.Stat(path); err == nil && !sb.IsDir() {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Write saves cfg as TOML. It refuses to replace an existing file unless force is set.
func Write(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.WithHint(errors.Newf("%s: file exists", path), "use --force to overwrite it")
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
