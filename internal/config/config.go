// Package config loads glint.toml, the per-project settings file.
//
//	[pipeline]
//	default_variant = "gohtml"
//
//	[compiler]
//	goVersion = "go1.22"
//	strict = true
//
//	[output]
//	format = "pretty"
//	color = "auto"
//
//	[check]
//	jobs = 4
//
// The file is found by walking up from the working directory. Flags given
// on the command line take precedence over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the name FindConfig looks for.
const FileName = "glint.toml"

var (
	// Formats lists the accepted [output].format values.
	Formats = []string{"pretty", "json", "yaml", "msgpack", "short"}
	// ColorModes lists the accepted [output].color values.
	ColorModes = []string{"auto", "on", "off"}
)

// Config is the decoded glint.toml.
type Config struct {
	// Path is the file the config came from, empty for Default().
	Path     string         `toml:"-"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Compiler map[string]any `toml:"compiler"`
	Output   OutputConfig   `toml:"output"`
	Check    CheckConfig    `toml:"check"`
}

type PipelineConfig struct {
	DefaultVariant string `toml:"default_variant"`
}

type OutputConfig struct {
	Format string `toml:"format"`
	Color  string `toml:"color"`
}

type CheckConfig struct {
	Jobs int `toml:"jobs"`
}

// Default returns the settings used when no glint.toml exists.
func Default() *Config {
	return &Config{
		Output: OutputConfig{Format: "pretty", Color: "auto"},
	}
}

// Root is the directory holding the config file.
func (c *Config) Root() string {
	if c.Path == "" {
		return ""
	}
	return filepath.Dir(c.Path)
}

// FindConfig walks up from startDir looking for glint.toml.
func FindConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest glint.toml above startDir, or Default() when
// there is none.
func Discover(startDir string) (*Config, error) {
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load decodes and validates the file at path. Missing keys keep their
// Default() values.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.Path = path

	// [compiler] принимает любые ключи, остальные секции фиксированы
	for _, key := range meta.Undecoded() {
		if len(key) > 0 && key[0] == "compiler" {
			continue
		}
		return nil, fmt.Errorf("%s: unknown key %s", path, key)
	}
	if meta.IsDefined("pipeline", "default_variant") && strings.TrimSpace(cfg.Pipeline.DefaultVariant) == "" {
		return nil, fmt.Errorf("%s: [pipeline].default_variant must not be empty", path)
	}
	if meta.IsDefined("output", "format") && !slices.Contains(Formats, cfg.Output.Format) {
		return nil, fmt.Errorf("%s: [output].format %q must be one of %s", path, cfg.Output.Format, strings.Join(Formats, "|"))
	}
	if meta.IsDefined("output", "color") && !slices.Contains(ColorModes, cfg.Output.Color) {
		return nil, fmt.Errorf("%s: [output].color %q must be one of %s", path, cfg.Output.Color, strings.Join(ColorModes, "|"))
	}
	if cfg.Check.Jobs < 0 {
		return nil, fmt.Errorf("%s: [check].jobs must not be negative", path)
	}
	return cfg, nil
}
