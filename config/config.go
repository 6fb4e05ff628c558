// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package config loads per-project hook configuration.
//
// Configuration is read from the first of these found in the project folder
// or any of its parents:
//
//   - .djhooks.yaml
//   - pyproject.toml, table [tool.djhooks]
//
// A pyproject.toml without the table is skipped. Command-line flags take
// precedence over the file; see [Config.Merge].
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the YAML configuration file.
const FileName = ".djhooks.yaml"

// Config holds hook settings. Zero fields mean "use the default".
type Config struct {
	// SettingsModule bypasses discovery of DJANGO_SETTINGS_MODULE.
	SettingsModule string `yaml:"settings_module" toml:"settings-module"`
	// Loader selects how settings are read: "static" or "python".
	Loader string `yaml:"loader" toml:"loader"`
	// Python is the interpreter used by the python loader.
	Python string `yaml:"python" toml:"python"`
	// PythonPath lists extra import roots, relative to the project folder.
	PythonPath []string `yaml:"python_path" toml:"python-path"`
	// Exclude lists extra directory name globs to skip when searching.
	Exclude []string `yaml:"exclude" toml:"exclude"`
	// AddLocation is the default mode of po-location-format.
	AddLocation string `yaml:"add_location" toml:"add-location"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-" toml:"-"`
}

// Defaults used when neither flags nor files set a value.
const (
	DefaultLoader      = "static"
	DefaultPython      = "python3"
	DefaultAddLocation = "file"
)

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Loader:      DefaultLoader,
		Python:      DefaultPython,
		AddLocation: DefaultAddLocation,
	}
}

type pyproject struct {
	Tool struct {
		Djhooks *Config `toml:"djhooks"`
	} `toml:"tool"`
}

// Load finds and reads configuration, starting at dir and walking up to the
// filesystem root. Missing files are not an error: defaults are returned.
// Unset fields of a found file are filled with defaults.
func Load(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for d := abs; ; {
		cfg, err := loadDir(d)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			return cfg.Merge(Default()), nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return Default(), nil
		}
		d = parent
	}
}

func loadDir(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		cfg := new(Config)
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		cfg.Path = path
		return cfg, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	path = filepath.Join(dir, "pyproject.toml")
	var pp pyproject
	if _, err := toml.DecodeFile(path, &pp); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if pp.Tool.Djhooks == nil {
		return nil, nil
	}
	pp.Tool.Djhooks.Path = path
	return pp.Tool.Djhooks, nil
}

// Merge returns a copy of c with empty fields taken from fallback.
func (c *Config) Merge(fallback *Config) *Config {
	out := *c
	if out.SettingsModule == "" {
		out.SettingsModule = fallback.SettingsModule
	}
	if out.Loader == "" {
		out.Loader = fallback.Loader
	}
	if out.Python == "" {
		out.Python = fallback.Python
	}
	if out.PythonPath == nil {
		out.PythonPath = fallback.PythonPath
	}
	if out.Exclude == nil {
		out.Exclude = fallback.Exclude
	}
	if out.AddLocation == "" {
		out.AddLocation = fallback.AddLocation
	}
	if out.Path == "" {
		out.Path = fallback.Path
	}
	return &out
}
