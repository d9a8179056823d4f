// Package config reads the optional project file that supplies defaults for
// the command-line driver.
package config

import (
	"bytes"
	"io"
	"io/fs"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Name is the project file looked up in the working directory.
const Name = "tlang.yaml"

const (
	Interpret = "interpret"
	Check     = "check"
)

type Config struct {
	// Entry is the source file run when none is named on the command line.
	Entry string `yaml:"entry"`
	// Lib checks every function instead of only those reachable from main.
	Lib     bool   `yaml:"lib"`
	Backend string `yaml:"backend"`
	Trace   bool   `yaml:"trace"`
	// History is the REPL history file. Empty disables history.
	History string `yaml:"history"`
}

func Default() *Config {
	return &Config{Backend: Interpret, History: ".tlang_history"}
}

// Decode reads a Config from r over the defaults. Unknown fields are errors.
func Decode(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports a backend other than Interpret or Check.
func (c *Config) Validate() error {
	switch c.Backend {
	case Interpret, Check:
		return nil
	}
	return errors.Errorf("unknown backend %q: want %q or %q", c.Backend, Interpret, Check)
}

// Load reads name from fsys.
func Load(fsys fs.FS, name string) (*Config, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.Wrapf(err, "read config")
	}
	c, err := Decode(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return c, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(fsys fs.FS, name string) (*Config, error) {
	c, err := Load(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}
