// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDir  = "wck"
	configFile = "config.yml"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config defines all configuration options available to be set through the config file.
type Config struct {
	// Listen is the address `wck serve` listens on.
	Listen string `yaml:"listen"`

	// Color is one of auto, always, never.
	Color string `yaml:"color"`

	// Scenarios run by `wck demo` when none are named on the command line.
	// Empty means all.
	Scenarios []string `yaml:"scenarios"`

	// Verbose enables the debugger logger.
	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Listen: "localhost:6060",
		Color:  ColorAuto,
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, configDir, configFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", configDir, configFile), nil
}

// LoadConfig loads the file at the default location.
func LoadConfig() (*Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), fmt.Errorf("unable to locate config file: %w", err)
	}
	return LoadFile(path)
}

// LoadFile loads path on top of the defaults. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	conf := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return conf, nil
		}
		return conf, fmt.Errorf("unable to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return Default(), fmt.Errorf("unable to decode config file %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return conf, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Color {
	case "":
		c.Color = ColorAuto
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color must be one of %s, %s, %s, got %q", ColorAuto, ColorAlways, ColorNever, c.Color)
	}
	if c.Listen == "" {
		c.Listen = Default().Listen
	}
	return nil
}
