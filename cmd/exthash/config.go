// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/libhash/extendible"
	"github.com/libhash/extendible/book"
	"gopkg.in/yaml.v2"
)

// Config holds the settings for building an index. It can be read from a
// YAML file; command line flags take precedence over file values.
type Config struct {
	Capacity int    `yaml:"capacity"`
	Salt     string `yaml:"salt"`
	MaxDepth uint   `yaml:"max_depth"`
	LogLevel string `yaml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Capacity: 3,
		Salt:     book.DefaultSalt,
		MaxDepth: extendible.KeyBits,
		LogLevel: "INFO",
	}
}

// loadConfig reads path on top of base. Keys absent from the file keep the
// value from base.
func loadConfig(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	cfg := base
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.MaxDepth < 1 || c.MaxDepth > extendible.KeyBits {
		return fmt.Errorf("max depth must be in [1, %d], got %d", extendible.KeyBits, c.MaxDepth)
	}
	return nil
}

// IndexOptions are the flags shared by every command.
type IndexOptions struct {
	Config   string `short:"c" long:"config" description:"YAML file with capacity, salt, max_depth and log_level"`
	Capacity int    `short:"b" long:"capacity" description:"number of records per bucket"`
	Salt     string `short:"s" long:"salt" description:"salt appended to the metadata hash"`
	MaxDepth uint   `short:"m" long:"max-depth" description:"maximum number of key bits used by the directory"`
	LogLevel string `short:"l" long:"loglevel" description:"set the logging level [DEBUG, INFO, NOTICE, WARNING, ERROR, CRITICAL]"`
}

// resolve layers the config file and then the flags over base.
func (o IndexOptions) resolve(base Config) (Config, error) {
	cfg := base
	if o.Config != "" {
		var err error
		if cfg, err = loadConfig(o.Config, base); err != nil {
			return cfg, err
		}
	}
	if o.Capacity != 0 {
		cfg.Capacity = o.Capacity
	}
	if o.Salt != "" {
		cfg.Salt = o.Salt
	}
	if o.MaxDepth != 0 {
		cfg.MaxDepth = o.MaxDepth
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	return cfg, cfg.validate()
}
