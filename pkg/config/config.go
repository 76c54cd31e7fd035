/*
 * Copyright 2026 WiCAN Tools Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the application configuration from an optional
// JSON file plus WICAN_* environment overrides.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/wicantools/wicanlog/pkg/logger"
)

var errLoadConfigFailed = errors.New("failed to load configuration")

// ConfigLoader loads configuration data into dst from a source path.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by config structs that can normalize and
// validate themselves after loading.
type Validator interface {
	Validate() error
}

// Config holds the configuration loading dependencies.
type Config struct {
	loader ConfigLoader
	env    *EnvOverrides
	logger logger.Logger
}

// NewConfig initializes a Config with a file loader and env overrides.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Config{
		loader: &FileConfigLoader{},
		env:    NewEnvOverrides(envPrefix),
		logger: log,
	}
}

// LoadAndValidate populates cfg from the file at path (skipped when
// path is empty), applies environment overrides, then validates.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	if path != "" {
		if err := c.loader.Load(ctx, path, cfg); err != nil {
			return fmt.Errorf("%w: %w", errLoadConfigFailed, err)
		}

		c.logger.Debug().Str("path", path).Msg("Loaded configuration file")
	}

	if err := c.env.Apply(cfg); err != nil {
		return fmt.Errorf("%w: %w", errLoadConfigFailed, err)
	}

	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", errLoadConfigFailed, err)
		}
	}

	return nil
}
