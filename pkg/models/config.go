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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wicantools/wicanlog/pkg/logger"
)

// DisplayMode selects the console rendering of readings.
type DisplayMode string

const (
	// DisplayAll renders the full grouped readout.
	DisplayAll DisplayMode = "all"
	// DisplayCompact renders one summary line per reading.
	DisplayCompact DisplayMode = "compact"
	// DisplayKey renders only the headline state-of-charge metric.
	DisplayKey DisplayMode = "key"
)

const (
	defaultPort     = 80
	defaultInterval = time.Second
)

var (
	ErrInvalidPort        = errors.New("port must be between 1 and 65535")
	ErrInvalidDisplayMode = errors.New("display mode must be one of all, compact, key")
	ErrInvalidInterval    = errors.New("interval must be positive")
	ErrInvalidSubnet      = errors.New("subnet must be the first three octets of an IPv4 network")
)

// Config is the full configuration surface of the logger. Every field
// is optional; Validate fills defaults for anything unset.
type Config struct {
	// Address skips discovery when set.
	Address   string         `json:"address"`
	Hostnames []string       `json:"hostnames"`
	Subnets   []string       `json:"subnets"`
	Port      int            `json:"port"`
	Interval  Duration       `json:"interval"`
	Display   DisplayMode    `json:"display"`
	Logging   *logger.Config `json:"logging,omitempty"`
}

// Validate implements config.Validator. It normalizes and defaults the
// configuration in place.
func (c *Config) Validate() error {
	if c.Port == 0 {
		c.Port = defaultPort
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, c.Port)
	}

	if c.Interval == 0 {
		c.Interval = Duration(defaultInterval)
	}

	if c.Interval < 0 {
		return ErrInvalidInterval
	}

	if c.Display == "" {
		c.Display = DisplayAll
	}

	switch c.Display {
	case DisplayAll, DisplayCompact, DisplayKey:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidDisplayMode, c.Display)
	}

	for i, s := range c.Subnets {
		normalized, err := NormalizeSubnet(s)
		if err != nil {
			return err
		}

		c.Subnets[i] = normalized
	}

	return nil
}

// NormalizeSubnet accepts a three-octet prefix ("192.168.1"), a /24
// CIDR, or a dotted-quad network address and returns the prefix form.
func NormalizeSubnet(s string) (string, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "/24")

	parts := strings.Split(s, ".")
	if len(parts) == 4 && parts[3] == "0" {
		parts = parts[:3]
	}

	if len(parts) != 3 {
		return "", fmt.Errorf("%w: got %q", ErrInvalidSubnet, s)
	}

	for _, p := range parts {
		if !isOctet(p) {
			return "", fmt.Errorf("%w: got %q", ErrInvalidSubnet, s)
		}
	}

	return strings.Join(parts, "."), nil
}

func isOctet(s string) bool {
	if s == "" || len(s) > 3 {
		return false
	}

	n := 0

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}

		n = n*10 + int(r-'0')
	}

	return n <= 255
}

// Duration wraps time.Duration to accept both a JSON number of
// nanoseconds and a string such as "1s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}

		*d = Duration(tmp)
	default:
		return fmt.Errorf("invalid duration: %v", v)
	}

	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
