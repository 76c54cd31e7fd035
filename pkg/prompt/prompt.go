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

// Package prompt implements the interactive manual-address fallback
// used when automated discovery fails.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wicantools/wicanlog/pkg/probe"
)

// ErrAborted is returned when the user quits the prompt.
var ErrAborted = errors.New("manual entry aborted")

// manualProbeTimeout is longer than discovery's: the user told us the
// address, so give the device time to answer.
const manualProbeTimeout = 3 * time.Second

var quitWords = map[string]struct{}{
	"q": {}, "quit": {}, "exit": {}, "": {},
}

// ManualAddress reads a device address from in, validates its format,
// and probes it before accepting. It loops until a reachable address
// is entered or the user quits.
func ManualAddress(ctx context.Context, in io.Reader, out io.Writer, prober probe.Prober) (string, error) {
	scanner := bufio.NewScanner(in)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		fmt.Fprint(out, "\nEnter WiCAN IP address (or 'q' to quit): ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}

			return "", ErrAborted
		}

		input := strings.TrimSpace(scanner.Text())

		if _, quit := quitWords[strings.ToLower(input)]; quit {
			return "", ErrAborted
		}

		if !ValidIPv4(input) {
			fmt.Fprintf(out, "  Invalid IP format: %s\n", input)
			continue
		}

		fmt.Fprintf(out, "  Checking %s... ", input)

		if prober.Check(ctx, input, manualProbeTimeout) {
			fmt.Fprintln(out, "Connected!")
			return input, nil
		}

		fmt.Fprintln(out, "no response.")
		fmt.Fprintln(out, "  Device not found at that address. Try again or press 'q' to quit.")
	}
}

// ValidIPv4 reports whether s is four dot-separated decimal octets,
// each in [0,255].
func ValidIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}

	for _, p := range parts {
		if p == "" || len(p) > 3 {
			return false
		}

		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}

	return true
}
