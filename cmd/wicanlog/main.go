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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/wicantools/wicanlog/pkg/acquisition"
	"github.com/wicantools/wicanlog/pkg/config"
	"github.com/wicantools/wicanlog/pkg/discovery"
	"github.com/wicantools/wicanlog/pkg/display"
	"github.com/wicantools/wicanlog/pkg/logger"
	"github.com/wicantools/wicanlog/pkg/models"
	"github.com/wicantools/wicanlog/pkg/probe"
	"github.com/wicantools/wicanlog/pkg/prompt"
	"github.com/wicantools/wicanlog/pkg/recorder"
)

var errFailedToLoadConfig = fmt.Errorf("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to optional JSON config file")
	addr := flag.String("addr", "", "Device address (skips discovery)")
	port := flag.Int("port", 0, "Device HTTP port")
	interval := flag.Duration("interval", 0, "Polling interval")
	displayMode := flag.String("display", "", "Display mode: all, compact, or key")
	hostnames := flag.String("hostnames", "", "Comma-separated hostnames to try first")
	subnets := flag.String("subnets", "", "Comma-separated subnets to scan, e.g. 192.168.1,192.168.8")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg models.Config

	cfgLoader := config.NewConfig(nil)
	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	applyFlags(&cfg, *addr, *port, *interval, *displayMode, *hostnames, *subnets)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	if *debug {
		logConfig.Debug = true
	}

	mainLogger, err := logger.New(logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	prober := probe.NewHTTPProber(cfg.Port, 0, mainLogger)

	address, err := resolveAddress(ctx, &cfg, prober, mainLogger)
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) || errors.Is(err, context.Canceled) {
			fmt.Println("Exiting.")
			return nil
		}

		return err
	}

	return capture(ctx, &cfg, address, prober, mainLogger)
}

// resolveAddress returns the configured address, or runs discovery and
// the interactive fallback.
func resolveAddress(ctx context.Context, cfg *models.Config, prober probe.Prober, log logger.Logger) (string, error) {
	if cfg.Address != "" {
		log.Info().Str("address", cfg.Address).Msg("Using configured address")
		return cfg.Address, nil
	}

	engine := discovery.NewEngine(prober, cfg.Hostnames, cfg.Subnets, log)

	address, err := engine.Discover(ctx)
	if err == nil {
		return address, nil
	}

	if !errors.Is(err, discovery.ErrDeviceNotFound) {
		return "", err
	}

	fmt.Println("\nWARNING: Could not find WiCAN on network!")
	fmt.Println("\nTroubleshooting:")
	fmt.Println("  1. Make sure WiCAN is powered on")
	fmt.Println("  2. Check that you're on the same network")

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return "", discovery.ErrDeviceNotFound
	}

	fmt.Println("  3. Enter the IP address manually below")

	return prompt.ManualAddress(ctx, os.Stdin, os.Stdout, prober)
}

// capture runs the acquisition loop until interrupted, then prints the
// session summary.
func capture(ctx context.Context, cfg *models.Config, address string, prober probe.Prober, log logger.Logger) error {
	outPath := recorder.FileTimestamp(time.Now())
	rec := recorder.New(outPath, log)

	display.Banner(os.Stdout, address, outPath, time.Duration(cfg.Interval), cfg.Display)

	loop, err := acquisition.NewLoop(acquisition.Options{
		Address:  address,
		Interval: time.Duration(cfg.Interval),
		Fetcher:  prober,
		Recorder: rec,
		Renderer: display.New(cfg.Display, os.Stdout),
		Logger:   log,
	})
	if err != nil {
		return err
	}

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Acquisition stopped unexpectedly")
	}

	if err := rec.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close log artifact")
	}

	display.Summary(os.Stdout, rec.RowCount(), rec.Fields(), outPath)

	return nil
}

func applyFlags(cfg *models.Config, addr string, port int, interval time.Duration, displayMode, hostnames, subnets string) {
	if addr != "" {
		cfg.Address = addr
	}

	if port != 0 {
		cfg.Port = port
	}

	if interval != 0 {
		cfg.Interval = models.Duration(interval)
	}

	if displayMode != "" {
		cfg.Display = models.DisplayMode(displayMode)
	}

	if hostnames != "" {
		cfg.Hostnames = splitList(hostnames)
	}

	if subnets != "" {
		cfg.Subnets = splitList(subnets)
	}
}

func splitList(s string) []string {
	var out []string

	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
