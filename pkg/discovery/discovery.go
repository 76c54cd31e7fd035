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

// Package discovery locates a WiCAN device on the local network by
// escalating through hostname resolution, a well-known address list,
// and a parallel subnet sweep.
package discovery

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/wicantools/wicanlog/pkg/logger"
	"github.com/wicantools/wicanlog/pkg/probe"
)

// ErrDeviceNotFound is returned when all discovery phases exhaust
// without confirming a device.
var ErrDeviceNotFound = errors.New("no device found on the network")

// Default candidate sets, matching the device's factory behavior.
var (
	// DefaultHostnames are the mDNS/DNS names the device registers.
	DefaultHostnames = []string{"wican.local", "wican"}

	// DefaultKnownAddresses are probed before any sweep: the device's
	// AP-mode address, the ESP32 AP default, and common router-assigned
	// addresses. Order is the tie-break when several confirm.
	DefaultKnownAddresses = []string{
		"192.168.8.102",
		"192.168.4.1",
		"192.168.1.100",
		"192.168.1.102",
		"192.168.0.100",
		"192.168.0.102",
	}

	// DefaultFallbackSubnets are swept when the local subnet cannot be
	// derived from the active outbound route.
	DefaultFallbackSubnets = []string{"192.168.1", "192.168.0", "192.168.8", "10.0.0"}
)

const (
	hostnameProbeTimeout = 1 * time.Second
	knownProbeTimeout    = 1 * time.Second
	sweepProbeTimeout    = 500 * time.Millisecond

	knownConcurrency = 10
	sweepConcurrency = 50
)

// Engine runs the discovery phases in order, stopping at the first
// confirmed address.
type Engine struct {
	prober    probe.Prober
	hostnames []string
	subnets   []string
	logger    logger.Logger

	// lookupHost and localAddr are swappable for tests.
	lookupHost func(ctx context.Context, host string) ([]string, error)
	localAddr  func() (net.IP, error)
}

func NewEngine(prober probe.Prober, hostnames, subnets []string, log logger.Logger) *Engine {
	if len(hostnames) == 0 {
		hostnames = DefaultHostnames
	}

	return &Engine{
		prober:     prober,
		hostnames:  hostnames,
		subnets:    subnets,
		logger:     log,
		lookupHost: net.DefaultResolver.LookupHost,
		localAddr:  outboundLocalAddr,
	}
}

// Discover returns the first confirmed device address, or
// ErrDeviceNotFound once every phase exhausts.
func (e *Engine) Discover(ctx context.Context) (string, error) {
	if addr := e.tryHostnames(ctx); addr != "" {
		return addr, nil
	}

	if addr := e.tryKnownAddresses(ctx); addr != "" {
		return addr, nil
	}

	if addr := e.sweepSubnets(ctx); addr != "" {
		return addr, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	return "", ErrDeviceNotFound
}

// tryHostnames resolves and probes each candidate name sequentially.
// Resolution failures are silent not-confirmed.
func (e *Engine) tryHostnames(ctx context.Context) string {
	for _, hostname := range e.hostnames {
		if ctx.Err() != nil {
			return ""
		}

		addrs, err := e.lookupHost(ctx, hostname)
		if err != nil || len(addrs) == 0 {
			e.logger.Debug().Str("hostname", hostname).Msg("Hostname did not resolve")
			continue
		}

		if e.prober.Check(ctx, addrs[0], hostnameProbeTimeout) {
			e.logger.Info().Str("hostname", hostname).Str("address", addrs[0]).Msg("Device found by hostname")
			return addrs[0]
		}

		e.logger.Debug().Str("hostname", hostname).Str("address", addrs[0]).Msg("No device at resolved address")
	}

	return ""
}

// tryKnownAddresses probes the fixed candidate list concurrently. The
// whole batch is collected before picking a winner so that the
// earliest confirmed entry in the list wins deterministically.
func (e *Engine) tryKnownAddresses(ctx context.Context) string {
	if ctx.Err() != nil {
		return ""
	}

	e.logger.Info().Int("candidates", len(DefaultKnownAddresses)).Msg("Probing well-known addresses")

	confirmed := e.probeBatch(ctx, DefaultKnownAddresses, knownProbeTimeout, knownConcurrency)

	for i, ok := range confirmed {
		if ok {
			e.logger.Info().Str("address", DefaultKnownAddresses[i]).Msg("Device found at well-known address")
			return DefaultKnownAddresses[i]
		}
	}

	return ""
}

// sweepSubnets probes every host of each candidate subnet, stopping at
// the first subnet that yields a confirmed address. The winner within
// a subnet is the lowest final octet.
func (e *Engine) sweepSubnets(ctx context.Context) string {
	for _, subnet := range e.candidateSubnets() {
		if ctx.Err() != nil {
			return ""
		}

		e.logger.Info().Str("subnet", subnet).Msg("Sweeping subnet")

		hosts := expandSubnet(subnet)

		confirmed := e.probeBatch(ctx, hosts, sweepProbeTimeout, sweepConcurrency)
		for i, ok := range confirmed {
			if ok {
				e.logger.Info().Str("address", hosts[i]).Msg("Device found by subnet sweep")
				return hosts[i]
			}
		}
	}

	return ""
}

// candidateSubnets returns the configured subnets, else the local /24
// derived from the outbound route, else the fallback list.
func (e *Engine) candidateSubnets() []string {
	if len(e.subnets) > 0 {
		return e.subnets
	}

	if ip, err := e.localAddr(); err == nil {
		if prefix := subnetPrefix(ip); prefix != "" {
			return []string{prefix}
		}
	}

	e.logger.Debug().Msg("Could not derive local subnet, using fallback list")

	return DefaultFallbackSubnets
}
