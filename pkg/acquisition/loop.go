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

// Package acquisition polls a confirmed device at a fixed cadence and
// hands each reading to the recorder and the console renderer.
package acquisition

import (
	"context"
	"errors"
	"time"

	"github.com/wicantools/wicanlog/pkg/logger"
	"github.com/wicantools/wicanlog/pkg/models"
)

// retryNoticeEvery is how many consecutive failures pass between
// "still trying" notices.
const retryNoticeEvery = 10

var (
	errNoAddress = errors.New("acquisition requires a device address")
	errNoFetcher = errors.New("acquisition requires a fetcher")
)

// Fetcher retrieves one reading from the device. Satisfied by
// probe.HTTPProber.
type Fetcher interface {
	Fetch(ctx context.Context, address string) (*models.Reading, error)
}

// Recorder persists readings. Satisfied by recorder.Log.
type Recorder interface {
	Record(reading *models.Reading) error
}

// Renderer displays a captured reading. Satisfied by display.Renderer.
type Renderer interface {
	Render(reading *models.Reading, row int)
}

// Loop owns the confirmed endpoint for the life of the session. It is
// single-threaded: readings flow to the recorder and renderer on the
// loop goroutine only.
type Loop struct {
	address  string
	interval time.Duration
	fetcher  Fetcher
	recorder Recorder
	renderer Renderer
	clock    Clock
	logger   logger.Logger

	rows     int
	failures int
}

// Options configures a Loop. Renderer and Clock are optional.
type Options struct {
	Address  string
	Interval time.Duration
	Fetcher  Fetcher
	Recorder Recorder
	Renderer Renderer
	Clock    Clock
	Logger   logger.Logger
}

func NewLoop(opts Options) (*Loop, error) {
	if opts.Address == "" {
		return nil, errNoAddress
	}

	if opts.Fetcher == nil {
		return nil, errNoFetcher
	}

	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}

	if opts.Clock == nil {
		opts.Clock = realClock{}
	}

	if opts.Logger == nil {
		opts.Logger = logger.NewTestLogger()
	}

	return &Loop{
		address:  opts.Address,
		interval: opts.Interval,
		fetcher:  opts.Fetcher,
		recorder: opts.Recorder,
		renderer: opts.Renderer,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}, nil
}

// Run polls until ctx is cancelled. Ticks are paced to the target
// interval regardless of request latency; time lost to slow ticks is
// not made up. Failures never stop the loop: the device is expected to
// drop off and come back.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info().
		Str("address", l.address).
		Dur("interval", l.interval).
		Msg("Starting acquisition")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := l.clock.Now()

		l.tick(ctx)

		sleep := l.interval - l.clock.Now().Sub(start)
		if sleep < 0 {
			sleep = 0
		}

		l.clock.Sleep(ctx, sleep)
	}
}

func (l *Loop) tick(ctx context.Context) {
	reading, err := l.fetcher.Fetch(ctx, l.address)
	if err != nil {
		l.failures++

		switch {
		case l.failures == 1:
			l.logger.Warn().Msg("Connection lost, reconnecting")
		case l.failures%retryNoticeEvery == 0:
			l.logger.Warn().Int("attempts", l.failures).Msg("Still trying")
		}

		return
	}

	l.failures = 0
	reading.Timestamp = l.clock.Now()

	if l.recorder != nil {
		if err := l.recorder.Record(reading); err != nil {
			l.logger.Error().Err(err).Msg("Failed to record reading")
			return
		}
	}

	l.rows++

	if l.renderer != nil {
		l.renderer.Render(reading, l.rows)
	}
}

// Rows returns the number of readings recorded so far.
func (l *Loop) Rows() int {
	return l.rows
}
