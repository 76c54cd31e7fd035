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

//go:generate mockgen -destination=mock_probe.go -package=probe github.com/wicantools/wicanlog/pkg/probe Prober

// Package probe checks addresses for a live WiCAN device and fetches
// telemetry readings from a confirmed one.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wicantools/wicanlog/pkg/logger"
	"github.com/wicantools/wicanlog/pkg/models"
)

// telemetryPath is the device's only endpoint.
const telemetryPath = "/autopid_data"

const (
	defaultFetchTimeout = 5 * time.Second
	maxBodyBytes        = 1 << 20
)

var (
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	ErrMalformedBody    = errors.New("response body is not a telemetry object")
)

// Prober confirms device presence at an address and fetches readings
// from it.
type Prober interface {
	// Check reports whether address hosts the device, returning within
	// timeout. It never returns an error: any transport, timeout, or
	// parse failure is simply not-confirmed.
	Check(ctx context.Context, address string, timeout time.Duration) bool

	// Fetch retrieves one reading from address. The returned Reading is
	// not yet timestamped; the caller stamps it at capture time.
	Fetch(ctx context.Context, address string) (*models.Reading, error)
}

// HTTPProber probes devices over plain HTTP.
type HTTPProber struct {
	port         int
	fetchTimeout time.Duration
	client       *http.Client
	logger       logger.Logger
}

var _ Prober = (*HTTPProber)(nil)

func NewHTTPProber(port int, fetchTimeout time.Duration, log logger.Logger) *HTTPProber {
	if port == 0 {
		port = 80
	}

	if fetchTimeout == 0 {
		fetchTimeout = defaultFetchTimeout
	}

	return &HTTPProber{
		port:         port,
		fetchTimeout: fetchTimeout,
		client: &http.Client{
			Transport: &http.Transport{
				// Discovery probes hundreds of dead addresses; never
				// pool their connections.
				DisableKeepAlives: true,
				Proxy:             nil,
			},
		},
		logger: log,
	}
}

func (p *HTTPProber) Check(ctx context.Context, address string, timeout time.Duration) bool {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := p.get(probeCtx, address)
	if err != nil {
		return false
	}

	if !gjson.ValidBytes(body) {
		return false
	}

	v := gjson.ParseBytes(body)

	return v.IsObject() || v.IsArray()
}

func (p *HTTPProber) Fetch(ctx context.Context, address string) (*models.Reading, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	body, err := p.get(fetchCtx, address)
	if err != nil {
		return nil, err
	}

	return parseReading(body)
}

func (p *HTTPProber) get(ctx context.Context, address string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url(address), http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			p.logger.Debug().Err(cerr).Msg("failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

func (p *HTTPProber) url(address string) string {
	host := address
	if p.port != 80 {
		host = net.JoinHostPort(address, strconv.Itoa(p.port))
	}

	return "http://" + host + telemetryPath
}

// parseReading decodes a flat JSON object into an ordered field list.
// Scalars keep their JSON type; nested values are ignored.
func parseReading(body []byte) (*models.Reading, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedBody
	}

	v := gjson.ParseBytes(body)
	if !v.IsObject() {
		return nil, ErrMalformedBody
	}

	reading := &models.Reading{}

	v.ForEach(func(key, value gjson.Result) bool {
		field := models.Field{Name: key.String()}

		switch value.Type {
		case gjson.Number:
			field.Value = value.Float()
		case gjson.String:
			field.Value = value.String()
		case gjson.True, gjson.False:
			field.Value = value.Bool()
		case gjson.Null:
			field.Value = nil
		default:
			return true
		}

		reading.Fields = append(reading.Fields, field)

		return true
	})

	return reading, nil
}
