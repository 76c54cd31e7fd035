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

package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wicantools/wicanlog/pkg/logger"
)

// testProber returns a prober pointed at the test server's port and
// the server's host address.
func testProber(t *testing.T, srv *httptest.Server) (*HTTPProber, string) {
	t.Helper()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return NewHTTPProber(port, 0, logger.NewTestLogger()), u.Hostname()
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		confirmed bool
	}{
		{
			name:      "json object confirms",
			status:    http.StatusOK,
			body:      `{"SOC_pct": 87.5}`,
			confirmed: true,
		},
		{
			name:      "json array confirms",
			status:    http.StatusOK,
			body:      `[1, 2, 3]`,
			confirmed: true,
		},
		{
			name:      "bare scalar does not confirm",
			status:    http.StatusOK,
			body:      `42`,
			confirmed: false,
		},
		{
			name:      "html error page does not confirm",
			status:    http.StatusOK,
			body:      `<html>router admin</html>`,
			confirmed: false,
		},
		{
			name:      "non-200 does not confirm",
			status:    http.StatusNotFound,
			body:      `{"SOC_pct": 87.5}`,
			confirmed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, telemetryPath, r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, host := testProber(t, srv)

			assert.Equal(t, tt.confirmed, p.Check(context.Background(), host, time.Second))
		})
	}
}

func TestCheckUnreachableAddress(t *testing.T) {
	p := NewHTTPProber(1, 0, logger.NewTestLogger())

	start := time.Now()
	confirmed := p.Check(context.Background(), "127.0.0.1", 500*time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, confirmed)
	assert.Less(t, elapsed, 2*time.Second, "probe must return within the timeout bound")
}

func TestCheckTimeoutBound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p, host := testProber(t, srv)

	start := time.Now()
	confirmed := p.Check(context.Background(), host, 200*time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, confirmed)
	assert.Less(t, elapsed, time.Second, "probe must not hang past its timeout")
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"SOC_pct": 87.5, "Gear": "D", "Charging": false, "Range_km": null}`))
	}))
	defer srv.Close()

	p, host := testProber(t, srv)

	reading, err := p.Fetch(context.Background(), host)
	require.NoError(t, err)

	require.Equal(t, []string{"SOC_pct", "Gear", "Charging", "Range_km"}, reading.Names())

	soc, ok := reading.Value("SOC_pct")
	require.True(t, ok)
	assert.InDelta(t, 87.5, soc, 0.001)

	gear, ok := reading.Value("Gear")
	require.True(t, ok)
	assert.Equal(t, "D", gear)

	charging, ok := reading.Value("Charging")
	require.True(t, ok)
	assert.Equal(t, false, charging)

	rng, ok := reading.Value("Range_km")
	require.True(t, ok)
	assert.Nil(t, rng)
}

func TestFetchSkipsNestedValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"SOC_pct": 50, "nested": {"a": 1}, "list": [1]}`))
	}))
	defer srv.Close()

	p, host := testProber(t, srv)

	reading, err := p.Fetch(context.Background(), host)
	require.NoError(t, err)

	assert.Equal(t, []string{"SOC_pct"}, reading.Names())
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `not json at all`,
			wantErr: ErrMalformedBody,
		},
		{
			name:    "array body is not a reading",
			status:  http.StatusOK,
			body:    `[1, 2]`,
			wantErr: ErrMalformedBody,
		},
		{
			name:    "server error status",
			status:  http.StatusInternalServerError,
			body:    `{}`,
			wantErr: ErrUnexpectedStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, host := testProber(t, srv)

			_, err := p.Fetch(context.Background(), host)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestURLOmitsDefaultPort(t *testing.T) {
	p := NewHTTPProber(80, 0, logger.NewTestLogger())
	assert.Equal(t, "http://192.168.8.102/autopid_data", p.url("192.168.8.102"))

	p = NewHTTPProber(8080, 0, logger.NewTestLogger())
	assert.Equal(t, "http://192.168.8.102:8080/autopid_data", p.url("192.168.8.102"))
}
