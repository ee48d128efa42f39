// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fakeNominatim(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "서울특별시청":
			_, _ = w.Write([]byte(`[{"lat":"37.5663","lon":"126.9779","display_name":"서울특별시청"}]`))
		case "broken":
			_, _ = w.Write([]byte(`[{"lat":"123.0","lon":"10.0"}]`))
		case "slow":
			time.Sleep(300 * time.Millisecond)
			_, _ = w.Write([]byte(`[]`))
		case "error":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:       url,
		Timeout:       100 * time.Millisecond,
		RatePerSecond: 1000,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestGeocode(t *testing.T) {
	var calls int32
	c := newTestClient(t, fakeNominatim(t, &calls).URL)
	ctx := context.Background()

	t.Run("known address", func(t *testing.T) {
		p, err := c.Geocode(ctx, "서울특별시청")
		require.NoError(t, err)
		assert.InDelta(t, 37.5663, p.Lat, 1e-9)
		assert.InDelta(t, 126.9779, p.Lon, 1e-9)
		assert.True(t, p.Valid())
	})

	t.Run("cached", func(t *testing.T) {
		before := atomic.LoadInt32(&calls)
		_, err := c.Geocode(ctx, " 서울특별시청 ")
		require.NoError(t, err)
		assert.Equal(t, before, atomic.LoadInt32(&calls))
	})

	for _, q := range []string{"", "   ", "zzqx garbage", "broken", "error", "slow"} {
		t.Run("not found "+q, func(t *testing.T) {
			_, err := c.Geocode(ctx, q)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestGeocodeNotCachedOnFailure(t *testing.T) {
	var calls int32
	c := newTestClient(t, fakeNominatim(t, &calls).URL)

	for i := 0; i < 2; i++ {
		_, err := c.Geocode(context.Background(), "nowhere")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGeocodeCancelled(t *testing.T) {
	var calls int32
	c := newTestClient(t, fakeNominatim(t, &calls).URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Geocode(ctx, "서울특별시청")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c.cfg)
}
