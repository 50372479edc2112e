// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/chain4travel/caminodao/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() config.HTTPConfig {
	return config.HTTPConfig{
		Host:            "127.0.0.1",
		AllowedOrigins:  []string{"*"},
		ShutdownTimeout: time.Second,
	}
}

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, body)
	})
}

func TestServerDispatch(t *testing.T) {
	require := require.New(t)

	s, err := New(logging.NoLog{}, testConfig())
	require.NoError(err)
	require.NoError(s.AddRoute(okHandler("dao"), "dao", ""))
	require.NoError(s.AddAliases("dao", "D"))

	done := make(chan error, 1)
	go func() {
		done <- s.Dispatch()
	}()

	for _, path := range []string{"/ext/dao", "/ext/D"} {
		resp, err := http.Get(fmt.Sprintf("http://%s%s", s.Addr(), path))
		require.NoError(err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(err)
		require.NoError(resp.Body.Close())
		require.Equal(http.StatusOK, resp.StatusCode)
		require.Equal("dao", string(body))
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/ext/unknown", s.Addr()))
	require.NoError(err)
	require.NoError(resp.Body.Close())
	require.Equal(http.StatusNotFound, resp.StatusCode)

	http.DefaultClient.CloseIdleConnections()
	require.NoError(s.Shutdown())
	require.NoError(<-done)
}

func TestRouterDuplicateRoute(t *testing.T) {
	require := require.New(t)

	r := newRouter()
	require.NoError(r.AddRouter("/ext/dao", "", okHandler("first")))
	err := r.AddRouter("/ext/dao", "", okHandler("second"))
	require.ErrorIs(err, errDuplicateRoute)

	require.NoError(r.AddRouter("/ext/dao", "/sub", okHandler("sub")))
	require.NoError(r.AddAlias("/ext/dao", "/ext/D"))

	tests := map[string]string{
		"/ext/dao":     "first",
		"/ext/dao/sub": "sub",
		"/ext/D":       "first",
		"/ext/D/sub":   "sub",
	}
	for path, expectedBody := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(expectedBody, w.Body.String(), path)
	}
}

func TestRateLimit(t *testing.T) {
	require := require.New(t)

	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	handler := wrapHandler(logging.NoLog{}, okHandler("ok"), cfg)

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = w.Code
	}
	require.Equal([]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://camino.network"}
	handler := wrapHandler(logging.NoLog{}, okHandler("ok"), cfg)

	tests := map[string]struct {
		origin         string
		expectedHeader string
	}{
		"OK: allowed origin": {
			origin:         "https://camino.network",
			expectedHeader: "https://camino.network",
		},
		"OK: other origin": {
			origin: "https://example.com",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			require.Equal(t, tt.expectedHeader, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestGzip(t *testing.T) {
	require := require.New(t)

	body := make([]byte, 4096)
	handler := wrapHandler(logging.NoLog{}, okHandler(string(body)), testConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal("gzip", w.Header().Get("Content-Encoding"))
}
