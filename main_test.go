package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminclauss/speeddaemon/speeddaemon"
)

func TestAdminRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	speeddaemon.NewMetrics(reg)
	srv := httptest.NewServer(newAdminRouter(reg))
	defer srv.Close()

	tests := map[string]string{
		"/":        "Speed Daemon",
		"/healthz": "ok",
		"/metrics": "speeddaemon_observations_total",
	}
	for path, expected := range tests {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), expected)
		})
	}
}

func TestRun(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- run(ctx, l, DefaultConfig(), logger) }()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// A Plate before identifying is an error.
	data, err := (&speeddaemon.PlateMessage{Plate: "UN1X"}).MarshalBinary()
	require.NoError(t, err)
	_, err = conn.Write(data)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	m, err := speeddaemon.NewDecoder(conn).Decode()
	require.NoError(t, err)
	assert.IsType(t, &speeddaemon.ErrorMessage{}, m)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return")
	}
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--log-level", "loud"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.Error(t, cmd.Execute())
}
