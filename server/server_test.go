package server_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LasseHels/netcalc/server"
)

// logger returns a JSON logger without timestamps. The buffer must only be read once the server has stopped.
func logger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	replaceTime := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}

		return a
	}
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{
		ReplaceAttr: replaceTime,
	})

	return slog.New(handler), buf
}

func listening(t *testing.T, s *server.Server) net.Addr {
	t.Helper()

	require.Eventually(t, func() bool {
		return s.Addr() != nil
	}, 5*time.Second, 10*time.Millisecond, "Server did not start in time")

	return s.Addr()
}

func TestNew(t *testing.T) {
	t.Parallel()

	l, _ := logger()

	t.Run("errors on invalid port", func(t *testing.T) {
		t.Parallel()

		s, err := server.New(server.Config{Port: "abc"}, l, nil, nil)
		require.ErrorContains(t, err, `parsing port "abc"`)
		assert.Nil(t, s)
	})

	t.Run("errors on empty port", func(t *testing.T) {
		t.Parallel()

		s, err := server.New(server.Config{Port: ""}, l, nil, nil)
		require.EqualError(t, err, `parsing port "": port is required`)
		assert.Nil(t, s)
	})

	t.Run("is not listening before start", func(t *testing.T) {
		t.Parallel()

		s, err := server.New(server.Config{Host: "127.0.0.1", Port: "0"}, l, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, s.Addr())
		require.NoError(t, s.Stop(), "stopping an un-started server is a no-op")
	})
}

func TestServer_Start(t *testing.T) {
	t.Parallel()

	l, logs := logger()
	registry := prometheus.NewRegistry()

	dispatch := func(_ context.Context, conn net.Conn) error {
		go func() {
			defer func() {
				_ = conn.Close()
			}()
			_, _ = io.WriteString(conn, "hello\n")
		}()

		return nil
	}

	s, err := server.New(server.Config{Host: "127.0.0.1", Port: "0"}, l, dispatch, registry)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- s.Start(t.Context())
	}()

	addr := listening(t, s)

	for range 3 {
		conn, err := net.Dial("tcp", addr.String())
		require.NoError(t, err)

		body, err := io.ReadAll(conn)
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(body))
		_ = conn.Close()
	}

	require.NoError(t, s.Stop())
	require.NoError(t, <-done)

	expected := `
# HELP netcalc_connections_accepted_total Number of connections accepted by the server.
# TYPE netcalc_connections_accepted_total counter
netcalc_connections_accepted_total 3
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected)))

	assert.Contains(t, logs.String(), `{"level":"INFO","msg":"Starting server","address":"127.0.0.1:0"}`)
	assert.Contains(t, logs.String(), `{"level":"INFO","msg":"Stopped server"}`)
}

func TestServer_Start_StopsWhenContextIsCancelled(t *testing.T) {
	t.Parallel()

	l, _ := logger()
	s, err := server.New(server.Config{Host: "127.0.0.1", Port: "0"}, l, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()

	listening(t, s)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}

func TestServer_Start_ClosesConnectionWhenDispatchFails(t *testing.T) {
	t.Parallel()

	l, logs := logger()
	dispatch := func(_ context.Context, _ net.Conn) error {
		return errors.New("queue full")
	}

	s, err := server.New(server.Config{Host: "127.0.0.1", Port: "0"}, l, dispatch, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- s.Start(t.Context())
	}()

	conn, err := net.Dial("tcp", listening(t, s).String())
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = conn.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF, "connection should be closed by the server")

	require.NoError(t, s.Stop())
	require.NoError(t, <-done)

	assert.Contains(t, logs.String(), `"msg":"Failed to dispatch connection"`)
	assert.Contains(t, logs.String(), `"error":"queue full"`)
}

func TestServer_Start_ErrorsWhenAddressIsTaken(t *testing.T) {
	t.Parallel()

	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() {
		_ = taken.Close()
	}()

	_, port, err := net.SplitHostPort(taken.Addr().String())
	require.NoError(t, err)

	l, _ := logger()
	s, err := server.New(server.Config{Host: "127.0.0.1", Port: port}, l, nil, nil)
	require.NoError(t, err)

	err = s.Start(t.Context())
	require.ErrorContains(t, err, "listening on 127.0.0.1:"+port)
}
