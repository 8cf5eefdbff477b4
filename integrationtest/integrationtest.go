// Package integrationtest contains helpers for tests that run NetCalc against real sockets.
package integrationtest

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func SkipIfShort(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// FreePort returns a TCP port that nothing listened on at the time of the call.
func FreePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "Failed to find a free port")

	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	require.NoError(t, l.Close())

	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	return p
}

// WaitForListener blocks until a TCP connection to address succeeds.
func WaitForListener(t *testing.T, address string) {
	t.Helper()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", address)
		if err != nil {
			return false
		}

		_ = conn.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond, "Server did not start in time")
}
