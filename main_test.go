package main

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LasseHels/netcalc/options"
)

func TestRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	// Cancel context immediately to avoid tests hanging forever in case of failure.
	cancel()

	t.Run("prints help and errors if help is requested", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer
		err := run(ctx, []string{"netcalc", "-n", "4", "-h"}, &stdout, &stderr)
		require.EqualError(t, err, "processing options: help requested")
		require.ErrorIs(t, err, options.ErrHelp)

		assert.Contains(t, stdout.String(), "Usage: ./netcalc [options]")
		assert.Empty(t, stderr.String())
	})

	t.Run("reports invalid options on stderr", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer
		err := run(ctx, []string{"netcalc", "-p", "80"}, &stdout, &stderr)
		expectedErr := "processing options: option '-p': value out of range: 80 is not between 1025 and 65535"
		require.EqualError(t, err, expectedErr)
		require.ErrorIs(t, err, options.ErrOutOfRange)

		assert.Equal(
			t,
			"Unable to process option: option '-p': value out of range: 80 is not between 1025 and 65535\n",
			stderr.String(),
		)
		assert.Contains(t, stdout.String(), "Usage: ./netcalc [options]")
	})

	t.Run("reports leftover arguments", func(t *testing.T) {
		t.Parallel()

		var stderr bytes.Buffer
		err := run(ctx, []string{"netcalc", "-p", "8080", "extra"}, io.Discard, &stderr)
		require.EqualError(t, err, "processing options: unexpected arguments: extra")
		assert.Equal(t, "Invalid arguments encountered: extra\n", stderr.String())
	})

	t.Run("errors if the port cannot be bound", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer
		err := run(ctx, []string{"netcalc", "-p", "+8080"}, &stdout, &stderr)
		require.ErrorContains(t, err, `initialising NetCalc: creating server: parsing port "+8080"`)
		assert.Empty(t, stderr.String())
	})
}
