package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandRegistration(t *testing.T) {
	t.Parallel()

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"validate", "report", "sessions", "transcribe", "batch", "fetch-scans", "serve"} {
		assert.True(t, names[want], "command %s registered", want)
	}
}

func TestValidateRequiredFlags(t *testing.T) {
	t.Parallel()

	f := validateCmd.Flags()
	for _, name := range []string{"user", "images", "results", "corrections", "shuffle", "seed"} {
		assert.NotNil(t, f.Lookup(name), "flag %s", name)
	}
	for _, name := range []string{"user", "images", "results"} {
		flag := f.Lookup(name)
		require.NotNil(t, flag)
		assert.Contains(t, flag.Annotations, cobra.BashCompOneRequiredFlag, "flag %s required", name)
	}
}

func TestBatchSubcommands(t *testing.T) {
	t.Parallel()

	subs := make(map[string]bool)
	for _, c := range batchCmd.Commands() {
		subs[c.Name()] = true
	}
	require.True(t, subs["submit"])
	require.True(t, subs["retrieve"])
}
