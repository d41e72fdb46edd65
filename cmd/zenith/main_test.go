package main

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenith-desktop/zenith/internal/config"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "zenith dev\n", out.String())
}

func TestFlagsBindToSettings(t *testing.T) {
	v := viper.New()
	cmd := newRootCmd(v)
	dir := t.TempDir()
	require.NoError(t, cmd.PersistentFlags().Parse([]string{"--config-dir", dir, "--interval", "45", "--log-level", "warn"}))

	s, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, dir, s.ConfigDir)
	assert.Equal(t, 45, s.DefaultInterval)
	assert.Equal(t, "warn", s.LogLevel)
}
